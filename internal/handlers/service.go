package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brnno/brnno-api/httpx"
	"github.com/brnno/brnno-api/internal/models"
	"github.com/brnno/brnno-api/validation"
)

// ServiceHandler manages the account's bookable catalog. Deletes are soft so
// existing quote items keep their display reference.
type ServiceHandler struct{ DB *gorm.DB }

func NewServiceHandler(db *gorm.DB) *ServiceHandler { return &ServiceHandler{DB: db} }

type serviceReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        string          `json:"unit"`
}

func (req *serviceReq) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("name", req.Name, v)
	validation.NonNegativeAmount("unit_price", req.UnitPrice, v)
	return v
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	dbq := h.DB.Model(&models.Service{}).Where("user_id = ?", userID)
	if query != "" {
		dbq = dbq.Where("lower(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	var items []models.Service
	if err := dbq.Order("name").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req serviceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	svc := models.Service{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Unit:        req.Unit,
	}
	if err := h.DB.Create(&svc).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, svc)
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var svc models.Service
	if err := h.DB.Where("id = ? AND user_id = ?", pathID(r), userID).First(&svc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var svc models.Service
	if err := h.DB.Where("id = ? AND user_id = ?", pathID(r), userID).First(&svc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		writeServiceError(w, err)
		return
	}
	var req serviceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	svc.Name = req.Name
	svc.Description = req.Description
	svc.UnitPrice = req.UnitPrice
	svc.Unit = req.Unit
	if err := h.DB.Save(&svc).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

// Delete soft-deletes the catalog entry. Existing quotes keep rendering the
// name; new quotes can no longer reference it.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	res := h.DB.Where("id = ? AND user_id = ?", pathID(r), userID).Delete(&models.Service{})
	if res.Error != nil {
		writeServiceError(w, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
