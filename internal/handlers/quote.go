package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brnno/brnno-api/httpx"
	"github.com/brnno/brnno-api/internal/models"
	"github.com/brnno/brnno-api/internal/services"
	"github.com/brnno/brnno-api/validation"
)

// QuoteHandler exposes the quote lifecycle. Field-level validation happens
// here; ownership and state rules live in the service.
type QuoteHandler struct {
	DB  *gorm.DB
	Svc *services.QuoteService
}

func NewQuoteHandler(db *gorm.DB, svc *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{DB: db, Svc: svc}
}

type quoteItemReq struct {
	ServiceID   uint            `json:"service_id"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

type createQuoteReq struct {
	ClientID  uint           `json:"client_id"`
	Items     []quoteItemReq `json:"items"`
	IssuedAt  *time.Time     `json:"issued_at"`
	ExpiresAt *time.Time     `json:"expires_at"`
}

func (req *createQuoteReq) validate() validation.Violations {
	v := make(validation.Violations)
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	if len(req.Items) == 0 {
		v["items"] = "required"
	}
	for i := range req.Items {
		it := &req.Items[i]
		it.Description = strings.TrimSpace(it.Description)
		prefix := fmt.Sprintf("items[%d].", i)
		if it.ServiceID == 0 {
			v[prefix+"service_id"] = "required"
		}
		validation.Required(prefix+"description", it.Description, v)
		validation.NonNegativeAmount(prefix+"unit_price", it.UnitPrice, v)
		validation.PositiveInt(prefix+"quantity", it.Quantity, v)
	}
	return v
}

// Create: POST /quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req createQuoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	in := services.CreateQuoteInput{ClientID: req.ClientID, IssuedAt: req.IssuedAt, ExpiresAt: req.ExpiresAt}
	for _, it := range req.Items {
		in.Items = append(in.Items, services.QuoteItemInput{
			ServiceID:   it.ServiceID,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}
	quote, err := h.Svc.Create(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

// List: GET /quotes?status=
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	if status != "" {
		v := make(validation.Violations)
		validation.OneOf("status", status, models.QuoteStatuses(), v)
		if !v.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_status", v)
			return
		}
	}
	limit, offset := pagination(r)
	quotes, total, err := h.Svc.List(r.Context(), userID, status, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if quotes == nil {
		quotes = []services.QuoteSummary{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": quotes, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /quotes/{id}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	quote, err := h.Svc.Get(r.Context(), userID, pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// UpdateStatus: PATCH /quotes/{id}/status
func (h *QuoteHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	quote, err := h.Svc.UpdateStatus(r.Context(), userID, pathID(r), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Delete: DELETE /quotes/{id}
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), userID, pathID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
