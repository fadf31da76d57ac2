package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brnno/brnno-api/internal/models"
)

func TestServiceCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	user, _, _ := seedFixtures(t, db)
	h := NewServiceHandler(db)

	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/services", `{"name":"Groom","unit_price":"-5"}`, user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative price: expected 400 got %d", w.Code)
	}

	// Zero is a valid price (free add-on).
	w = httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/services", `{"name":"Inspection","unit_price":"0","unit":"visit"}`, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("zero price: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestServiceSoftDeleteHidesFromList(t *testing.T) {
	db := setupTestDB(t)
	user, _, service := seedFixtures(t, db)
	h := NewServiceHandler(db)

	w := httptest.NewRecorder()
	h.Delete(w, withID(authedRequest(http.MethodDelete, "/services/1", "", user.ID), service.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("delete: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/services", "", user.ID))
	var list struct {
		Items []models.Service `json:"items"`
		Total int64            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 0 || len(list.Items) != 0 {
		t.Fatalf("soft-deleted service still listed: %+v", list)
	}

	// Row survives for historical quote items.
	var count int64
	db.Unscoped().Model(&models.Service{}).Where("id = ?", service.ID).Count(&count)
	if count != 1 {
		t.Fatalf("service hard-deleted")
	}
}

func TestServiceUpdate(t *testing.T) {
	db := setupTestDB(t)
	user, _, service := seedFixtures(t, db)
	h := NewServiceHandler(db)

	w := httptest.NewRecorder()
	h.Update(w, withID(authedRequest(http.MethodPut, "/services/1", `{"name":"Premium Wash","unit_price":"55.00","unit":"item"}`, user.ID), service.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("update: got %d body=%s", w.Code, w.Body.String())
	}
	var reloaded models.Service
	if err := db.First(&reloaded, service.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Name != "Premium Wash" || reloaded.UnitPrice.String() != "55" {
		t.Fatalf("update not persisted: %+v", reloaded)
	}
}
