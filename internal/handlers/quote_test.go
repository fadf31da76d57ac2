package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brnno/brnno-api/internal/models"
	"github.com/brnno/brnno-api/internal/services"
)

func newQuoteHandler(db *gorm.DB) *QuoteHandler {
	return NewQuoteHandler(db, services.NewQuoteService(db))
}

// createQuote drives the handler and returns the decoded response body.
func createQuote(t *testing.T, h *QuoteHandler, userID uint, body string) map[string]any {
	t.Helper()
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/quotes", body, userID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestQuoteCreateComputesTotal(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	h := newQuoteHandler(db)

	body := fmt.Sprintf(`{"client_id":%d,"items":[
		{"service_id":%d,"description":"Wash","unit_price":"40.00","quantity":2},
		{"service_id":%d,"description":"Wax","unit_price":"25.50","quantity":1}
	]}`, client.ID, service.ID, service.ID)
	resp := createQuote(t, h, user.ID, body)

	if resp["status"] != models.QuoteStatusDraft {
		t.Fatalf("expected draft got %v", resp["status"])
	}
	if resp["total_amount"] != "105.5" {
		t.Fatalf("expected total 105.5 got %v", resp["total_amount"])
	}
	if resp["number"] == "" || resp["number"] == nil {
		t.Fatalf("missing quote number: %v", resp["number"])
	}

	// Persisted total must equal the sum over the persisted items.
	var quote models.Quote
	if err := db.Preload("Items").First(&quote).Error; err != nil {
		t.Fatalf("load quote: %v", err)
	}
	sum := decimal.Zero
	for _, it := range quote.Items {
		sum = sum.Add(it.LineTotal())
	}
	if !quote.TotalAmount.Equal(sum) {
		t.Fatalf("total %s != item sum %s", quote.TotalAmount, sum)
	}
	if len(quote.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(quote.Items))
	}
}

func TestQuoteCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	h := newQuoteHandler(db)

	cases := []struct {
		name string
		body string
	}{
		{"empty items", fmt.Sprintf(`{"client_id":%d,"items":[]}`, client.ID)},
		{"missing client", fmt.Sprintf(`{"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1}]}`, service.ID)},
		{"zero quantity", fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":0}]}`, client.ID, service.ID)},
		{"negative price", fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"-1","quantity":1}]}`, client.ID, service.ID)},
		{"blank description", fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"  ","unit_price":"40","quantity":1}]}`, client.ID, service.ID)},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		h.Create(w, authedRequest(http.MethodPost, "/quotes", tc.body, user.ID))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d body=%s", tc.name, w.Code, w.Body.String())
		}
	}
	var count int64
	db.Model(&models.Quote{}).Count(&count)
	if count != 0 {
		t.Fatalf("no quote should have been created, found %d", count)
	}
}

func TestQuoteCreateRejectsCrossAccountReferences(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	_, otherClient, otherService := seedOtherAccount(t, db)
	h := newQuoteHandler(db)

	// Client owned by another account.
	body := fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1}]}`, otherClient.ID, service.ID)
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/quotes", body, user.ID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign client: expected 404 got %d", w.Code)
	}

	// One foreign service id poisons the whole set.
	body = fmt.Sprintf(`{"client_id":%d,"items":[
		{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1},
		{"service_id":%d,"description":"Sneaky","unit_price":"1","quantity":1}
	]}`, client.ID, service.ID, otherService.ID)
	w = httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/quotes", body, user.ID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign service: expected 404 got %d", w.Code)
	}

	var count int64
	db.Model(&models.Quote{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no quotes, found %d", count)
	}
}

func TestQuoteCreateRejectsRetiredService(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	h := newQuoteHandler(db)

	if err := db.Delete(&models.Service{}, service.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	body := fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1}]}`, client.ID, service.ID)
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/quotes", body, user.ID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for retired service got %d", w.Code)
	}
}

func TestQuoteListFiltersAndAnnotates(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	h := newQuoteHandler(db)

	first := createQuote(t, h, user.ID, fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":2}]}`, client.ID, service.ID))
	second := createQuote(t, h, user.ID, fmt.Sprintf(`{"client_id":%d,"items":[
		{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1},
		{"service_id":%d,"description":"Wax","unit_price":"20","quantity":1}
	]}`, client.ID, service.ID, service.ID))

	// Move the first quote to sent.
	w := httptest.NewRecorder()
	req := withID(authedRequest(http.MethodPatch, "/quotes/1/status", `{"status":"sent"}`, user.ID), uint(first["id"].(float64)))
	h.UpdateStatus(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status update: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var list struct {
		Items []services.QuoteSummary `json:"items"`
		Total int64                   `json:"total"`
	}
	w = httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/quotes", "", user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 2 || len(list.Items) != 2 {
		t.Fatalf("expected 2 quotes got total=%d len=%d", list.Total, len(list.Items))
	}
	// Newest first.
	if list.Items[0].ID != uint(second["id"].(float64)) {
		t.Fatalf("expected newest quote first, got id=%d", list.Items[0].ID)
	}
	if list.Items[0].ItemCount != 2 || list.Items[1].ItemCount != 1 {
		t.Fatalf("unexpected item counts: %d, %d", list.Items[0].ItemCount, list.Items[1].ItemCount)
	}
	if list.Items[0].ClientName != "ClientCo" || list.Items[0].ClientEmail != "billing@clientco.test" {
		t.Fatalf("missing client annotation: %+v", list.Items[0])
	}

	// Status filter.
	w = httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/quotes?status=sent", "", user.ID))
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode filtered list: %v", err)
	}
	if list.Total != 1 || list.Items[0].Status != models.QuoteStatusSent {
		t.Fatalf("unexpected filtered list: %+v", list)
	}

	// Unknown status value.
	w = httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/quotes?status=bogus", "", user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bogus status got %d", w.Code)
	}
}

func TestQuoteGetScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	other, _, _ := seedOtherAccount(t, db)
	h := newQuoteHandler(db)

	resp := createQuote(t, h, user.ID, fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1}]}`, client.ID, service.ID))
	quoteID := uint(resp["id"].(float64))

	// Another account sees a plain 404, same as true absence.
	w := httptest.NewRecorder()
	h.Get(w, withID(authedRequest(http.MethodGet, "/quotes/1", "", other.ID), quoteID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other account got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Get(w, withID(authedRequest(http.MethodGet, "/quotes/1", "", user.ID), quoteID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner got %d", w.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	items := got["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item got %d", len(items))
	}
	// Detail view joins the service name in.
	item := items[0].(map[string]any)
	if item["service"].(map[string]any)["name"] != "Wash" {
		t.Fatalf("missing service join: %v", item["service"])
	}
	if got["client"].(map[string]any)["email"] != "billing@clientco.test" {
		t.Fatalf("missing client contact: %v", got["client"])
	}
}

func TestQuoteGetKeepsRetiredServiceName(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	h := newQuoteHandler(db)

	resp := createQuote(t, h, user.ID, fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1}]}`, client.ID, service.ID))
	quoteID := uint(resp["id"].(float64))

	// Retire the catalog entry after the quote exists.
	if err := db.Delete(&models.Service{}, service.ID).Error; err != nil {
		t.Fatalf("retire service: %v", err)
	}

	w := httptest.NewRecorder()
	h.Get(w, withID(authedRequest(http.MethodGet, "/quotes/1", "", user.ID), quoteID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	item := got["items"].([]any)[0].(map[string]any)
	if name := item["service"].(map[string]any)["name"]; name != "Wash" {
		t.Fatalf("service name lost after catalog retirement: got %v", name)
	}
}

func TestQuoteStatusPermissiveTransitions(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	h := newQuoteHandler(db)

	resp := createQuote(t, h, user.ID, fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1}]}`, client.ID, service.ID))
	quoteID := uint(resp["id"].(float64))

	// No transition graph: approve straight from draft, decline, then back to
	// approved. All allowed.
	for _, status := range []string{"approved", "declined", "approved", "sent", "draft"} {
		w := httptest.NewRecorder()
		req := withID(authedRequest(http.MethodPatch, "/quotes/1/status", fmt.Sprintf(`{"status":%q}`, status), user.ID), quoteID)
		h.UpdateStatus(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("set %s: expected 200 got %d body=%s", status, w.Code, w.Body.String())
		}
	}

	// invoiced is not an externally settable value.
	w := httptest.NewRecorder()
	h.UpdateStatus(w, withID(authedRequest(http.MethodPatch, "/quotes/1/status", `{"status":"invoiced"}`, user.ID), quoteID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invoiced got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.UpdateStatus(w, withID(authedRequest(http.MethodPatch, "/quotes/1/status", `{"status":"archived"}`, user.ID), quoteID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", w.Code)
	}
}

func TestQuoteDeleteOnlyFromDraft(t *testing.T) {
	db := setupTestDB(t)
	user, client, service := seedFixtures(t, db)
	h := newQuoteHandler(db)

	body := fmt.Sprintf(`{"client_id":%d,"items":[{"service_id":%d,"description":"Wash","unit_price":"40","quantity":1}]}`, client.ID, service.ID)

	// Draft quote deletes cleanly, items included.
	resp := createQuote(t, h, user.ID, body)
	draftID := uint(resp["id"].(float64))
	w := httptest.NewRecorder()
	h.Delete(w, withID(authedRequest(http.MethodDelete, "/quotes/1", "", user.ID), draftID))
	if w.Code != http.StatusOK {
		t.Fatalf("delete draft: expected 200 got %d", w.Code)
	}
	var itemCount int64
	db.Model(&models.QuoteItem{}).Where("quote_id = ?", draftID).Count(&itemCount)
	if itemCount != 0 {
		t.Fatalf("expected cascade delete of items, found %d", itemCount)
	}

	// A sent quote refuses deletion and is left untouched.
	resp = createQuote(t, h, user.ID, body)
	sentID := uint(resp["id"].(float64))
	w = httptest.NewRecorder()
	h.UpdateStatus(w, withID(authedRequest(http.MethodPatch, "/quotes/2/status", `{"status":"sent"}`, user.ID), sentID))
	if w.Code != http.StatusOK {
		t.Fatalf("set sent: got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Delete(w, withID(authedRequest(http.MethodDelete, "/quotes/2", "", user.ID), sentID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete sent: expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	var quote models.Quote
	if err := db.Preload("Items").First(&quote, sentID).Error; err != nil {
		t.Fatalf("quote should still exist: %v", err)
	}
	if len(quote.Items) != 1 || quote.Status != models.QuoteStatusSent {
		t.Fatalf("quote mutated by failed delete: %+v", quote)
	}
}

func TestQuoteUnauthenticated(t *testing.T) {
	db := setupTestDB(t)
	h := newQuoteHandler(db)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/quotes", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}
