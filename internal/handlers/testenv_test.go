package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/brnno/brnno-api/auth"
	"github.com/brnno/brnno-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Client{}, &models.Service{},
		&models.Quote{}, &models.QuoteItem{}, &models.Invoice{}, &models.InvoiceItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedFixtures creates an account with one client and one catalog service
// (Wash, 40.00 per item).
func seedFixtures(t *testing.T, db *gorm.DB) (user models.User, client models.Client, service models.Service) {
	t.Helper()
	user = models.User{Email: "owner@test", Password: "x", Name: "Owner", BusinessName: "Owner Detailing"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	client = models.Client{UserID: user.ID, Name: "ClientCo", Email: "billing@clientco.test"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	service = models.Service{UserID: user.ID, Name: "Wash", UnitPrice: decimal.NewFromInt(40), Unit: "item"}
	if err := db.Create(&service).Error; err != nil {
		t.Fatalf("service: %v", err)
	}
	return
}

// seedOtherAccount creates a second account with its own client and service,
// for cross-account checks.
func seedOtherAccount(t *testing.T, db *gorm.DB) (user models.User, client models.Client, service models.Service) {
	t.Helper()
	user = models.User{Email: "other@test", Password: "x", Name: "Other"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("other user: %v", err)
	}
	client = models.Client{UserID: user.ID, Name: "OtherClient"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("other client: %v", err)
	}
	service = models.Service{UserID: user.ID, Name: "OtherService", UnitPrice: decimal.NewFromInt(10)}
	if err := db.Create(&service).Error; err != nil {
		t.Fatalf("other service: %v", err)
	}
	return
}

// authedRequest builds a JSON request with the caller identity attached, the
// way the auth middleware would.
func authedRequest(method, target, body string, userID uint) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func withID(req *http.Request, id uint) *http.Request {
	req.SetPathValue("id", fmt.Sprint(id))
	return req
}
