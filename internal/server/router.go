package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/brnno/brnno-api/auth"
	"github.com/brnno/brnno-api/httpx"
	"github.com/brnno/brnno-api/internal/handlers"
	"github.com/brnno/brnno-api/internal/models"
	"github.com/brnno/brnno-api/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// RequireAuth double-checks that the token's user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	ch := handlers.NewClientHandler(db)
	mux.Handle("GET /clients", protect(ch.List))
	mux.Handle("POST /clients", protect(ch.Create))
	mux.Handle("GET /clients/{id}", protect(ch.Get))
	mux.Handle("PUT /clients/{id}", protect(ch.Update))
	mux.Handle("DELETE /clients/{id}", protect(ch.Delete))

	sh := handlers.NewServiceHandler(db)
	mux.Handle("GET /services", protect(sh.List))
	mux.Handle("POST /services", protect(sh.Create))
	mux.Handle("GET /services/{id}", protect(sh.Get))
	mux.Handle("PUT /services/{id}", protect(sh.Update))
	mux.Handle("DELETE /services/{id}", protect(sh.Delete))

	qh := handlers.NewQuoteHandler(db, services.NewQuoteService(db))
	mux.Handle("GET /quotes", protect(qh.List))
	mux.Handle("POST /quotes", protect(qh.Create))
	mux.Handle("GET /quotes/{id}", protect(qh.Get))
	mux.Handle("PATCH /quotes/{id}/status", protect(qh.UpdateStatus))
	mux.Handle("DELETE /quotes/{id}", protect(qh.Delete))

	ih := handlers.NewInvoiceHandler(db, services.NewInvoiceService(db))
	mux.Handle("GET /invoices", protect(ih.List))
	mux.Handle("POST /invoices", protect(ih.Create))
	mux.Handle("GET /invoices/{id}", protect(ih.Get))
	mux.Handle("POST /invoices/{id}/pay", protect(ih.Pay))

	return withRecover(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
