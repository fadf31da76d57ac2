package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/brnno/brnno-api/auth"
	"github.com/brnno/brnno-api/httpx"
	"github.com/brnno/brnno-api/internal/services"
)

// requireUser resolves the caller identity attached by the auth middleware.
// Writes the 401 itself so callers can just return.
func requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return 0, false
	}
	return uid, true
}

// pathID parses the {id} segment. Zero means invalid.
func pathID(r *http.Request) uint {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0
	}
	return uint(id)
}

// pagination reads limit/page query params with the usual bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// writeServiceError maps the service sentinels onto the error taxonomy:
// not-found (indistinguishable from forbidden), policy violations as 400s
// with the sentinel text as code, everything else a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrQuoteNotDraft),
		errors.Is(err, services.ErrQuoteNotApproved),
		errors.Is(err, services.ErrQuoteAlreadyInvoiced),
		errors.Is(err, services.ErrEmptyQuote),
		errors.Is(err, services.ErrInvoiceAlreadyPaid):
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		log.Printf("unexpected failure: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
