package services

import "errors"

// Sentinel errors returned by the quote and invoice services. Handlers map
// them to HTTP statuses; the error strings double as wire error codes.
var (
	// ErrNotFound covers both true absence and ownership by another account.
	// Callers cannot tell the two apart, which keeps other accounts' data
	// unguessable.
	ErrNotFound = errors.New("not_found")

	ErrInvalidStatus        = errors.New("invalid_status")
	ErrQuoteNotDraft        = errors.New("quote_not_draft")
	ErrQuoteNotApproved     = errors.New("quote_not_approved")
	ErrQuoteAlreadyInvoiced = errors.New("quote_already_invoiced")
	ErrEmptyQuote           = errors.New("empty_quote")
	ErrInvoiceAlreadyPaid   = errors.New("invoice_already_paid")
)
