package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brnno/brnno-api/internal/models"
)

// InvoiceService produces invoices from approved quotes and serves invoice
// reads. Conversion is the one real transaction in the system: invoice row,
// copied line items and the quote status flip commit or roll back together.
type InvoiceService struct{ DB *gorm.DB }

func NewInvoiceService(db *gorm.DB) *InvoiceService { return &InvoiceService{DB: db} }

// Convert turns an approved quote into an invoice. The total is copied
// verbatim from the quote, items are copied without their service reference,
// and the quote moves to its terminal invoiced status. The duplicate
// pre-check is only a fast path; the unique index on invoices.quote_id is
// what actually prevents a concurrent double conversion.
func (s *InvoiceService) Convert(ctx context.Context, userID, quoteID uint, dueAt *time.Time) (*models.Invoice, error) {
	var quote models.Quote
	err := s.DB.WithContext(ctx).Preload("Client").
		Where("id = ? AND user_id = ?", quoteID, userID).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if quote.Status == models.QuoteStatusInvoiced {
		return nil, ErrQuoteAlreadyInvoiced
	}
	if quote.Status != models.QuoteStatusApproved {
		return nil, ErrQuoteNotApproved
	}
	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Invoice{}).
		Where("quote_id = ?", quote.ID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrQuoteAlreadyInvoiced
	}
	var items []models.QuoteItem
	if err := s.DB.WithContext(ctx).Where("quote_id = ?", quote.ID).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyQuote
	}

	invoice := models.Invoice{
		Number:      InvoiceNumber(),
		UserID:      userID,
		ClientID:    quote.ClientID,
		QuoteID:     quote.ID,
		Status:      models.InvoiceStatusIssued,
		TotalAmount: quote.TotalAmount,
		IssuedAt:    time.Now().UTC(),
		DueAt:       dueAt,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		copies := make([]models.InvoiceItem, 0, len(items))
		for _, it := range items {
			copies = append(copies, models.InvoiceItem{
				InvoiceID:   invoice.ID,
				Description: it.Description,
				UnitPrice:   it.UnitPrice,
				Quantity:    it.Quantity,
			})
		}
		if err := tx.Create(&copies).Error; err != nil {
			return err
		}
		invoice.Items = copies
		return tx.Model(&models.Quote{}).Where("id = ?", quote.ID).
			Update("status", models.QuoteStatusInvoiced).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrQuoteAlreadyInvoiced
		}
		return nil, err
	}
	invoice.Client = quote.Client
	return &invoice, nil
}

// Get returns the invoice with items and client contact, scoped to userID.
func (s *InvoiceService) Get(ctx context.Context, userID, invoiceID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.DB.WithContext(ctx).Preload("Client").Preload("Items").
		Where("id = ? AND user_id = ?", invoiceID, userID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns invoices newest-first with client info preloaded.
func (s *InvoiceService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Invoice, int64, error) {
	dbq := s.DB.WithContext(ctx).Model(&models.Invoice{}).Where("user_id = ?", userID)
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var invoices []models.Invoice
	err := dbq.Preload("Client").Preload("Items").
		Order("id DESC").Limit(limit).Offset(offset).Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// MarkPaid records the payment timestamp once.
func (s *InvoiceService) MarkPaid(ctx context.Context, userID, invoiceID uint) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.PaidAt != nil {
		return nil, ErrInvoiceAlreadyPaid
	}
	now := time.Now().UTC()
	if err := s.DB.WithContext(ctx).Model(invoice).Update("paid_at", &now).Error; err != nil {
		return nil, err
	}
	invoice.PaidAt = &now
	return invoice, nil
}

// isDuplicate matches unique violations across the postgres and sqlite
// drivers, since gorm only translates them when TranslateError is on.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
