package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brnno/brnno-api/internal/models"
)

// QuoteService owns the quote lifecycle: creation with ownership checks,
// listing, the (deliberately permissive) status updates and
// deletion-only-from-draft.
type QuoteService struct{ DB *gorm.DB }

func NewQuoteService(db *gorm.DB) *QuoteService { return &QuoteService{DB: db} }

type QuoteItemInput struct {
	ServiceID   uint
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

type CreateQuoteInput struct {
	ClientID  uint
	Items     []QuoteItemInput
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// QuoteSummary is the list-view shape: client contact and an item count
// instead of full line-item detail.
type QuoteSummary struct {
	ID          uint            `json:"id"`
	Number      string          `json:"number"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ClientName  string          `json:"client_name"`
	ClientEmail string          `json:"client_email"`
	ItemCount   int64           `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Create inserts the quote and its line items in one transaction. The client
// and every referenced service must belong to userID; service ownership is
// checked as a set so a single foreign id rejects the whole request.
func (s *QuoteService) Create(ctx context.Context, userID uint, in CreateQuoteInput) (*models.Quote, error) {
	var client models.Client
	if err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", in.ClientID, userID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	serviceIDs := make([]uint, 0, len(in.Items))
	seen := map[uint]bool{}
	for _, it := range in.Items {
		if !seen[it.ServiceID] {
			seen[it.ServiceID] = true
			serviceIDs = append(serviceIDs, it.ServiceID)
		}
	}
	// Soft-deleted services drop out of this count, so quoting a retired
	// catalog entry is rejected the same way as a foreign one.
	var owned int64
	if err := s.DB.WithContext(ctx).Model(&models.Service{}).
		Where("id IN ? AND user_id = ?", serviceIDs, userID).Count(&owned).Error; err != nil {
		return nil, err
	}
	if owned != int64(len(serviceIDs)) {
		return nil, ErrNotFound
	}

	total := decimal.Zero
	items := make([]models.QuoteItem, 0, len(in.Items))
	for _, it := range in.Items {
		item := models.QuoteItem{
			ServiceID:   it.ServiceID,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}

	quote := models.Quote{
		Number:      QuoteNumber(),
		UserID:      userID,
		ClientID:    in.ClientID,
		Status:      models.QuoteStatusDraft,
		TotalAmount: total,
		IssuedAt:    in.IssuedAt,
		ExpiresAt:   in.ExpiresAt,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quote).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteID = quote.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	quote.Items = items
	quote.Client = client
	return &quote, nil
}

// Get returns the quote with items (service names joined in) and client
// contact, or ErrNotFound when absent or owned by another account. The
// service preload is unscoped so a retired catalog entry still shows its
// name on quotes that referenced it.
func (s *QuoteService) Get(ctx context.Context, userID, quoteID uint) (*models.Quote, error) {
	var quote models.Quote
	err := s.DB.WithContext(ctx).
		Preload("Client").Preload("Items").
		Preload("Items.Service", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("id = ? AND user_id = ?", quoteID, userID).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// List returns quote summaries newest-first, optionally filtered by status.
func (s *QuoteService) List(ctx context.Context, userID uint, status string, limit, offset int) ([]QuoteSummary, int64, error) {
	dbq := s.DB.WithContext(ctx).Model(&models.Quote{}).Where("quotes.user_id = ?", userID)
	if status != "" {
		dbq = dbq.Where("quotes.status = ?", status)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []QuoteSummary
	err := dbq.
		Select("quotes.id, quotes.number, quotes.status, quotes.total_amount, quotes.created_at, quotes.updated_at, clients.name AS client_name, clients.email AS client_email, (SELECT COUNT(*) FROM quote_items WHERE quote_items.quote_id = quotes.id) AS item_count").
		Joins("JOIN clients ON clients.id = quotes.client_id").
		Order("quotes.id DESC").Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateStatus sets any of the four non-invoiced statuses. No transition
// graph is enforced beyond that set; a declined quote may go straight back
// to approved. Invoiced quotes are terminal.
func (s *QuoteService) UpdateStatus(ctx context.Context, userID, quoteID uint, status string) (*models.Quote, error) {
	if !models.QuoteStatusSettable(status) {
		return nil, ErrInvalidStatus
	}
	var quote models.Quote
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", quoteID, userID).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if quote.Status == models.QuoteStatusInvoiced {
		return nil, ErrQuoteAlreadyInvoiced
	}
	if err := s.DB.WithContext(ctx).Model(&quote).Update("status", status).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, quoteID)
}

// Delete removes a quote and its items, allowed only from draft.
func (s *QuoteService) Delete(ctx context.Context, userID, quoteID uint) error {
	var quote models.Quote
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", quoteID, userID).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if quote.Status != models.QuoteStatusDraft {
		return ErrQuoteNotDraft
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&quote).Error
	})
}
