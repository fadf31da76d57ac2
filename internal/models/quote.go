package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote statuses. "invoiced" is terminal and can only be reached through
// conversion, never through the status-update endpoint.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusApproved = "approved"
	QuoteStatusDeclined = "declined"
	QuoteStatusInvoiced = "invoiced"
)

// QuoteStatuses lists every status a quote can carry, for filter validation.
func QuoteStatuses() []string {
	return []string{QuoteStatusDraft, QuoteStatusSent, QuoteStatusApproved, QuoteStatusDeclined, QuoteStatusInvoiced}
}

// QuoteStatusSettable reports whether s may be assigned via the status
// endpoint. The transition graph is deliberately permissive: any of the four
// non-invoiced statuses may be set regardless of the current one.
func QuoteStatusSettable(s string) bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusApproved, QuoteStatusDeclined:
		return true
	}
	return false
}

// Quote is a priced proposal of line items for a client. TotalAmount is
// computed from the items at creation time and never mutated afterwards.
type Quote struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Number      string          `gorm:"size:40;unique;not null" json:"number"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	ClientID    uint            `gorm:"not null;index" json:"client_id"`
	Client      Client          `gorm:"foreignKey:ClientID" json:"client"`
	Status      string          `gorm:"size:20;not null;default:'draft'" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Items       []QuoteItem     `gorm:"foreignKey:QuoteID" json:"items"`
	IssuedAt    *time.Time      `json:"issued_at"`
	ExpiresAt   *time.Time      `json:"expires_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type QuoteItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	QuoteID     uint            `gorm:"not null;index" json:"quote_id"`
	ServiceID   uint            `gorm:"not null" json:"service_id"`
	Service     Service         `gorm:"foreignKey:ServiceID" json:"service"`
	Description string          `gorm:"not null" json:"description"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

// LineTotal is computed on read for display; it is not stored per line.
func (i QuoteItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
