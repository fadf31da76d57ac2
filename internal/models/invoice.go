package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default invoice status. The status field exists for the wire contract but
// carries no further lifecycle; payment is tracked through PaidAt.
const InvoiceStatusIssued = "issued"

// Invoice is an immutable billing snapshot produced from exactly one approved
// quote. The unique index on QuoteID is the authoritative guard against
// double conversion.
type Invoice struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Number      string          `gorm:"size:40;unique;not null" json:"number"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	ClientID    uint            `gorm:"not null;index" json:"client_id"`
	Client      Client          `gorm:"foreignKey:ClientID" json:"client"`
	QuoteID     uint            `gorm:"not null;uniqueIndex" json:"quote_id"`
	Status      string          `gorm:"size:20;not null;default:'issued'" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Items       []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	IssuedAt    time.Time       `json:"issued_at"`
	DueAt       *time.Time      `json:"due_at"`
	PaidAt      *time.Time      `json:"paid_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InvoiceItem copies description, unit price and quantity from the source
// quote item at conversion time. It carries no service reference so later
// catalog changes never touch an issued invoice.
type InvoiceItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceID   uint            `gorm:"not null;index" json:"invoice_id"`
	Description string          `gorm:"not null" json:"description"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

func (i InvoiceItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
