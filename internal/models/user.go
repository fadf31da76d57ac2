package models

import "time"

// User is the authenticated account that owns clients, services, quotes and
// invoices. Every cross-entity reference in the API is scoped to it.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"unique;not null;index" json:"email"`
	Password     string    `gorm:"not null" json:"-"` // bcrypt hash
	Name         string    `json:"name"`
	BusinessName string    `json:"business_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
