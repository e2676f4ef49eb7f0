package models

import "time"

// Payment is one ledger row per completed external payment. Exactly one
// row is written per processed webhook event.
type Payment struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	InvoiceID       uint    `gorm:"not null;index" json:"invoice_id"`
	Invoice         Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	Provider        string  `gorm:"type:varchar(40);not null" json:"provider"`
	ProviderEventID string  `gorm:"type:varchar(191);not null;index" json:"provider_event_id"`
	Amount          float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency        string  `gorm:"type:char(3);default:'USD'" json:"currency"`
	Method          string  `gorm:"type:varchar(40)" json:"method"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
