package models

import "time"

// ProcessedWebhookEvent is a write-once ledger entry keyed by the
// provider's event id. Existence of a row means the event has been
// fully handled and must not be reprocessed.
type ProcessedWebhookEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"event_id"`
	EventType   string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	ProcessedAt time.Time `gorm:"type:timestamp;not null" json:"processed_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
