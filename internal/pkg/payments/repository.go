package payments

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pressbid/PressBid/app/models"
)

// Repository provides the DB operations used by the payment service.
type Repository interface {
	// EventProcessed reports whether the event id is already in the
	// processed ledger.
	EventProcessed(eventID string) (bool, error)

	GetInvoice(id uint) (*models.Invoice, error)

	// MarkInvoicePaidIfPending flips invoice status pending -> paid and
	// stamps paid_at; returns false when the invoice was not pending.
	MarkInvoicePaidIfPending(invoiceID uint, paidAt time.Time) (bool, error)

	CreatePayment(payment *models.Payment) error

	// RecordProcessedEvent inserts the ledger row. The insert ignores a
	// duplicate event id so a concurrent handler racing past the
	// EventProcessed check cannot fail here.
	RecordProcessedEvent(eventID, eventType string, processedAt time.Time) error

	NotificationExists(userID uint, notificationType string, referenceID uint) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) EventProcessed(eventID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ProcessedWebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) GetInvoice(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *gormRepository) MarkInvoicePaidIfPending(invoiceID uint, paidAt time.Time) (bool, error) {
	res := r.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", invoiceID, models.InvoiceStatusPending).
		Updates(map[string]interface{}{
			"status":             models.InvoiceStatusPaid,
			"fulfillment_status": models.FulfillmentPreparing,
			"paid_at":            paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) CreatePayment(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *gormRepository) RecordProcessedEvent(eventID, eventType string, processedAt time.Time) error {
	event := models.ProcessedWebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: processedAt,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&event).Error
}

func (r *gormRepository) NotificationExists(userID uint, notificationType string, referenceID uint) (bool, error) {
	return models.NotificationExists(r.db, userID, notificationType, referenceID)
}
