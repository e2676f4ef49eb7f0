package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
)

// invoiceRepository implements the InvoiceRepository interface
type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// GetByID retrieves an invoice by its ID
func (r *invoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByNumber retrieves an invoice by its invoice number
func (r *invoiceRepository) GetByNumber(number string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Where("invoice_number = ?", number).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetForUser retrieves invoices where the user is buyer or seller
func (r *invoiceRepository) GetForUser(userID uint, offset, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&invoices).Error
	return invoices, err
}

// ListByStatus retrieves invoices in a given status, oldest first
func (r *invoiceRepository) ListByStatus(status string, offset, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("status = ?", status).
		Order("created_at ASC").Offset(offset).Limit(limit).Find(&invoices).Error
	return invoices, err
}

// Count returns the total number of invoices
func (r *invoiceRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Invoice{}).Count(&count).Error
	return count, err
}

// MarkOverdue flips every pending invoice whose due date has passed to
// overdue and returns how many rows changed.
func (r *invoiceRepository) MarkOverdue(now time.Time) (int64, error) {
	res := r.db.Model(&models.Invoice{}).
		Where("status = ? AND payment_due_date IS NOT NULL AND payment_due_date < ?",
			models.InvoiceStatusPending, now).
		Update("status", models.InvoiceStatusOverdue)
	return res.RowsAffected, res.Error
}
