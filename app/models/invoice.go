package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusPartial   = "partial"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
	InvoiceStatusRefunded  = "refunded"

	FulfillmentAwaitingPayment = "awaiting_payment"
	FulfillmentPreparing       = "preparing"
	FulfillmentShipped         = "shipped"
	FulfillmentDelivered       = "delivered"
)

// Invoice is the settlement record for a sale, created exactly once by
// either auction settlement or offer acceptance. The commission
// percentages are copied onto the row so later rate changes never
// alter historical invoices.
type Invoice struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	InvoiceNumber string  `gorm:"type:varchar(20);not null;uniqueIndex" json:"invoice_number"`
	ListingID     uint    `gorm:"not null;index" json:"listing_id"`
	Listing       Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BuyerID       uint    `gorm:"not null;index" json:"buyer_id"`
	Buyer         User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID      uint    `gorm:"not null;index" json:"seller_id"`
	Seller        User    `gorm:"foreignKey:SellerID" json:"seller,omitempty"`

	SaleAmount              float64 `gorm:"type:decimal(12,2);not null" json:"sale_amount"`
	BuyerPremiumPercent     float64 `gorm:"type:decimal(5,2);not null" json:"buyer_premium_percent"`
	BuyerPremiumAmount      float64 `gorm:"type:decimal(12,2);not null" json:"buyer_premium_amount"`
	SellerCommissionPercent float64 `gorm:"type:decimal(5,2);not null" json:"seller_commission_percent"`
	SellerCommissionAmount  float64 `gorm:"type:decimal(12,2);not null" json:"seller_commission_amount"`
	TotalAmount             float64 `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	SellerPayoutAmount      float64 `gorm:"type:decimal(12,2);not null" json:"seller_payout_amount"`

	Status            string `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	FulfillmentStatus string `gorm:"type:varchar(30);default:'awaiting_payment'" json:"fulfillment_status"`

	PaymentDueDate *time.Time `gorm:"type:timestamp;default:null" json:"payment_due_date"`
	PaidAt         *time.Time `gorm:"type:timestamp;default:null" json:"paid_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsTerminal reports whether the invoice can no longer change status.
func (i *Invoice) IsTerminal() bool {
	switch i.Status {
	case InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusRefunded:
		return true
	default:
		return false
	}
}
