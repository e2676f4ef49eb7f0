package invoicing

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/commission"
)

// MaxNumberRetries bounds how often a sale insert is retried with a
// fresh invoice number after a uniqueness collision.
const MaxNumberRetries = 3

// DefaultPaymentDueDays applies when a listing carries no payment term.
const DefaultPaymentDueDays = 7

// SaleInput describes one settled sale to invoice.
type SaleInput struct {
	ListingID      uint
	BuyerID        uint
	SellerID       uint
	SaleAmount     float64
	PaymentDueDays int
	Now            time.Time
}

// Service builds invoices for settled sales: resolves the seller's
// rate snapshot, computes the fee split, and rounds at the persistence
// boundary. Persistence itself happens inside the caller's settlement
// or acceptance transaction.
type Service struct {
	rates *commission.Resolver
}

// NewService creates an invoicing service from a rate resolver.
func NewService(rates *commission.Resolver) *Service {
	return &Service{rates: rates}
}

// NewServiceFromDB creates an invoicing service backed by GORM.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(commission.NewResolverFromDB(db))
}

// BuildForSale resolves rates and computes the invoice row for a sale.
// The returned invoice has status pending and a freshly generated
// number; the caller inserts it and retries via WithFreshNumber on a
// uniqueness collision.
func (s *Service) BuildForSale(in SaleInput) (*models.Invoice, commission.FeeBreakdown, error) {
	rates, err := s.rates.ResolveForSeller(in.SellerID)
	if err != nil {
		return nil, commission.FeeBreakdown{}, err
	}

	fees, err := commission.CalculateFees(in.SaleAmount, rates)
	if err != nil {
		return nil, commission.FeeBreakdown{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	dueDays := in.PaymentDueDays
	if dueDays <= 0 {
		dueDays = DefaultPaymentDueDays
	}
	dueDate := now.AddDate(0, 0, dueDays)

	invoice := &models.Invoice{
		InvoiceNumber:           GenerateNumber(),
		ListingID:               in.ListingID,
		BuyerID:                 in.BuyerID,
		SellerID:                in.SellerID,
		SaleAmount:              commission.Round2(in.SaleAmount),
		BuyerPremiumPercent:     rates.BuyerPremiumPercent,
		BuyerPremiumAmount:      commission.Round2(fees.BuyerPremiumAmount),
		SellerCommissionPercent: rates.SellerCommissionPercent,
		SellerCommissionAmount:  commission.Round2(fees.SellerCommissionAmount),
		TotalAmount:             commission.Round2(fees.TotalBuyerPays),
		SellerPayoutAmount:      commission.Round2(fees.SellerPayoutAmount),
		Status:                  models.InvoiceStatusPending,
		FulfillmentStatus:       models.FulfillmentAwaitingPayment,
		PaymentDueDate:          &dueDate,
	}
	return invoice, fees, nil
}

// WithFreshNumber replaces the invoice number ahead of a retry after a
// uniqueness collision.
func WithFreshNumber(invoice *models.Invoice) {
	invoice.InvoiceNumber = GenerateNumber()
}

// IsNumberCollision reports whether the insert error is the storage
// layer rejecting a duplicate invoice number.
func IsNumberCollision(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL driver errors are not always translated by GORM.
	return strings.Contains(err.Error(), "Duplicate entry")
}
