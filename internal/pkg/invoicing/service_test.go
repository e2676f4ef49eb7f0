package invoicing

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/commission"
)

type staticSellerSource struct {
	overrides *commission.SellerOverrides
}

func (s *staticSellerSource) SellerOverrides(uint) (*commission.SellerOverrides, error) {
	return s.overrides, nil
}

func newTestService(overrides *commission.SellerOverrides) *Service {
	resolver := commission.NewResolver(&staticSellerSource{overrides: overrides}, func() commission.CommissionRates {
		return commission.CommissionRates{BuyerPremiumPercent: 8, SellerCommissionPercent: 8}
	})
	return NewService(resolver)
}

func TestBuildForSale_DefaultRates(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	invoice, fees, err := svc.BuildForSale(SaleInput{
		ListingID:      10,
		BuyerID:        2,
		SellerID:       3,
		SaleAmount:     1000,
		PaymentDueDays: 5,
		Now:            now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if invoice.SaleAmount != 1000 {
		t.Fatalf("expected sale amount 1000, got %v", invoice.SaleAmount)
	}
	if invoice.BuyerPremiumAmount != 80 || invoice.SellerCommissionAmount != 80 {
		t.Fatalf("expected fee amounts 80/80, got %v/%v", invoice.BuyerPremiumAmount, invoice.SellerCommissionAmount)
	}
	if invoice.TotalAmount != 1080 || invoice.SellerPayoutAmount != 920 {
		t.Fatalf("expected total 1080 payout 920, got %v/%v", invoice.TotalAmount, invoice.SellerPayoutAmount)
	}
	if invoice.BuyerPremiumPercent != 8 || invoice.SellerCommissionPercent != 8 {
		t.Fatalf("expected rate snapshot 8/8, got %v/%v", invoice.BuyerPremiumPercent, invoice.SellerCommissionPercent)
	}
	if invoice.Status != models.InvoiceStatusPending {
		t.Fatalf("expected pending status, got %q", invoice.Status)
	}
	if invoice.FulfillmentStatus != models.FulfillmentAwaitingPayment {
		t.Fatalf("expected awaiting_payment, got %q", invoice.FulfillmentStatus)
	}
	if !IsValidNumber(invoice.InvoiceNumber) {
		t.Fatalf("invalid invoice number %q", invoice.InvoiceNumber)
	}

	wantDue := now.AddDate(0, 0, 5)
	if invoice.PaymentDueDate == nil || !invoice.PaymentDueDate.Equal(wantDue) {
		t.Fatalf("expected due date %v, got %v", wantDue, invoice.PaymentDueDate)
	}

	if fees.PlatformEarnings != 160 {
		t.Fatalf("expected platform earnings 160, got %v", fees.PlatformEarnings)
	}
}

func TestBuildForSale_CustomSellerRates(t *testing.T) {
	t.Parallel()

	svc := newTestService(&commission.SellerOverrides{
		SellerCommissionPercent: fptr(5),
	})

	invoice, _, err := svc.BuildForSale(SaleInput{SellerID: 3, SaleAmount: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invoice.BuyerPremiumPercent != 8 {
		t.Fatalf("expected default buyer premium 8, got %v", invoice.BuyerPremiumPercent)
	}
	if invoice.SellerCommissionPercent != 5 {
		t.Fatalf("expected custom seller commission 5, got %v", invoice.SellerCommissionPercent)
	}
	if invoice.SellerPayoutAmount != 190 {
		t.Fatalf("expected payout 190, got %v", invoice.SellerPayoutAmount)
	}
}

func TestBuildForSale_DefaultDueDays(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	invoice, _, err := svc.BuildForSale(SaleInput{SaleAmount: 100, Now: now})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDue := now.AddDate(0, 0, DefaultPaymentDueDays)
	if invoice.PaymentDueDate == nil || !invoice.PaymentDueDate.Equal(wantDue) {
		t.Fatalf("expected default due date %v, got %v", wantDue, invoice.PaymentDueDate)
	}
}

func TestBuildForSale_NegativeAmount(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	if _, _, err := svc.BuildForSale(SaleInput{SaleAmount: -5}); err == nil {
		t.Fatalf("expected error for negative sale amount")
	}
}

func TestWithFreshNumber(t *testing.T) {
	t.Parallel()

	invoice := &models.Invoice{InvoiceNumber: GenerateNumber()}
	old := invoice.InvoiceNumber
	WithFreshNumber(invoice)
	if invoice.InvoiceNumber == old {
		t.Fatalf("expected a fresh number, got the same %q", old)
	}
	if !IsValidNumber(invoice.InvoiceNumber) {
		t.Fatalf("fresh number %q invalid", invoice.InvoiceNumber)
	}
}

func TestIsNumberCollision(t *testing.T) {
	t.Parallel()

	if !IsNumberCollision(gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm duplicate key to be a collision")
	}
	if !IsNumberCollision(errors.New("Error 1062 (23000): Duplicate entry 'INV-20260831-A4F1' for key 'uq_invoices_number'")) {
		t.Fatalf("expected mysql duplicate entry to be a collision")
	}
	if IsNumberCollision(errors.New("connection refused")) {
		t.Fatalf("unexpected collision for unrelated error")
	}
	if IsNumberCollision(nil) {
		t.Fatalf("unexpected collision for nil error")
	}
}

func fptr(v float64) *float64 { return &v }
