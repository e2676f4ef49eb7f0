package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/apperr"
	"github.com/pressbid/PressBid/internal/pkg/notify"
)

// Service processes payment provider webhooks. Replays are absorbed by
// three independent layers: the processed-event ledger short-circuits
// known event ids, the invoice flip is conditional on status pending,
// and notifications are deduplicated per (user, type, reference).
type Service struct {
	repo     Repository
	notifier notify.Dispatcher
	now      func() time.Time
}

// NewService creates a payment service from its collaborators.
func NewService(repo Repository, notifier notify.Dispatcher) *Service {
	return &Service{repo: repo, notifier: notifier, now: time.Now}
}

// NewServiceFromDB creates a payment service backed by GORM.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), notify.NewDispatcher(db))
}

// ProcessEvent handles one verified webhook event. Safe to call any
// number of times with the same event.
func (s *Service) ProcessEvent(ctx context.Context, event Event) (*Result, error) {
	result := &Result{EventID: event.ID}

	processed, err := s.repo.EventProcessed(event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event ledger: %w", err)
	}
	if processed {
		result.Skipped = true
		result.Reason = "event already processed"
		return result, nil
	}

	if event.Type != EventPaymentSucceeded {
		log.Infof("ignoring webhook event %s of unhandled type %s", event.ID, event.Type)
		result.Skipped = true
		result.Reason = fmt.Sprintf("unhandled event type %s", event.Type)
		return result, nil
	}

	invoice, err := s.repo.GetInvoice(event.InvoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("invoice %d", event.InvoiceID)
		}
		return nil, fmt.Errorf("failed to load invoice %d: %w", event.InvoiceID, err)
	}
	result.InvoiceID = invoice.ID

	if event.Amount != 0 && event.Amount != invoice.TotalAmount {
		log.Warnf("webhook event %s amount %.2f differs from invoice %s total %.2f",
			event.ID, event.Amount, invoice.InvoiceNumber, invoice.TotalAmount)
	}

	now := s.now()
	claimed, err := s.repo.MarkInvoicePaidIfPending(invoice.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invoice %d paid: %w", invoice.ID, err)
	}
	if !claimed {
		// A replay with a new event id, or a concurrent delivery won
		// the flip. Record the event so later replays short-circuit.
		if err := s.repo.RecordProcessedEvent(event.ID, event.Type, now); err != nil {
			log.Errorf("failed to record skipped event %s: %v", event.ID, err)
		}
		result.Skipped = true
		result.Reason = fmt.Sprintf("invoice already %s", invoice.Status)
		return result, nil
	}

	payment := &models.Payment{
		InvoiceID:       invoice.ID,
		Provider:        event.Provider,
		ProviderEventID: event.ID,
		Amount:          invoice.TotalAmount,
		Currency:        event.Currency,
		Method:          event.Method,
	}
	if event.Amount != 0 {
		payment.Amount = event.Amount
	}
	if payment.Currency == "" {
		payment.Currency = "USD"
	}
	if err := s.repo.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("failed to record payment for invoice %d: %w", invoice.ID, err)
	}

	// Recorded only after the handling above succeeded, so a failed
	// attempt stays retryable from the provider's side.
	if err := s.repo.RecordProcessedEvent(event.ID, event.Type, now); err != nil {
		return nil, fmt.Errorf("failed to record event %s: %w", event.ID, err)
	}

	s.dispatchPaidNotifications(ctx, invoice)
	return result, nil
}

// dispatchPaidNotifications notifies both parties, skipping anyone who
// already holds the matching notification for this invoice.
func (s *Service) dispatchPaidNotifications(ctx context.Context, invoice *models.Invoice) {
	intents := make([]notify.Intent, 0, 2)

	sellerHas, err := s.repo.NotificationExists(invoice.SellerID, models.NotificationTypePaymentReceived, invoice.ID)
	if err != nil {
		log.Errorf("notification dedupe check failed for invoice %d: %v", invoice.ID, err)
	}
	if !sellerHas {
		intents = append(intents, notify.Intent{
			UserID:       invoice.SellerID,
			Type:         models.NotificationTypePaymentReceived,
			Content:      fmt.Sprintf("Payment received for invoice %s. Your payout: %.2f.", invoice.InvoiceNumber, invoice.SellerPayoutAmount),
			ReferenceID:  invoice.ID,
			Dedupe:       true,
			EmailSubject: fmt.Sprintf("Payment received for invoice %s", invoice.InvoiceNumber),
			EmailBody: fmt.Sprintf("The buyer has paid invoice %s. After commission your payout is %.2f. Please prepare the equipment for shipment.",
				invoice.InvoiceNumber, invoice.SellerPayoutAmount),
		})
	}

	buyerHas, err := s.repo.NotificationExists(invoice.BuyerID, models.NotificationTypePaymentConfirmed, invoice.ID)
	if err != nil {
		log.Errorf("notification dedupe check failed for invoice %d: %v", invoice.ID, err)
	}
	if !buyerHas {
		intents = append(intents, notify.Intent{
			UserID:       invoice.BuyerID,
			Type:         models.NotificationTypePaymentConfirmed,
			Content:      fmt.Sprintf("Your payment of %.2f for invoice %s is confirmed.", invoice.TotalAmount, invoice.InvoiceNumber),
			ReferenceID:  invoice.ID,
			Dedupe:       true,
			EmailSubject: fmt.Sprintf("Payment confirmed for invoice %s", invoice.InvoiceNumber),
			EmailBody: fmt.Sprintf("We received your payment of %.2f for invoice %s. The seller has been asked to prepare shipment.",
				invoice.TotalAmount, invoice.InvoiceNumber),
		})
	}

	if len(intents) > 0 {
		s.notifier.Dispatch(ctx, intents)
	}
}
