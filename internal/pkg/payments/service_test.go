package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/notify"
)

type fakePaymentRepo struct {
	invoices  map[uint]*models.Invoice
	processed map[string]bool
	notified  map[string]bool

	markCalls     int
	markDenied    bool
	payments      []*models.Payment
	recordedIDs   []string
	dedupeQueries int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		invoices:  map[uint]*models.Invoice{},
		processed: map[string]bool{},
		notified:  map[string]bool{},
	}
}

func (f *fakePaymentRepo) EventProcessed(eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakePaymentRepo) GetInvoice(id uint) (*models.Invoice, error) {
	if inv, ok := f.invoices[id]; ok {
		return inv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) MarkInvoicePaidIfPending(invoiceID uint, paidAt time.Time) (bool, error) {
	f.markCalls++
	if f.markDenied {
		return false, nil
	}
	inv := f.invoices[invoiceID]
	if inv.Status != models.InvoiceStatusPending {
		return false, nil
	}
	inv.Status = models.InvoiceStatusPaid
	inv.FulfillmentStatus = models.FulfillmentPreparing
	inv.PaidAt = &paidAt
	return true, nil
}

func (f *fakePaymentRepo) CreatePayment(payment *models.Payment) error {
	payment.ID = uint(len(f.payments)) + 1
	f.payments = append(f.payments, payment)
	return nil
}

func (f *fakePaymentRepo) RecordProcessedEvent(eventID, _ string, _ time.Time) error {
	f.processed[eventID] = true
	f.recordedIDs = append(f.recordedIDs, eventID)
	return nil
}

func (f *fakePaymentRepo) NotificationExists(userID uint, notificationType string, _ uint) (bool, error) {
	f.dedupeQueries++
	return f.notified[notificationType], nil
}

type recordingDispatcher struct {
	intents []notify.Intent
}

func (r *recordingDispatcher) Dispatch(_ context.Context, intents []notify.Intent) {
	r.intents = append(r.intents, intents...)
}

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestService(repo *fakePaymentRepo) (*Service, *recordingDispatcher) {
	recorder := &recordingDispatcher{}
	svc := NewService(repo, recorder)
	svc.now = func() time.Time { return testNow }
	return svc, recorder
}

func pendingInvoice() *models.Invoice {
	return &models.Invoice{
		ID:                 77,
		InvoiceNumber:      "INV-20260831-A4F1",
		BuyerID:            20,
		SellerID:           10,
		SaleAmount:         1000,
		TotalAmount:        1080,
		SellerPayoutAmount: 920,
		Status:             models.InvoiceStatusPending,
		FulfillmentStatus:  models.FulfillmentAwaitingPayment,
	}
}

func succeededEvent() Event {
	return Event{
		ID:        "evt_001",
		Type:      EventPaymentSucceeded,
		InvoiceID: 77,
		Amount:    1080,
		Currency:  "USD",
		Method:    "wire_transfer",
		Provider:  "stripe",
	}
}

func TestProcessEvent_HappyPath(t *testing.T) {
	repo := newFakePaymentRepo()
	repo.invoices[77] = pendingInvoice()
	svc, recorder := newTestService(repo)

	result, err := svc.ProcessEvent(context.Background(), succeededEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Skipped {
		t.Fatalf("expected event handled, got skipped (%s)", result.Reason)
	}
	if result.InvoiceID != 77 {
		t.Fatalf("expected invoice 77, got %d", result.InvoiceID)
	}

	inv := repo.invoices[77]
	if inv.Status != models.InvoiceStatusPaid {
		t.Fatalf("expected invoice paid, got %q", inv.Status)
	}
	if inv.FulfillmentStatus != models.FulfillmentPreparing {
		t.Fatalf("expected preparing, got %q", inv.FulfillmentStatus)
	}
	if inv.PaidAt == nil || !inv.PaidAt.Equal(testNow) {
		t.Fatalf("expected paid_at %v, got %v", testNow, inv.PaidAt)
	}

	if len(repo.payments) != 1 {
		t.Fatalf("expected one payment row, got %d", len(repo.payments))
	}
	payment := repo.payments[0]
	if payment.ProviderEventID != "evt_001" || payment.Amount != 1080 {
		t.Fatalf("unexpected payment row: %+v", payment)
	}

	if len(repo.recordedIDs) != 1 || repo.recordedIDs[0] != "evt_001" {
		t.Fatalf("expected event recorded once, got %v", repo.recordedIDs)
	}

	if len(recorder.intents) != 2 {
		t.Fatalf("expected both parties notified, got %d", len(recorder.intents))
	}
	if recorder.intents[0].Type != models.NotificationTypePaymentReceived || recorder.intents[0].UserID != 10 {
		t.Fatalf("expected seller payment_received first, got %+v", recorder.intents[0])
	}
	if recorder.intents[1].Type != models.NotificationTypePaymentConfirmed || recorder.intents[1].UserID != 20 {
		t.Fatalf("expected buyer payment_confirmed second, got %+v", recorder.intents[1])
	}
}

func TestProcessEvent_ReplayShortCircuits(t *testing.T) {
	repo := newFakePaymentRepo()
	repo.invoices[77] = pendingInvoice()
	repo.processed["evt_001"] = true
	svc, recorder := newTestService(repo)

	result, err := svc.ProcessEvent(context.Background(), succeededEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Skipped || result.Reason != "event already processed" {
		t.Fatalf("expected ledger short-circuit, got %+v", result)
	}
	if repo.markCalls != 0 || len(repo.payments) != 0 {
		t.Fatalf("replay must not touch the invoice or payments")
	}
	if len(recorder.intents) != 0 {
		t.Fatalf("replay must not notify, got %+v", recorder.intents)
	}
}

func TestProcessEvent_UnhandledType(t *testing.T) {
	repo := newFakePaymentRepo()
	svc, _ := newTestService(repo)

	event := succeededEvent()
	event.Type = "payment.refunded"

	result, err := svc.ProcessEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Skipped || !strings.Contains(result.Reason, "payment.refunded") {
		t.Fatalf("expected unhandled-type skip, got %+v", result)
	}
	if repo.markCalls != 0 {
		t.Fatalf("unhandled type must not touch the invoice")
	}
}

func TestProcessEvent_InvoiceAlreadyPaid(t *testing.T) {
	inv := pendingInvoice()
	inv.Status = models.InvoiceStatusPaid
	repo := newFakePaymentRepo()
	repo.invoices[77] = inv
	svc, recorder := newTestService(repo)

	// Same payment, different event id: layer one misses, layer two
	// catches it at the conditional flip.
	event := succeededEvent()
	event.ID = "evt_002"

	result, err := svc.ProcessEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Skipped || !strings.Contains(result.Reason, "paid") {
		t.Fatalf("expected already-paid skip, got %+v", result)
	}
	if len(repo.payments) != 0 {
		t.Fatalf("no payment row expected for a lost flip")
	}
	// The event is still recorded so the next replay of evt_002 stops
	// at the ledger.
	if !repo.processed["evt_002"] {
		t.Fatalf("expected lost-flip event to be recorded")
	}
	if len(recorder.intents) != 0 {
		t.Fatalf("no notifications expected for a lost flip")
	}
}

func TestProcessEvent_InvoiceNotFound(t *testing.T) {
	repo := newFakePaymentRepo()
	svc, _ := newTestService(repo)

	if _, err := svc.ProcessEvent(context.Background(), succeededEvent()); err == nil {
		t.Fatalf("expected error for missing invoice")
	}
	if repo.processed["evt_001"] {
		t.Fatalf("failed handling must stay retryable, event must not be recorded")
	}
}

func TestProcessEvent_NotificationDedupe(t *testing.T) {
	repo := newFakePaymentRepo()
	repo.invoices[77] = pendingInvoice()
	repo.notified[models.NotificationTypePaymentReceived] = true
	svc, recorder := newTestService(repo)

	if _, err := svc.ProcessEvent(context.Background(), succeededEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorder.intents) != 1 {
		t.Fatalf("expected only the buyer notified, got %d", len(recorder.intents))
	}
	if recorder.intents[0].Type != models.NotificationTypePaymentConfirmed {
		t.Fatalf("expected buyer payment_confirmed, got %+v", recorder.intents[0])
	}
	if repo.dedupeQueries != 2 {
		t.Fatalf("expected a dedupe check per party, got %d", repo.dedupeQueries)
	}
}

func TestProcessEvent_ZeroAmountFallsBackToInvoiceTotal(t *testing.T) {
	repo := newFakePaymentRepo()
	repo.invoices[77] = pendingInvoice()
	svc, _ := newTestService(repo)

	event := succeededEvent()
	event.Amount = 0
	event.Currency = ""

	if _, err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payment := repo.payments[0]
	if payment.Amount != 1080 {
		t.Fatalf("expected payment amount from invoice total, got %v", payment.Amount)
	}
	if payment.Currency != "USD" {
		t.Fatalf("expected default currency USD, got %q", payment.Currency)
	}
}
