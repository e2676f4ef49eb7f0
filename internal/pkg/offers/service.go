package offers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/apperr"
	"github.com/pressbid/PressBid/internal/pkg/invoicing"
	"github.com/pressbid/PressBid/internal/pkg/notify"
)

// Response actions accepted by Respond.
const (
	ActionAccept   = "accept"
	ActionDecline  = "decline"
	ActionCounter  = "counter"
	ActionWithdraw = "withdraw"
)

// SubmitInput describes a new original offer from a buyer.
type SubmitInput struct {
	ListingID uint
	BuyerID   uint
	Amount    float64
	Message   string
}

// SubmitResult reports the created offer; Invoice is set when the
// auto-accept threshold converted the offer into an immediate sale.
type SubmitResult struct {
	Offer        *models.Offer
	Invoice      *models.Invoice
	AutoAccepted bool
}

// RespondInput describes an action on a pending offer.
type RespondInput struct {
	OfferID        uint
	ActorID        uint
	Action         string
	CounterAmount  float64
	CounterMessage string
}

// RespondResult reports the applied action. Invoice is set on accept;
// CounterOffer on counter.
type RespondResult struct {
	Action       string
	Offer        *models.Offer
	Invoice      *models.Invoice
	CounterOffer *models.Offer
}

// Service implements the offer / counter-offer state machine. A record
// moves pending -> accepted|declined|countered|expired|withdrawn, all
// terminal; countered spawns a new pending record linked via
// parent_offer_id. Only the party who did not author a pending record
// may accept, decline or counter it; the author may only withdraw.
type Service struct {
	repo     Repository
	invoices *invoicing.Service
	notifier notify.Dispatcher
	now      func() time.Time
}

// NewService creates an offer service from its collaborators.
func NewService(repo Repository, invoices *invoicing.Service, notifier notify.Dispatcher) *Service {
	return &Service{repo: repo, invoices: invoices, notifier: notifier, now: time.Now}
}

// NewServiceFromDB creates an offer service backed by GORM.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), invoicing.NewServiceFromDB(db), notify.NewDispatcher(db))
}

// Submit validates and creates a new original offer on a listing,
// applying the seller's auto-accept/auto-decline thresholds.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if !models.GetAppSettings().OffersEnabled {
		return nil, apperr.Validationf("offers are currently disabled")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validationf("offer amount must be greater than zero")
	}

	listing, err := s.repo.GetListing(in.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("listing %d", in.ListingID)
		}
		return nil, err
	}
	if listing.Status != models.ListingStatusActive || !listing.AcceptsOffers() {
		return nil, apperr.Validationf("listing is not accepting offers")
	}
	if in.BuyerID == listing.SellerID {
		return nil, apperr.Validationf("you cannot make an offer on your own listing")
	}

	count, err := s.repo.CountOriginalOffers(in.ListingID, in.BuyerID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxOriginalOffersPerBuyer {
		return nil, apperr.Validationf("you have reached the maximum of %d offers on this listing", models.MaxOriginalOffersPerBuyer)
	}

	hasPending, err := s.repo.HasOtherPendingOffer(in.ListingID, in.BuyerID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, apperr.Validationf("you already have a pending offer on this listing")
	}

	// Auto-decline is a pre-check: no offer row is created.
	if listing.AutoDeclinePrice != nil && in.Amount < *listing.AutoDeclinePrice {
		log.Infof("offer of %.2f on listing %d auto-declined below threshold", in.Amount, listing.ID)
		return nil, apperr.Validationf("offer is below the seller's minimum")
	}

	now := s.now()

	if listing.AutoAcceptPrice != nil && in.Amount >= *listing.AutoAcceptPrice {
		return s.submitAutoAccepted(ctx, listing, in, now)
	}

	expiresAt := now.Add(models.OfferValidity)
	offer := &models.Offer{
		ListingID: in.ListingID,
		BuyerID:   in.BuyerID,
		SellerID:  listing.SellerID,
		Amount:    in.Amount,
		Message:   in.Message,
		Status:    models.OfferStatusPending,
		ExpiresAt: &expiresAt,
	}
	if err := s.repo.CreateOffer(offer); err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, []notify.Intent{{
		UserID:       listing.SellerID,
		Type:         models.NotificationTypeOfferReceived,
		Content:      fmt.Sprintf("New offer of %.2f on %q.", in.Amount, listing.Title),
		ReferenceID:  offer.ID,
		EmailSubject: fmt.Sprintf("New offer on %s", listing.Title),
		EmailBody:    fmt.Sprintf("A buyer offered %.2f for %q. The offer expires in 48 hours.", in.Amount, listing.Title),
	}})

	return &SubmitResult{Offer: offer}, nil
}

// submitAutoAccepted creates the offer directly in accepted state and
// runs the full invoicing path synchronously within the same request.
func (s *Service) submitAutoAccepted(ctx context.Context, listing *models.Listing, in SubmitInput, now time.Time) (*SubmitResult, error) {
	offer := &models.Offer{
		ListingID: in.ListingID,
		BuyerID:   in.BuyerID,
		SellerID:  listing.SellerID,
		Amount:    in.Amount,
		Message:   in.Message,
		Status:    models.OfferStatusAccepted,
	}

	invoice, err := s.buildInvoice(listing, in.BuyerID, in.Amount, now)
	if err != nil {
		return nil, err
	}

	claimed, err := s.runSale(func() (bool, error) {
		return s.repo.CreateAcceptedOffer(offer, invoice)
	}, invoice)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperr.Validationf("listing is no longer available")
	}

	s.notifySale(ctx, listing, offer, invoice)
	return &SubmitResult{Offer: offer, Invoice: invoice, AutoAccepted: true}, nil
}

// Respond applies an accept/decline/counter/withdraw action to a
// pending offer on behalf of the acting user.
func (s *Service) Respond(ctx context.Context, in RespondInput) (*RespondResult, error) {
	offer, err := s.repo.GetOffer(in.OfferID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("offer %d", in.OfferID)
		}
		return nil, err
	}

	if !offer.IsParty(in.ActorID) {
		return nil, apperr.Forbiddenf("you are not a party to this offer")
	}
	if offer.Status != models.OfferStatusPending {
		return nil, apperr.Validationf("offer already %s", offer.Status)
	}

	now := s.now()
	if offer.IsExpired(now) {
		// Lazy expiry: the stale pending record is rewritten on the
		// first action that observes the passed timestamp.
		if _, err := s.repo.UpdateStatusIfPending(offer.ID, models.OfferStatusExpired); err != nil {
			log.Errorf("failed to expire offer %d: %v", offer.ID, err)
		}
		return nil, apperr.Validationf("offer has expired")
	}

	if in.Action == ActionWithdraw {
		return s.withdraw(ctx, offer, in.ActorID)
	}

	if in.ActorID == offer.AuthorID() {
		return nil, apperr.Validationf("you cannot %s your own %s", in.Action, offerKind(offer))
	}

	switch in.Action {
	case ActionAccept:
		return s.accept(ctx, offer, now)
	case ActionDecline:
		return s.decline(ctx, offer)
	case ActionCounter:
		return s.counter(ctx, offer, in, now)
	default:
		return nil, apperr.Validationf("unknown action %q", in.Action)
	}
}

func (s *Service) accept(ctx context.Context, offer *models.Offer, now time.Time) (*RespondResult, error) {
	listing, err := s.repo.GetListing(offer.ListingID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.buildInvoice(listing, offer.BuyerID, offer.Amount, now)
	if err != nil {
		return nil, err
	}

	claimed, err := s.runSale(func() (bool, error) {
		return s.repo.AcceptPendingOffer(offer, invoice)
	}, invoice)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperr.Validationf("offer is no longer pending")
	}
	offer.Status = models.OfferStatusAccepted

	s.notifySale(ctx, listing, offer, invoice)
	return &RespondResult{Action: ActionAccept, Offer: offer, Invoice: invoice}, nil
}

func (s *Service) decline(ctx context.Context, offer *models.Offer) (*RespondResult, error) {
	claimed, err := s.repo.UpdateStatusIfPending(offer.ID, models.OfferStatusDeclined)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperr.Validationf("offer is no longer pending")
	}
	offer.Status = models.OfferStatusDeclined

	s.notifier.Dispatch(ctx, []notify.Intent{{
		UserID:      offer.AuthorID(),
		Type:        models.NotificationTypeOfferDeclined,
		Content:     fmt.Sprintf("Your %s of %.2f was declined.", offerKind(offer), offer.Amount),
		ReferenceID: offer.ID,
	}})

	return &RespondResult{Action: ActionDecline, Offer: offer}, nil
}

func (s *Service) counter(ctx context.Context, offer *models.Offer, in RespondInput, now time.Time) (*RespondResult, error) {
	if in.CounterAmount <= 0 {
		return nil, apperr.Validationf("counter amount must be greater than zero")
	}
	if in.CounterAmount == offer.Amount {
		return nil, apperr.Validationf("counter amount must differ from the current offer")
	}
	if offer.CounterCount >= models.MaxCounterOffers {
		return nil, apperr.Validationf("this negotiation has reached the maximum of %d counters", models.MaxCounterOffers)
	}

	expiresAt := now.Add(models.OfferValidity)
	counter := &models.Offer{
		ListingID:     offer.ListingID,
		BuyerID:       offer.BuyerID,
		SellerID:      offer.SellerID,
		Amount:        in.CounterAmount,
		Message:       in.CounterMessage,
		Status:        models.OfferStatusPending,
		ParentOfferID: &offer.ID,
		CounterCount:  offer.CounterCount + 1,
		ExpiresAt:     &expiresAt,
	}

	claimed, err := s.repo.CreateCounterOffer(offer.ID, counter)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperr.Validationf("offer is no longer pending")
	}
	offer.Status = models.OfferStatusCountered

	// The new record's recipient is the other party; authorship
	// flipped via counter parity.
	s.notifier.Dispatch(ctx, []notify.Intent{{
		UserID:       counter.RecipientID(),
		Type:         models.NotificationTypeOfferCountered,
		Content:      fmt.Sprintf("Counter-offer of %.2f received.", counter.Amount),
		ReferenceID:  counter.ID,
		EmailSubject: "You received a counter-offer",
		EmailBody:    fmt.Sprintf("The other party countered with %.2f. The counter expires in 48 hours.", counter.Amount),
	}})

	return &RespondResult{Action: ActionCounter, Offer: offer, CounterOffer: counter}, nil
}

func (s *Service) withdraw(ctx context.Context, offer *models.Offer, actorID uint) (*RespondResult, error) {
	if actorID != offer.AuthorID() {
		return nil, apperr.Validationf("only the author may withdraw an offer")
	}

	claimed, err := s.repo.UpdateStatusIfPending(offer.ID, models.OfferStatusWithdrawn)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperr.Validationf("offer is no longer pending")
	}
	offer.Status = models.OfferStatusWithdrawn

	s.notifier.Dispatch(ctx, []notify.Intent{{
		UserID:      offer.RecipientID(),
		Type:        models.NotificationTypeOfferWithdrawn,
		Content:     fmt.Sprintf("The %s of %.2f was withdrawn.", offerKind(offer), offer.Amount),
		ReferenceID: offer.ID,
	}})

	return &RespondResult{Action: ActionWithdraw, Offer: offer}, nil
}

func (s *Service) buildInvoice(listing *models.Listing, buyerID uint, amount float64, now time.Time) (*models.Invoice, error) {
	invoice, _, err := s.invoices.BuildForSale(invoicing.SaleInput{
		ListingID:      listing.ID,
		BuyerID:        buyerID,
		SellerID:       listing.SellerID,
		SaleAmount:     amount,
		PaymentDueDays: listing.PaymentDueDays,
		Now:            now,
	})
	return invoice, err
}

// runSale executes a sale transaction, regenerating the invoice number
// on a uniqueness collision with a bounded retry.
func (s *Service) runSale(attempt func() (bool, error), invoice *models.Invoice) (bool, error) {
	for try := 0; ; try++ {
		claimed, err := attempt()
		if err == nil {
			return claimed, nil
		}
		if invoicing.IsNumberCollision(err) && try < invoicing.MaxNumberRetries {
			invoicing.WithFreshNumber(invoice)
			continue
		}
		return false, err
	}
}

func (s *Service) notifySale(ctx context.Context, listing *models.Listing, offer *models.Offer, invoice *models.Invoice) {
	dueDate := ""
	if invoice.PaymentDueDate != nil {
		dueDate = invoice.PaymentDueDate.Format("2006-01-02")
	}
	s.notifier.Dispatch(ctx, []notify.Intent{
		{
			UserID:       offer.BuyerID,
			Type:         models.NotificationTypeOfferAccepted,
			Content:      fmt.Sprintf("Your offer of %.2f on %q was accepted. Amount due: %.2f by %s.", offer.Amount, listing.Title, invoice.TotalAmount, dueDate),
			ReferenceID:  invoice.ID,
			EmailSubject: fmt.Sprintf("Offer accepted for %s", listing.Title),
			EmailBody: fmt.Sprintf("Your offer of %.2f was accepted. Invoice %s for %.2f is due by %s.",
				offer.Amount, invoice.InvoiceNumber, invoice.TotalAmount, dueDate),
		},
		{
			UserID:       offer.SellerID,
			Type:         models.NotificationTypeOfferAccepted,
			Content:      fmt.Sprintf("Offer of %.2f on %q accepted. Your payout: %.2f.", offer.Amount, listing.Title, invoice.SellerPayoutAmount),
			ReferenceID:  invoice.ID,
			EmailSubject: fmt.Sprintf("Sale agreed for %s", listing.Title),
			EmailBody: fmt.Sprintf("The offer of %.2f was accepted. After commission your payout is %.2f.",
				offer.Amount, invoice.SellerPayoutAmount),
		},
	})
}

func offerKind(offer *models.Offer) string {
	if offer.CounterCount > 0 {
		return "counter-offer"
	}
	return "offer"
}
