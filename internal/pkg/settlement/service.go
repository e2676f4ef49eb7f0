package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/invoicing"
	"github.com/pressbid/PressBid/internal/pkg/notify"
)

// Service settles expired auctions. Each listing is processed
// independently: a failure on one is recorded in its result and never
// aborts the rest of the batch.
type Service struct {
	repo     Repository
	invoices *invoicing.Service
	notifier notify.Dispatcher
	now      func() time.Time
}

// NewService creates a settlement service from its collaborators.
func NewService(repo Repository, invoices *invoicing.Service, notifier notify.Dispatcher) *Service {
	return &Service{repo: repo, invoices: invoices, notifier: notifier, now: time.Now}
}

// NewServiceFromDB creates a settlement service backed by GORM.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), invoicing.NewServiceFromDB(db), notify.NewDispatcher(db))
}

// ProcessExpiredAuctions runs one settlement batch over every active
// auction listing whose end time has passed.
func (s *Service) ProcessExpiredAuctions(ctx context.Context) (BatchResult, error) {
	now := s.now()

	listings, err := s.repo.FindExpiredActiveAuctions(now)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to scan expired auctions: %w", err)
	}

	batch := BatchResult{Results: make([]Result, 0, len(listings))}
	for i := range listings {
		result := s.settleOne(ctx, &listings[i], now)
		if result.Status == OutcomeError {
			log.Errorf("settlement of listing %d failed: %s", result.ListingID, result.Error)
		}
		batch.Results = append(batch.Results, result)
		batch.Processed++
	}
	return batch, nil
}

func (s *Service) settleOne(ctx context.Context, listing *models.Listing, now time.Time) Result {
	result := Result{ListingID: listing.ID}

	bid, err := s.repo.HighestBid(listing.ID)
	if err != nil {
		result.Status = OutcomeError
		result.Error = fmt.Sprintf("bid lookup failed: %v", err)
		return result
	}

	if bid != nil && listing.ReserveMet(bid.Amount) {
		return s.settleSold(ctx, listing, bid, now)
	}
	return s.settleUnsold(ctx, listing, bid, now)
}

func (s *Service) settleSold(ctx context.Context, listing *models.Listing, bid *models.Bid, now time.Time) Result {
	result := Result{ListingID: listing.ID, SaleAmount: bid.Amount}

	invoice, _, err := s.invoices.BuildForSale(invoicing.SaleInput{
		ListingID:      listing.ID,
		BuyerID:        bid.BidderID,
		SellerID:       listing.SellerID,
		SaleAmount:     bid.Amount,
		PaymentDueDays: listing.PaymentDueDays,
		Now:            now,
	})
	if err != nil {
		result.Status = OutcomeError
		result.Error = fmt.Sprintf("invoice build failed: %v", err)
		return result
	}

	// Invoice insert and listing flip share one transaction; the flip
	// is conditional on status still being active, so two concurrent
	// runs produce exactly one settlement. Number collisions get a
	// fresh suffix and a bounded retry.
	var claimed bool
	for attempt := 0; ; attempt++ {
		claimed, err = s.repo.SettleSold(listing.ID, now, invoice, bid.ID)
		if err == nil {
			break
		}
		if invoicing.IsNumberCollision(err) && attempt < invoicing.MaxNumberRetries {
			invoicing.WithFreshNumber(invoice)
			continue
		}
		result.Status = OutcomeError
		result.Error = fmt.Sprintf("settlement write failed: %v", err)
		return result
	}
	if !claimed {
		result.Status = OutcomeError
		result.Error = "listing no longer active"
		return result
	}

	result.Status = OutcomeSold
	result.InvoiceID = invoice.ID

	dueDate := ""
	if invoice.PaymentDueDate != nil {
		dueDate = invoice.PaymentDueDate.Format("2006-01-02")
	}
	s.notifier.Dispatch(ctx, []notify.Intent{
		{
			UserID:       bid.BidderID,
			Type:         models.NotificationTypeAuctionWon,
			Content:      fmt.Sprintf("You won %q for %.2f. Amount due: %.2f by %s.", listing.Title, bid.Amount, invoice.TotalAmount, dueDate),
			ReferenceID:  invoice.ID,
			EmailSubject: fmt.Sprintf("You won the auction for %s", listing.Title),
			EmailBody: fmt.Sprintf("Congratulations! Your winning bid was %.2f. Invoice %s for %.2f is due by %s.",
				bid.Amount, invoice.InvoiceNumber, invoice.TotalAmount, dueDate),
		},
		{
			UserID:       listing.SellerID,
			Type:         models.NotificationTypeAuctionSold,
			Content:      fmt.Sprintf("Your listing %q sold for %.2f. Your payout: %.2f.", listing.Title, bid.Amount, invoice.SellerPayoutAmount),
			ReferenceID:  invoice.ID,
			EmailSubject: fmt.Sprintf("Your listing %s has sold", listing.Title),
			EmailBody: fmt.Sprintf("Your listing sold for %.2f. After commission your payout is %.2f.",
				bid.Amount, invoice.SellerPayoutAmount),
		},
	})

	return result
}

func (s *Service) settleUnsold(ctx context.Context, listing *models.Listing, bid *models.Bid, now time.Time) Result {
	result := Result{ListingID: listing.ID}
	if bid == nil {
		result.Reason = ReasonNoBids
	} else {
		result.Reason = ReasonReserveNotMet
	}

	claimed, err := s.repo.SettleUnsold(listing.ID, now, bid != nil)
	if err != nil {
		result.Status = OutcomeError
		result.Error = fmt.Sprintf("settlement write failed: %v", err)
		return result
	}
	if !claimed {
		result.Status = OutcomeError
		result.Error = "listing no longer active"
		return result
	}
	result.Status = OutcomeEnded

	intents := []notify.Intent{{
		UserID:       listing.SellerID,
		Type:         models.NotificationTypeAuctionNoSale,
		Content:      noSaleContent(listing, result.Reason),
		ReferenceID:  listing.ID,
		EmailSubject: fmt.Sprintf("Your auction for %s has ended without a sale", listing.Title),
		EmailBody:    noSaleContent(listing, result.Reason),
	}}

	if result.Reason == ReasonReserveNotMet {
		bidderIDs, err := s.repo.DistinctBidderIDs(listing.ID)
		if err != nil {
			log.Errorf("failed to load bidders for reserve-not-met notice on listing %d: %v", listing.ID, err)
		}
		for _, bidderID := range bidderIDs {
			intents = append(intents, notify.Intent{
				UserID:      bidderID,
				Type:        models.NotificationTypeReserveNotMet,
				Content:     fmt.Sprintf("The auction for %q ended without meeting the reserve price.", listing.Title),
				ReferenceID: listing.ID,
			})
		}
	}

	s.notifier.Dispatch(ctx, intents)
	return result
}

func noSaleContent(listing *models.Listing, reason string) string {
	if reason == ReasonNoBids {
		return fmt.Sprintf("Your auction for %q ended without any bids.", listing.Title)
	}
	return fmt.Sprintf("Your auction for %q ended below the reserve price.", listing.Title)
}
