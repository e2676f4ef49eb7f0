package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/commission"
	"github.com/pressbid/PressBid/internal/pkg/invoicing"
	"github.com/pressbid/PressBid/internal/pkg/notify"
)

type fakeRepo struct {
	listings  []models.Listing
	bids      map[uint]*models.Bid
	bidderIDs map[uint][]uint

	bidErr      map[uint]error
	claimDenied bool

	soldCalls   []soldCall
	unsoldCalls []unsoldCall
}

type soldCall struct {
	listingID    uint
	invoice      *models.Invoice
	winningBidID uint
}

type unsoldCall struct {
	listingID uint
	hadBids   bool
}

func (f *fakeRepo) FindExpiredActiveAuctions(time.Time) ([]models.Listing, error) {
	return f.listings, nil
}

func (f *fakeRepo) HighestBid(listingID uint) (*models.Bid, error) {
	if err := f.bidErr[listingID]; err != nil {
		return nil, err
	}
	return f.bids[listingID], nil
}

func (f *fakeRepo) DistinctBidderIDs(listingID uint) ([]uint, error) {
	return f.bidderIDs[listingID], nil
}

func (f *fakeRepo) SettleSold(listingID uint, _ time.Time, invoice *models.Invoice, winningBidID uint) (bool, error) {
	if f.claimDenied {
		return false, nil
	}
	invoice.ID = uint(len(f.soldCalls)) + 100
	f.soldCalls = append(f.soldCalls, soldCall{listingID: listingID, invoice: invoice, winningBidID: winningBidID})
	return true, nil
}

func (f *fakeRepo) SettleUnsold(listingID uint, _ time.Time, hadBids bool) (bool, error) {
	if f.claimDenied {
		return false, nil
	}
	f.unsoldCalls = append(f.unsoldCalls, unsoldCall{listingID: listingID, hadBids: hadBids})
	return true, nil
}

type recordingDispatcher struct {
	intents []notify.Intent
}

func (r *recordingDispatcher) Dispatch(_ context.Context, intents []notify.Intent) {
	r.intents = append(r.intents, intents...)
}

type noOverrides struct{}

func (noOverrides) SellerOverrides(uint) (*commission.SellerOverrides, error) { return nil, nil }

func newTestService(repo *fakeRepo) (*Service, *recordingDispatcher) {
	resolver := commission.NewResolver(noOverrides{}, func() commission.CommissionRates {
		return commission.CommissionRates{BuyerPremiumPercent: 8, SellerCommissionPercent: 8}
	})
	recorder := &recordingDispatcher{}
	svc := NewService(repo, invoicing.NewService(resolver), recorder)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return svc, recorder
}

func reserve(v float64) *float64 { return &v }

func TestProcessExpiredAuctions_SoldAboveReserve(t *testing.T) {
	repo := &fakeRepo{
		listings: []models.Listing{
			{ID: 1, SellerID: 10, Title: "Heidelberg SM 52", Status: models.ListingStatusActive,
				ListingType: models.ListingTypeAuction, ReservePrice: reserve(500), PaymentDueDays: 7},
		},
		bids: map[uint]*models.Bid{
			1: {ID: 55, ListingID: 1, BidderID: 20, Amount: 600},
		},
	}
	svc, recorder := newTestService(repo)

	batch, err := svc.ProcessExpiredAuctions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Processed != 1 {
		t.Fatalf("expected 1 processed, got %d", batch.Processed)
	}

	result := batch.Results[0]
	if result.Status != OutcomeSold {
		t.Fatalf("expected sold, got %q (%s)", result.Status, result.Error)
	}
	if result.SaleAmount != 600 {
		t.Fatalf("expected sale amount 600, got %v", result.SaleAmount)
	}

	if len(repo.soldCalls) != 1 {
		t.Fatalf("expected one SettleSold call, got %d", len(repo.soldCalls))
	}
	call := repo.soldCalls[0]
	if call.winningBidID != 55 {
		t.Fatalf("expected winning bid 55, got %d", call.winningBidID)
	}
	if call.invoice.BuyerID != 20 || call.invoice.SellerID != 10 {
		t.Fatalf("invoice parties wrong: %+v", call.invoice)
	}
	if call.invoice.TotalAmount != 648 || call.invoice.SellerPayoutAmount != 552 {
		t.Fatalf("expected total 648 payout 552, got %v/%v", call.invoice.TotalAmount, call.invoice.SellerPayoutAmount)
	}

	if len(recorder.intents) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(recorder.intents))
	}
	if recorder.intents[0].Type != models.NotificationTypeAuctionWon || recorder.intents[0].UserID != 20 {
		t.Fatalf("expected winner notification first, got %+v", recorder.intents[0])
	}
	if recorder.intents[1].Type != models.NotificationTypeAuctionSold || recorder.intents[1].UserID != 10 {
		t.Fatalf("expected seller notification second, got %+v", recorder.intents[1])
	}
}

func TestProcessExpiredAuctions_ReserveNotMet(t *testing.T) {
	repo := &fakeRepo{
		listings: []models.Listing{
			{ID: 2, SellerID: 10, Title: "Polar 78 cutter", Status: models.ListingStatusActive,
				ListingType: models.ListingTypeAuction, ReservePrice: reserve(500)},
		},
		bids: map[uint]*models.Bid{
			2: {ID: 56, ListingID: 2, BidderID: 21, Amount: 400},
		},
		bidderIDs: map[uint][]uint{2: {21, 22}},
	}
	svc, recorder := newTestService(repo)

	batch, err := svc.ProcessExpiredAuctions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := batch.Results[0]
	if result.Status != OutcomeEnded {
		t.Fatalf("expected ended, got %q", result.Status)
	}
	if result.Reason != ReasonReserveNotMet {
		t.Fatalf("expected reserve_not_met, got %q", result.Reason)
	}
	if len(repo.soldCalls) != 0 {
		t.Fatalf("no invoice expected below reserve")
	}
	if len(repo.unsoldCalls) != 1 || !repo.unsoldCalls[0].hadBids {
		t.Fatalf("expected one unsold settle with bids, got %+v", repo.unsoldCalls)
	}

	// Seller no-sale notice plus one reserve-not-met notice per bidder.
	if len(recorder.intents) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(recorder.intents))
	}
	if recorder.intents[0].Type != models.NotificationTypeAuctionNoSale {
		t.Fatalf("expected seller no-sale notice first, got %+v", recorder.intents[0])
	}
	for _, in := range recorder.intents[1:] {
		if in.Type != models.NotificationTypeReserveNotMet {
			t.Fatalf("expected reserve-not-met notice, got %+v", in)
		}
	}
}

func TestProcessExpiredAuctions_NoBids(t *testing.T) {
	repo := &fakeRepo{
		listings: []models.Listing{
			{ID: 3, SellerID: 10, Title: "Muller Martini inserter", Status: models.ListingStatusActive,
				ListingType: models.ListingTypeAuction},
		},
	}
	svc, recorder := newTestService(repo)

	batch, err := svc.ProcessExpiredAuctions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := batch.Results[0]
	if result.Status != OutcomeEnded || result.Reason != ReasonNoBids {
		t.Fatalf("expected ended/no_bids, got %q/%q", result.Status, result.Reason)
	}
	if len(repo.unsoldCalls) != 1 || repo.unsoldCalls[0].hadBids {
		t.Fatalf("expected one unsold settle without bids, got %+v", repo.unsoldCalls)
	}
	if len(recorder.intents) != 1 || recorder.intents[0].UserID != 10 {
		t.Fatalf("expected only the seller notice, got %+v", recorder.intents)
	}
}

func TestProcessExpiredAuctions_ClaimLost(t *testing.T) {
	repo := &fakeRepo{
		listings: []models.Listing{
			{ID: 4, SellerID: 10, Status: models.ListingStatusActive, ListingType: models.ListingTypeAuction},
		},
		bids: map[uint]*models.Bid{
			4: {ID: 57, ListingID: 4, BidderID: 20, Amount: 900},
		},
		claimDenied: true,
	}
	svc, recorder := newTestService(repo)

	batch, err := svc.ProcessExpiredAuctions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Results[0].Status != OutcomeError {
		t.Fatalf("expected error outcome when claim is lost, got %q", batch.Results[0].Status)
	}
	if len(recorder.intents) != 0 {
		t.Fatalf("no notifications expected when claim is lost, got %+v", recorder.intents)
	}
}

func TestProcessExpiredAuctions_FailureIsolation(t *testing.T) {
	repo := &fakeRepo{
		listings: []models.Listing{
			{ID: 5, SellerID: 10, Status: models.ListingStatusActive, ListingType: models.ListingTypeAuction},
			{ID: 6, SellerID: 11, Status: models.ListingStatusActive, ListingType: models.ListingTypeAuction},
		},
		bids: map[uint]*models.Bid{
			6: {ID: 58, ListingID: 6, BidderID: 20, Amount: 300},
		},
		bidErr: map[uint]error{5: errors.New("db timeout")},
	}
	svc, _ := newTestService(repo)

	batch, err := svc.ProcessExpiredAuctions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Processed != 2 {
		t.Fatalf("expected both listings processed, got %d", batch.Processed)
	}
	if batch.Results[0].Status != OutcomeError {
		t.Fatalf("expected first listing to fail, got %q", batch.Results[0].Status)
	}
	if batch.Results[1].Status != OutcomeSold {
		t.Fatalf("expected second listing to settle despite first failing, got %q (%s)",
			batch.Results[1].Status, batch.Results[1].Error)
	}
}
