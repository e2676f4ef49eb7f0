package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
)

var errBidNotPlaced = errors.New("bid not placed")

// bidRepository implements the BidRepository interface
type bidRepository struct {
	db *gorm.DB
}

// NewBidRepository creates a new bid repository instance
func NewBidRepository(db *gorm.DB) BidRepository {
	return &bidRepository{db: db}
}

// GetByID retrieves a bid by its ID
func (r *bidRepository) GetByID(id uint) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.First(&bid, id).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// GetByListingID retrieves a listing's bids, highest first
func (r *bidRepository) GetByListingID(listingID uint, offset, limit int) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.Where("listing_id = ?", listingID).
		Order("amount DESC, created_at ASC").Offset(offset).Limit(limit).Find(&bids).Error
	return bids, err
}

// GetByBidderID retrieves a bidder's bids, newest first
func (r *bidRepository) GetByBidderID(bidderID uint, offset, limit int) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.Where("bidder_id = ?", bidderID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&bids).Error
	return bids, err
}

// HighestForListing returns the top bid on a listing, nil when there
// are no bids.
func (r *bidRepository) HighestForListing(listingID uint) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.Where("listing_id = ? AND status NOT IN ?", listingID,
		[]string{models.BidStatusCancelled}).
		Order("amount DESC, created_at ASC").First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// PlaceBid inserts the bid, advances the listing price and demotes the
// previous winning bid in one transaction. The listing update is
// conditional on status active and the amount still leading, so two
// concurrent bids of the same amount resolve to one winner.
func (r *bidRepository) PlaceBid(bid *models.Bid) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ? AND current_price < ?",
				bid.ListingID, models.ListingStatusActive, bid.Amount).
			Updates(map[string]interface{}{
				"current_price": bid.Amount,
				"bid_count":     gorm.Expr("bid_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errBidNotPlaced
		}

		if err := tx.Model(&models.Bid{}).
			Where("listing_id = ? AND status = ?", bid.ListingID, models.BidStatusWinning).
			Update("status", models.BidStatusOutbid).Error; err != nil {
			return err
		}

		bid.Status = models.BidStatusWinning
		return tx.Create(bid).Error
	})
	if errors.Is(err, errBidNotPlaced) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
