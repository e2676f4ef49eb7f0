package settlement

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
)

// errNotClaimed signals that the conditional status flip matched no
// row, i.e. another settlement run already claimed the listing.
var errNotClaimed = errors.New("listing no longer active")

// Repository provides the DB operations used by the settlement service.
type Repository interface {
	FindExpiredActiveAuctions(now time.Time) ([]models.Listing, error)
	HighestBid(listingID uint) (*models.Bid, error)
	DistinctBidderIDs(listingID uint) ([]uint, error)

	// SettleSold atomically flips the listing active -> sold, inserts
	// the invoice and finalizes bid statuses in one transaction. The
	// flip is conditional on status still being active; returns false
	// without error when another run settled the listing first.
	SettleSold(listingID uint, endedAt time.Time, invoice *models.Invoice, winningBidID uint) (bool, error)

	// SettleUnsold flips the listing active -> ended and marks any
	// bids lost. Same conditional claim semantics as SettleSold.
	SettleUnsold(listingID uint, endedAt time.Time, hadBids bool) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a settlement repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindExpiredActiveAuctions(now time.Time) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.
		Where("status = ? AND listing_type IN ? AND end_time IS NOT NULL AND end_time < ?",
			models.ListingStatusActive,
			[]string{models.ListingTypeAuction, models.ListingTypeAuctionBuyNow},
			now).
		Find(&listings).Error
	return listings, err
}

func (r *gormRepository) HighestBid(listingID uint) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.
		Where("listing_id = ? AND status <> ?", listingID, models.BidStatusCancelled).
		Order("amount DESC").
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *gormRepository) DistinctBidderIDs(listingID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Bid{}).
		Where("listing_id = ? AND status <> ?", listingID, models.BidStatusCancelled).
		Distinct("bidder_id").
		Pluck("bidder_id", &ids).Error
	return ids, err
}

func (r *gormRepository) SettleSold(listingID uint, endedAt time.Time, invoice *models.Invoice, winningBidID uint) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", listingID, models.ListingStatusActive).
			Updates(map[string]interface{}{
				"status":   models.ListingStatusSold,
				"ended_at": endedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotClaimed
		}

		if err := tx.Create(invoice).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Bid{}).
			Where("id = ?", winningBidID).
			Update("status", models.BidStatusWon).Error; err != nil {
			return err
		}
		return tx.Model(&models.Bid{}).
			Where("listing_id = ? AND id <> ?", listingID, winningBidID).
			Update("status", models.BidStatusLost).Error
	})
	if errors.Is(err, errNotClaimed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *gormRepository) SettleUnsold(listingID uint, endedAt time.Time, hadBids bool) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", listingID, models.ListingStatusActive).
			Updates(map[string]interface{}{
				"status":   models.ListingStatusEnded,
				"ended_at": endedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotClaimed
		}

		if !hadBids {
			return nil
		}
		return tx.Model(&models.Bid{}).
			Where("listing_id = ?", listingID).
			Update("status", models.BidStatusLost).Error
	})
	if errors.Is(err, errNotClaimed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
