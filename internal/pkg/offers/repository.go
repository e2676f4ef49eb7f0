package offers

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
)

// errNotClaimed signals a conditional update that matched no row: the
// offer or listing was concurrently moved out of the expected state.
var errNotClaimed = errors.New("state changed concurrently")

// Repository provides the DB operations used by the offer service.
// Every status transition is a conditional update guarded on the
// current status, so concurrent actions on the same offer resolve to
// exactly one winner.
type Repository interface {
	GetOffer(id uint) (*models.Offer, error)
	GetListing(id uint) (*models.Listing, error)

	CountOriginalOffers(listingID, buyerID uint) (int64, error)
	HasOtherPendingOffer(listingID, buyerID uint) (bool, error)

	CreateOffer(offer *models.Offer) error

	// UpdateStatusIfPending flips offer status pending -> to; returns
	// false when the offer was no longer pending.
	UpdateStatusIfPending(offerID uint, to string) (bool, error)

	// AcceptPendingOffer runs the acceptance transaction: offer
	// pending -> accepted, invoice insert, listing flip to sold, and
	// every other pending offer on the listing declined.
	AcceptPendingOffer(offer *models.Offer, invoice *models.Invoice) (bool, error)

	// CreateAcceptedOffer runs the auto-accept transaction: the offer
	// row is inserted already accepted alongside the invoice and the
	// listing flip.
	CreateAcceptedOffer(offer *models.Offer, invoice *models.Invoice) (bool, error)

	// CreateCounterOffer marks the parent countered and inserts the
	// child record in one transaction.
	CreateCounterOffer(parentID uint, counter *models.Offer) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an offer repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetOffer(id uint) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.First(&offer, id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *gormRepository) GetListing(id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *gormRepository) CountOriginalOffers(listingID, buyerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Offer{}).
		Where("listing_id = ? AND buyer_id = ? AND parent_offer_id IS NULL", listingID, buyerID).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) HasOtherPendingOffer(listingID, buyerID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Offer{}).
		Where("listing_id = ? AND buyer_id = ? AND status = ?", listingID, buyerID, models.OfferStatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) CreateOffer(offer *models.Offer) error {
	return r.db.Create(offer).Error
}

func (r *gormRepository) UpdateStatusIfPending(offerID uint, to string) (bool, error) {
	res := r.db.Model(&models.Offer{}).
		Where("id = ? AND status = ?", offerID, models.OfferStatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) AcceptPendingOffer(offer *models.Offer, invoice *models.Invoice) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Offer{}).
			Where("id = ? AND status = ?", offer.ID, models.OfferStatusPending).
			Update("status", models.OfferStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotClaimed
		}
		return r.completeSale(tx, offer, invoice)
	})
	return claimedResult(err)
}

func (r *gormRepository) CreateAcceptedOffer(offer *models.Offer, invoice *models.Invoice) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(offer).Error; err != nil {
			return err
		}
		return r.completeSale(tx, offer, invoice)
	})
	return claimedResult(err)
}

// completeSale performs the shared tail of both acceptance paths:
// invoice insert, conditional listing flip, and declining every other
// pending offer on the listing. Runs inside the caller's transaction.
func (r *gormRepository) completeSale(tx *gorm.DB, offer *models.Offer, invoice *models.Invoice) error {
	if err := tx.Create(invoice).Error; err != nil {
		return err
	}

	res := tx.Model(&models.Listing{}).
		Where("id = ? AND status = ?", offer.ListingID, models.ListingStatusActive).
		Updates(map[string]interface{}{
			"status":   models.ListingStatusSold,
			"ended_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotClaimed
	}

	return tx.Model(&models.Offer{}).
		Where("listing_id = ? AND id <> ? AND status = ?", offer.ListingID, offer.ID, models.OfferStatusPending).
		Update("status", models.OfferStatusDeclined).Error
}

func (r *gormRepository) CreateCounterOffer(parentID uint, counter *models.Offer) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Offer{}).
			Where("id = ? AND status = ?", parentID, models.OfferStatusPending).
			Update("status", models.OfferStatusCountered)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotClaimed
		}
		return tx.Create(counter).Error
	})
	return claimedResult(err)
}

func claimedResult(err error) (bool, error) {
	if errors.Is(err, errNotClaimed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
