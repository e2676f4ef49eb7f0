package repository

import (
	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
)

// offerRepository implements the OfferRepository interface
type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new offer repository instance
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

// GetByID retrieves an offer by its ID
func (r *offerRepository) GetByID(id uint) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.First(&offer, id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetByListingID retrieves all offers on a listing, newest first
func (r *offerRepository) GetByListingID(listingID uint) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.Where("listing_id = ?", listingID).
		Order("created_at DESC").Find(&offers).Error
	return offers, err
}

// GetForUser retrieves offers where the user is buyer or seller
func (r *offerRepository) GetForUser(userID uint, offset, limit int) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&offers).Error
	return offers, err
}

// GetChain returns the full counter chain containing the given offer,
// walking up to the original and back down, oldest first.
func (r *offerRepository) GetChain(offerID uint) ([]models.Offer, error) {
	offer, err := r.GetByID(offerID)
	if err != nil {
		return nil, err
	}

	// Walk up to the chain root.
	root := offer
	for root.ParentOfferID != nil {
		parent, err := r.GetByID(*root.ParentOfferID)
		if err != nil {
			return nil, err
		}
		root = parent
	}

	chain := []models.Offer{*root}
	current := root.ID
	for {
		var child models.Offer
		err := r.db.Where("parent_offer_id = ?", current).First(&child).Error
		if err == gorm.ErrRecordNotFound {
			return chain, nil
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, child)
		current = child.ID
	}
}
