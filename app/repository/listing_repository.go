package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
)

// listingRepository implements the ListingRepository interface
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository instance
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create creates a new listing in the database
func (r *listingRepository) Create(listing *models.Listing) error {
	return r.db.Create(listing).Error
}

// GetByID retrieves a listing by its ID
func (r *listingRepository) GetByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByUUID retrieves a listing by its public UUID
func (r *listingRepository) GetByUUID(uuid string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.Where("uuid = ?", uuid).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetBySellerID retrieves a seller's listings, newest first
func (r *listingRepository) GetBySellerID(sellerID uint, offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&listings).Error
	return listings, err
}

// GetActive retrieves active listings, soonest-ending first
func (r *listingRepository) GetActive(offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Where("status = ?", models.ListingStatusActive).
		Order("end_time IS NULL, end_time ASC").Offset(offset).Limit(limit).Find(&listings).Error
	return listings, err
}

// Update updates an existing listing in the database
func (r *listingRepository) Update(listing *models.Listing) error {
	return r.db.Save(listing).Error
}

// Delete soft deletes a listing by its ID
func (r *listingRepository) Delete(id uint) error {
	return r.db.Delete(&models.Listing{}, id).Error
}

// Count returns the total number of listings
func (r *listingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Count(&count).Error
	return count, err
}

// CountBySellerID returns how many listings a seller has
func (r *listingRepository) CountBySellerID(sellerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Where("seller_id = ?", sellerID).Count(&count).Error
	return count, err
}

// Search searches active listings by title, description or category
func (r *listingRepository) Search(query string, offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("status = ?", models.ListingStatusActive).
		Where("title LIKE ? OR description LIKE ? OR category LIKE ?",
			searchPattern, searchPattern, searchPattern).
		Offset(offset).Limit(limit).Find(&listings).Error
	return listings, err
}

// Activate flips a draft or scheduled listing to active; returns false
// when the listing was in neither state.
func (r *listingRepository) Activate(id uint, endTime *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     models.ListingStatusActive,
		"start_time": time.Now(),
	}
	if endTime != nil {
		updates["end_time"] = *endTime
	}
	res := r.db.Model(&models.Listing{}).
		Where("id = ? AND status IN ?", id, []string{models.ListingStatusDraft, models.ListingStatusScheduled}).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Cancel flips a not-yet-sold listing to cancelled; returns false when
// the listing had already left a cancellable state.
func (r *listingRepository) Cancel(id uint) (bool, error) {
	res := r.db.Model(&models.Listing{}).
		Where("id = ? AND status IN ?", id,
			[]string{models.ListingStatusDraft, models.ListingStatusScheduled, models.ListingStatusActive}).
		Updates(map[string]interface{}{
			"status":   models.ListingStatusCancelled,
			"ended_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
