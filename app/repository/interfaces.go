package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	UpdateAPIKeyLastUsed(id uint, at time.Time) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	SetCommissionOverrides(id uint, buyerPremium, sellerCommission *float64) error
}

// ListingRepository defines the interface for listing-related database operations
type ListingRepository interface {
	Create(listing *models.Listing) error
	GetByID(id uint) (*models.Listing, error)
	GetByUUID(uuid string) (*models.Listing, error)
	GetBySellerID(sellerID uint, offset, limit int) ([]models.Listing, error)
	GetActive(offset, limit int) ([]models.Listing, error)
	Update(listing *models.Listing) error
	Delete(id uint) error
	Count() (int64, error)
	CountBySellerID(sellerID uint) (int64, error)
	Search(query string, offset, limit int) ([]models.Listing, error)
	Activate(id uint, endTime *time.Time) (bool, error)
	Cancel(id uint) (bool, error)
}

// BidRepository defines the interface for bid-related database operations
type BidRepository interface {
	GetByID(id uint) (*models.Bid, error)
	GetByListingID(listingID uint, offset, limit int) ([]models.Bid, error)
	GetByBidderID(bidderID uint, offset, limit int) ([]models.Bid, error)
	HighestForListing(listingID uint) (*models.Bid, error)

	// PlaceBid inserts the bid and advances the listing price in one
	// transaction; returns false when the listing is no longer active
	// or the amount no longer beats the current price.
	PlaceBid(bid *models.Bid) (bool, error)
}

// OfferRepository defines read-side offer queries for controllers; all
// offer state transitions go through the offers service.
type OfferRepository interface {
	GetByID(id uint) (*models.Offer, error)
	GetByListingID(listingID uint) ([]models.Offer, error)
	GetForUser(userID uint, offset, limit int) ([]models.Offer, error)
	GetChain(offerID uint) ([]models.Offer, error)
}

// InvoiceRepository defines read-side invoice queries; invoices are
// created by settlement and offer acceptance, never directly.
type InvoiceRepository interface {
	GetByID(id uint) (*models.Invoice, error)
	GetByNumber(number string) (*models.Invoice, error)
	GetForUser(userID uint, offset, limit int) ([]models.Invoice, error)
	ListByStatus(status string, offset, limit int) ([]models.Invoice, error)
	Count() (int64, error)
	MarkOverdue(now time.Time) (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Listing ListingRepository
	Bid     BidRepository
	Offer   OfferRepository
	Invoice InvoiceRepository
	Setting SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Listing: NewListingRepository(db),
		Bid:     NewBidRepository(db),
		Offer:   NewOfferRepository(db),
		Invoice: NewInvoiceRepository(db),
		Setting: NewSettingRepository(db),
	}
}
