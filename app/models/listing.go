package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ListingStatusDraft     = "draft"
	ListingStatusScheduled = "scheduled"
	ListingStatusActive    = "active"
	ListingStatusEnded     = "ended"
	ListingStatusSold      = "sold"
	ListingStatusCancelled = "cancelled"
	ListingStatusExpired   = "expired"

	ListingTypeAuction       = "auction"
	ListingTypeAuctionBuyNow = "auction_buy_now"
	ListingTypeFixedPrice    = "fixed_price"
	ListingTypeFixedOffers   = "fixed_price_offers"
)

// Listing is an auctionable or offerable piece of equipment. It is
// owned by its seller until sold; from that point the invoice is the
// authoritative settlement record.
type Listing struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UUID        string `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	SellerID    uint   `gorm:"not null;index" json:"seller_id"`
	Seller      User   `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Title       string `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(100);index" json:"category"`
	Condition   string `gorm:"type:varchar(50)" json:"condition"`

	Status      string `gorm:"type:varchar(20);default:'draft';index" json:"status" validate:"oneof=draft scheduled active ended sold cancelled expired"`
	ListingType string `gorm:"type:varchar(30);default:'auction'" json:"listing_type" validate:"oneof=auction auction_buy_now fixed_price fixed_price_offers"`

	StartingPrice float64  `gorm:"type:decimal(12,2);default:0" json:"starting_price"`
	ReservePrice  *float64 `gorm:"type:decimal(12,2);default:null" json:"reserve_price,omitempty"`
	BuyNowPrice   *float64 `gorm:"type:decimal(12,2);default:null" json:"buy_now_price,omitempty"`
	CurrentPrice  float64  `gorm:"type:decimal(12,2);default:0" json:"current_price"`
	BidCount      uint     `gorm:"default:0" json:"bid_count"`

	AcceptOffers     bool     `gorm:"default:false" json:"accept_offers"`
	AutoAcceptPrice  *float64 `gorm:"type:decimal(12,2);default:null" json:"auto_accept_price,omitempty"`
	AutoDeclinePrice *float64 `gorm:"type:decimal(12,2);default:null" json:"auto_decline_price,omitempty"`

	PaymentDueDays int        `gorm:"default:7" json:"payment_due_days"`
	StartTime      *time.Time `gorm:"type:timestamp;default:null" json:"start_time"`
	EndTime        *time.Time `gorm:"type:timestamp;default:null;index" json:"end_time"`
	EndedAt        *time.Time `gorm:"type:timestamp;default:null" json:"ended_at"`

	ViewCount uint `gorm:"default:0" json:"view_count"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Listing) Validate() error {
	v := validator.New()

	return v.Struct(l)
}

// IsAuctionType reports whether the listing settles through the
// auction settlement process.
func (l *Listing) IsAuctionType() bool {
	return l.ListingType == ListingTypeAuction || l.ListingType == ListingTypeAuctionBuyNow
}

// AcceptsOffers reports whether buyers may open offer negotiations.
func (l *Listing) AcceptsOffers() bool {
	return l.AcceptOffers || l.ListingType == ListingTypeFixedOffers
}

// ReserveMet reports whether the given price satisfies the reserve.
// A listing without a reserve is always met.
func (l *Listing) ReserveMet(price float64) bool {
	return l.ReservePrice == nil || price >= *l.ReservePrice
}

// HasEnded reports whether the auction window is over at the given time.
func (l *Listing) HasEnded(now time.Time) bool {
	return l.EndTime != nil && l.EndTime.Before(now)
}
