package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusDeclined  = "declined"
	OfferStatusCountered = "countered"
	OfferStatusExpired   = "expired"
	OfferStatusWithdrawn = "withdrawn"

	OfferRoleBuyer  = "buyer"
	OfferRoleSeller = "seller"

	// MaxCounterOffers bounds the counter ping-pong depth per chain.
	MaxCounterOffers = 3

	// MaxOriginalOffersPerBuyer bounds how many fresh chains a buyer
	// may open on one listing.
	MaxOriginalOffersPerBuyer = 3

	// OfferValidity is how long a pending offer or counter stays open.
	OfferValidity = 48 * time.Hour
)

// Offer is one record in a counter-offer chain. The original offer has
// ParentOfferID nil and CounterCount 0; each counter points at its
// parent and increments the count. CounterCount parity determines who
// authored a record: even = buyer, odd = seller.
type Offer struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	ListingID     uint    `gorm:"not null;index" json:"listing_id"`
	Listing       Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BuyerID       uint    `gorm:"not null;index" json:"buyer_id"`
	Buyer         User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID      uint    `gorm:"not null;index" json:"seller_id"`
	Seller        User    `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Amount        float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
	Message       string  `gorm:"type:text" json:"message"`
	Status        string  `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ParentOfferID *uint   `gorm:"default:null;index" json:"parent_offer_id,omitempty"`
	CounterCount  int     `gorm:"default:0" json:"counter_count"`

	ExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"expires_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AuthorRole returns who authored this record based on counter parity.
// This is the only place the parity rule lives.
func (o *Offer) AuthorRole() string {
	if o.CounterCount%2 == 0 {
		return OfferRoleBuyer
	}
	return OfferRoleSeller
}

// AuthorID returns the user id of the record's author.
func (o *Offer) AuthorID() uint {
	if o.AuthorRole() == OfferRoleBuyer {
		return o.BuyerID
	}
	return o.SellerID
}

// RecipientID returns the user id of the party the record is addressed
// to, the only party allowed to accept, decline or counter it.
func (o *Offer) RecipientID() uint {
	if o.AuthorRole() == OfferRoleBuyer {
		return o.SellerID
	}
	return o.BuyerID
}

// IsExpired reports whether the offer's validity window has passed.
func (o *Offer) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}

// IsParty reports whether the given user is buyer or seller on the offer.
func (o *Offer) IsParty(userID uint) bool {
	return userID == o.BuyerID || userID == o.SellerID
}
