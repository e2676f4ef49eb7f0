package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	BidStatusActive    = "active"
	BidStatusOutbid    = "outbid"
	BidStatusWinning   = "winning"
	BidStatusWon       = "won"
	BidStatusLost      = "lost"
	BidStatusCancelled = "cancelled"
)

// Bid is a buyer's bid on an auction listing. Status is assigned by
// live bidding (active/outbid/winning) and finalized by settlement
// (won/lost).
type Bid struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ListingID uint     `gorm:"not null;index" json:"listing_id"`
	Listing   Listing  `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BidderID  uint     `gorm:"not null;index" json:"bidder_id"`
	Bidder    User     `gorm:"foreignKey:BidderID" json:"bidder,omitempty"`
	Amount    float64  `gorm:"type:decimal(12,2);not null" json:"amount"`
	MaxBid    *float64 `gorm:"type:decimal(12,2);default:null" json:"max_bid,omitempty"`
	Status    string   `gorm:"type:varchar(20);default:'active';index" json:"status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
