package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationTypeAuctionWon       = "auction_won"
	NotificationTypeAuctionSold      = "auction_sold"
	NotificationTypeAuctionNoSale    = "auction_no_sale"
	NotificationTypeReserveNotMet    = "reserve_not_met"
	NotificationTypeOutbid           = "outbid"
	NotificationTypeOfferReceived    = "offer_received"
	NotificationTypeOfferAccepted    = "offer_accepted"
	NotificationTypeOfferDeclined    = "offer_declined"
	NotificationTypeOfferCountered   = "offer_countered"
	NotificationTypeOfferWithdrawn   = "offer_withdrawn"
	NotificationTypePaymentReceived  = "payment_received"
	NotificationTypePaymentConfirmed = "payment_confirmed"
)

type Notification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        string         `gorm:"type:varchar(50);index:idx_notifications_dedupe,priority:1" json:"type"`
	Content     string         `gorm:"type:text" json:"content"`
	IsRead      bool           `gorm:"default:false" json:"is_read"`
	ReferenceID uint           `gorm:"index:idx_notifications_dedupe,priority:2" json:"reference_id"` // id of the listing/offer/invoice the notification refers to
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsRead marks a notification as read
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}

// CreateNotification persists a new notification row
func CreateNotification(db *gorm.DB, userID uint, notificationType string, content string, referenceID uint) error {
	notification := Notification{
		UserID:      userID,
		Type:        notificationType,
		Content:     content,
		ReferenceID: referenceID,
		IsRead:      false,
	}

	return db.Create(&notification).Error
}

// NotificationExists reports whether the user already has a
// notification of the given type for the given reference. Used to keep
// webhook-driven notifications at-most-once.
func NotificationExists(db *gorm.DB, userID uint, notificationType string, referenceID uint) (bool, error) {
	var count int64
	err := db.Model(&Notification{}).
		Where("user_id = ? AND type = ? AND reference_id = ?", userID, notificationType, referenceID).
		Count(&count).Error
	return count > 0, err
}
