package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Hard-coded fallback rates used when the settings row is absent.
// Payment flows must never hard-fail on missing configuration.
const (
	FallbackBuyerPremiumPercent     = 8.0
	FallbackSellerCommissionPercent = 8.0
)

// Setting represents a single key/value system setting row
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer, float
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings represents the platform settings structure
type AppSettings struct {
	SiteTitle                       string  `json:"site_title" validate:"required,min=1,max=255"`
	SiteDescription                 string  `json:"site_description" validate:"max=500"`
	ListingsEnabled                 bool    `json:"listings_enabled"`
	OffersEnabled                   bool    `json:"offers_enabled"`
	DefaultBuyerPremiumPercent      float64 `json:"default_buyer_premium_percent" validate:"gte=0,lte=100"`
	DefaultSellerCommissionPercent  float64 `json:"default_seller_commission_percent" validate:"gte=0,lte=100"`
	DefaultPaymentDueDays           int     `json:"default_payment_due_days" validate:"gte=1,lte=90"`
	mu                              sync.RWMutex
}

// Global settings instance
var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	if appSettings == nil {
		return defaultAppSettings()
	}
	return appSettings
}

func defaultAppSettings() *AppSettings {
	return &AppSettings{
		SiteTitle:                      "PressBid",
		SiteDescription:                "Marketplace for industrial print and mail equipment",
		ListingsEnabled:                true,
		OffersEnabled:                  true,
		DefaultBuyerPremiumPercent:     FallbackBuyerPremiumPercent,
		DefaultSellerCommissionPercent: FallbackSellerCommissionPercent,
		DefaultPaymentDueDays:          7,
	}
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Initialize with defaults
	appSettings = defaultAppSettings()

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			appSettings.SiteTitle = setting.Value
		case "site_description":
			appSettings.SiteDescription = setting.Value
		case "listings_enabled":
			appSettings.ListingsEnabled = setting.Value == "true"
		case "offers_enabled":
			appSettings.OffersEnabled = setting.Value == "true"
		case "default_buyer_premium_percent":
			if v, err := strconv.ParseFloat(setting.Value, 64); err == nil {
				appSettings.DefaultBuyerPremiumPercent = v
			}
		case "default_seller_commission_percent":
			if v, err := strconv.ParseFloat(setting.Value, 64); err == nil {
				appSettings.DefaultSellerCommissionPercent = v
			}
		case "default_payment_due_days":
			if v, err := strconv.Atoi(setting.Value); err == nil {
				appSettings.DefaultPaymentDueDays = v
			}
		}
	}

	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]interface{}{
		"site_title":                        settings.SiteTitle,
		"site_description":                  settings.SiteDescription,
		"listings_enabled":                  fmt.Sprintf("%t", settings.ListingsEnabled),
		"offers_enabled":                    fmt.Sprintf("%t", settings.OffersEnabled),
		"default_buyer_premium_percent":     strconv.FormatFloat(settings.DefaultBuyerPremiumPercent, 'f', -1, 64),
		"default_seller_commission_percent": strconv.FormatFloat(settings.DefaultSellerCommissionPercent, 'f', -1, 64),
		"default_payment_due_days":          strconv.Itoa(settings.DefaultPaymentDueDays),
	}

	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				setting = Setting{
					Key:   key,
					Value: fmt.Sprintf("%v", value),
					Type:  getSettingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			setting.Value = fmt.Sprintf("%v", value)
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	appSettings = settings
	return nil
}

// getSettingType returns the type of a setting based on its key
func getSettingType(key string) string {
	switch key {
	case "listings_enabled", "offers_enabled":
		return "boolean"
	case "default_buyer_premium_percent", "default_seller_commission_percent":
		return "float"
	case "default_payment_due_days":
		return "integer"
	default:
		return "string"
	}
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// ToJSON converts settings to JSON
func (s *AppSettings) ToJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s)
}

// FromJSON loads settings from JSON
func (s *AppSettings) FromJSON(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, s)
}

// GetDefaultBuyerPremiumPercent returns the platform buyer premium rate
func (s *AppSettings) GetDefaultBuyerPremiumPercent() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DefaultBuyerPremiumPercent
}

// GetDefaultSellerCommissionPercent returns the platform seller commission rate
func (s *AppSettings) GetDefaultSellerCommissionPercent() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DefaultSellerCommissionPercent
}

// GetDefaultPaymentDueDays returns the platform payment term in days
func (s *AppSettings) GetDefaultPaymentDueDays() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DefaultPaymentDueDays
}
