package commission

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/cache"
)

// DefaultsCacheKey is the Redis key holding the platform default rate
// snapshot shared across instances.
const DefaultsCacheKey = "commission:defaults"

const defaultsCacheTTL = 5 * time.Minute

// SellerOverrides carries the optional per-seller rate overrides. A nil
// field means the platform default applies for that rate.
type SellerOverrides struct {
	BuyerPremiumPercent     *float64
	SellerCommissionPercent *float64
}

// SellerSource looks up per-seller commission overrides.
type SellerSource interface {
	SellerOverrides(sellerID uint) (*SellerOverrides, error)
}

// DefaultsFunc supplies the platform default rates as an explicit
// snapshot per resolution, instead of reading ambient global state.
type DefaultsFunc func() CommissionRates

// Resolver resolves the effective commission rates for a seller:
// custom override per rate where set, platform default otherwise.
type Resolver struct {
	sellers  SellerSource
	defaults DefaultsFunc
}

// NewResolver creates a resolver from a seller source and a defaults provider.
func NewResolver(sellers SellerSource, defaults DefaultsFunc) *Resolver {
	return &Resolver{sellers: sellers, defaults: defaults}
}

// NewResolverFromDB creates a resolver backed by GORM and the cached
// platform defaults.
func NewResolverFromDB(db *gorm.DB) *Resolver {
	return NewResolver(NewGormSellerSource(db), CachedDefaults)
}

// ResolveForSeller returns the rate snapshot to apply to a sale by the
// given seller. Each of the two rates falls back to the platform
// default independently.
func (r *Resolver) ResolveForSeller(sellerID uint) (CommissionRates, error) {
	rates := r.defaults()
	rates.IsCustom = false

	overrides, err := r.sellers.SellerOverrides(sellerID)
	if err != nil {
		return CommissionRates{}, err
	}
	if overrides == nil {
		return rates, nil
	}

	if overrides.BuyerPremiumPercent != nil {
		rates.BuyerPremiumPercent = *overrides.BuyerPremiumPercent
		rates.IsCustom = true
	}
	if overrides.SellerCommissionPercent != nil {
		rates.SellerCommissionPercent = *overrides.SellerCommissionPercent
		rates.IsCustom = true
	}
	return rates, nil
}

// FallbackDefaults returns the hard-coded platform rates used when no
// settings record is available. Payment flows must not hard-fail on a
// missing configuration row.
func FallbackDefaults() CommissionRates {
	return CommissionRates{
		BuyerPremiumPercent:     models.FallbackBuyerPremiumPercent,
		SellerCommissionPercent: models.FallbackSellerCommissionPercent,
	}
}

// SettingsDefaults snapshots the platform default rates from the
// loaded application settings.
func SettingsDefaults() CommissionRates {
	s := models.GetAppSettings()
	if s == nil {
		return FallbackDefaults()
	}
	return CommissionRates{
		BuyerPremiumPercent:     s.GetDefaultBuyerPremiumPercent(),
		SellerCommissionPercent: s.GetDefaultSellerCommissionPercent(),
	}
}

// CachedDefaults reads the defaults snapshot from Redis, falling back
// to the settings snapshot on a miss and writing it back. Admin rate
// changes call InvalidateDefaultsCache.
func CachedDefaults() CommissionRates {
	if raw, err := cache.Get(DefaultsCacheKey); err == nil {
		var rates CommissionRates
		if jsonErr := json.Unmarshal([]byte(raw), &rates); jsonErr == nil {
			return rates
		}
	} else if !cache.IsNotFound(err) {
		log.Warnf("commission defaults cache read failed: %v", err)
	}

	rates := SettingsDefaults()
	if raw, err := json.Marshal(rates); err == nil {
		if err := cache.Set(DefaultsCacheKey, string(raw), defaultsCacheTTL); err != nil {
			log.Warnf("commission defaults cache write failed: %v", err)
		}
	}
	return rates
}

// InvalidateDefaultsCache drops the cached defaults snapshot so the
// next resolution reads the updated settings.
func InvalidateDefaultsCache() {
	if err := cache.Delete(DefaultsCacheKey); err != nil {
		log.Warnf("commission defaults cache invalidation failed: %v", err)
	}
}

type gormSellerSource struct {
	db *gorm.DB
}

// NewGormSellerSource creates a SellerSource backed by the users table.
func NewGormSellerSource(db *gorm.DB) SellerSource {
	return &gormSellerSource{db: db}
}

func (s *gormSellerSource) SellerOverrides(sellerID uint) (*SellerOverrides, error) {
	var user models.User
	if err := s.db.Select("custom_buyer_premium_percent", "custom_seller_commission_percent").
		First(&user, sellerID).Error; err != nil {
		return nil, err
	}
	return &SellerOverrides{
		BuyerPremiumPercent:     user.CustomBuyerPremiumPercent,
		SellerCommissionPercent: user.CustomSellerCommissionPercent,
	}, nil
}
