package commission

import (
	"math"

	"github.com/pressbid/PressBid/internal/pkg/apperr"
)

// CommissionRates is a snapshot of the two platform fee percentages
// used for one calculation. Percentages are whole-number-or-decimal
// percent values (8 means 8%). Once an invoice is generated the values
// are copied onto it, so rate changes never alter history.
type CommissionRates struct {
	BuyerPremiumPercent     float64 `json:"buyer_premium_percent"`
	SellerCommissionPercent float64 `json:"seller_commission_percent"`
	IsCustom                bool    `json:"is_custom"`
}

// FeeBreakdown is the derived fee split for one sale. It is never
// persisted on its own, only through the invoice it was computed for.
type FeeBreakdown struct {
	BuyerPremiumAmount     float64 `json:"buyer_premium_amount"`
	SellerCommissionAmount float64 `json:"seller_commission_amount"`
	TotalBuyerPays         float64 `json:"total_buyer_pays"`
	SellerPayoutAmount     float64 `json:"seller_payout_amount"`
	PlatformEarnings       float64 `json:"platform_earnings"`
}

// CalculateFees splits a sale amount into the buyer premium, seller
// commission and the derived totals. No rounding is applied here;
// callers round only at presentation or persistence boundaries so the
// error does not compound across the derived quantities.
//
// Invariant for all inputs: TotalBuyerPays - PlatformEarnings == SellerPayoutAmount.
func CalculateFees(saleAmount float64, rates CommissionRates) (FeeBreakdown, error) {
	if saleAmount < 0 {
		return FeeBreakdown{}, apperr.Validationf("sale amount must not be negative, got %v", saleAmount)
	}
	if rates.BuyerPremiumPercent < 0 || rates.SellerCommissionPercent < 0 {
		return FeeBreakdown{}, apperr.Validationf("commission percentages must not be negative")
	}

	buyerPremium := saleAmount * rates.BuyerPremiumPercent / 100
	sellerCommission := saleAmount * rates.SellerCommissionPercent / 100

	return FeeBreakdown{
		BuyerPremiumAmount:     buyerPremium,
		SellerCommissionAmount: sellerCommission,
		TotalBuyerPays:         saleAmount + buyerPremium,
		SellerPayoutAmount:     saleAmount - sellerCommission,
		PlatformEarnings:       buyerPremium + sellerCommission,
	}, nil
}

// Round2 rounds a monetary amount to two decimal places. Applied only
// at the persistence boundary.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
