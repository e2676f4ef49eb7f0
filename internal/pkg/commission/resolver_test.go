package commission

import "testing"

type fakeSellerSource struct {
	overrides map[uint]*SellerOverrides
}

func (f *fakeSellerSource) SellerOverrides(sellerID uint) (*SellerOverrides, error) {
	return f.overrides[sellerID], nil
}

func testDefaults() CommissionRates {
	return CommissionRates{BuyerPremiumPercent: 8, SellerCommissionPercent: 8}
}

func fptr(v float64) *float64 { return &v }

func TestResolveForSeller_PlatformDefaults(t *testing.T) {
	t.Parallel()

	r := NewResolver(&fakeSellerSource{overrides: map[uint]*SellerOverrides{}}, testDefaults)
	rates, err := r.ResolveForSeller(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rates.BuyerPremiumPercent != 8 || rates.SellerCommissionPercent != 8 {
		t.Fatalf("expected platform defaults, got %+v", rates)
	}
	if rates.IsCustom {
		t.Fatalf("expected IsCustom=false for defaults")
	}
}

func TestResolveForSeller_BothOverrides(t *testing.T) {
	t.Parallel()

	r := NewResolver(&fakeSellerSource{overrides: map[uint]*SellerOverrides{
		7: {BuyerPremiumPercent: fptr(5), SellerCommissionPercent: fptr(6)},
	}}, testDefaults)

	rates, err := r.ResolveForSeller(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rates.BuyerPremiumPercent != 5 || rates.SellerCommissionPercent != 6 {
		t.Fatalf("expected overrides 5/6, got %+v", rates)
	}
	if !rates.IsCustom {
		t.Fatalf("expected IsCustom=true with overrides")
	}
}

func TestResolveForSeller_MixedFallback(t *testing.T) {
	t.Parallel()

	// Only the seller commission is negotiated; the buyer premium must
	// still come from the platform default.
	r := NewResolver(&fakeSellerSource{overrides: map[uint]*SellerOverrides{
		9: {SellerCommissionPercent: fptr(4)},
	}}, testDefaults)

	rates, err := r.ResolveForSeller(9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rates.BuyerPremiumPercent != 8 {
		t.Fatalf("expected default buyer premium 8, got %v", rates.BuyerPremiumPercent)
	}
	if rates.SellerCommissionPercent != 4 {
		t.Fatalf("expected custom seller commission 4, got %v", rates.SellerCommissionPercent)
	}
	if !rates.IsCustom {
		t.Fatalf("expected IsCustom=true with one override")
	}
}

func TestResolveForSeller_ZeroOverrideIsHonored(t *testing.T) {
	t.Parallel()

	// Zero is a valid negotiated rate, distinct from "no override".
	r := NewResolver(&fakeSellerSource{overrides: map[uint]*SellerOverrides{
		3: {BuyerPremiumPercent: fptr(0)},
	}}, testDefaults)

	rates, err := r.ResolveForSeller(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rates.BuyerPremiumPercent != 0 {
		t.Fatalf("expected zero buyer premium, got %v", rates.BuyerPremiumPercent)
	}
	if rates.SellerCommissionPercent != 8 {
		t.Fatalf("expected default seller commission, got %v", rates.SellerCommissionPercent)
	}
}

func TestFallbackDefaults(t *testing.T) {
	t.Parallel()

	rates := FallbackDefaults()
	if rates.BuyerPremiumPercent != 8 || rates.SellerCommissionPercent != 8 {
		t.Fatalf("unexpected fallback rates: %+v", rates)
	}
}
