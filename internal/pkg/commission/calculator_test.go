package commission

import (
	"math"
	"testing"
)

func TestCalculateFees_StandardRates(t *testing.T) {
	t.Parallel()

	fees, err := CalculateFees(1000, CommissionRates{BuyerPremiumPercent: 8, SellerCommissionPercent: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fees.BuyerPremiumAmount != 80 {
		t.Fatalf("expected buyer premium 80, got %v", fees.BuyerPremiumAmount)
	}
	if fees.SellerCommissionAmount != 80 {
		t.Fatalf("expected seller commission 80, got %v", fees.SellerCommissionAmount)
	}
	if fees.TotalBuyerPays != 1080 {
		t.Fatalf("expected total 1080, got %v", fees.TotalBuyerPays)
	}
	if fees.SellerPayoutAmount != 920 {
		t.Fatalf("expected payout 920, got %v", fees.SellerPayoutAmount)
	}
	if fees.PlatformEarnings != 160 {
		t.Fatalf("expected platform earnings 160, got %v", fees.PlatformEarnings)
	}
}

func TestCalculateFees_ZeroSaleAmount(t *testing.T) {
	t.Parallel()

	fees, err := CalculateFees(0, CommissionRates{BuyerPremiumPercent: 8, SellerCommissionPercent: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fees.BuyerPremiumAmount != 0 || fees.SellerCommissionAmount != 0 ||
		fees.TotalBuyerPays != 0 || fees.SellerPayoutAmount != 0 || fees.PlatformEarnings != 0 {
		t.Fatalf("expected all-zero breakdown for zero sale, got %+v", fees)
	}
}

func TestCalculateFees_MoneyConservation(t *testing.T) {
	t.Parallel()

	amounts := []float64{0, 0.01, 1, 99.99, 1000, 12345.67, 1000000}
	rates := []CommissionRates{
		{BuyerPremiumPercent: 0, SellerCommissionPercent: 0},
		{BuyerPremiumPercent: 8, SellerCommissionPercent: 8},
		{BuyerPremiumPercent: 5, SellerCommissionPercent: 7.5},
		{BuyerPremiumPercent: 6.25, SellerCommissionPercent: 1},
	}

	for _, amount := range amounts {
		for _, r := range rates {
			fees, err := CalculateFees(amount, r)
			if err != nil {
				t.Fatalf("unexpected error for amount %v: %v", amount, err)
			}

			// What the buyer pays minus what the platform keeps must
			// equal the seller payout, for every amount and rate pair.
			diff := fees.TotalBuyerPays - fees.PlatformEarnings - fees.SellerPayoutAmount
			if math.Abs(diff) > 1e-9 {
				t.Fatalf("conservation violated for amount=%v rates=%+v: diff=%v", amount, r, diff)
			}

			if fees.TotalBuyerPays != amount+fees.BuyerPremiumAmount {
				t.Fatalf("total mismatch for amount=%v rates=%+v", amount, r)
			}
			if fees.SellerPayoutAmount != amount-fees.SellerCommissionAmount {
				t.Fatalf("payout mismatch for amount=%v rates=%+v", amount, r)
			}
		}
	}
}

func TestCalculateFees_Linearity(t *testing.T) {
	t.Parallel()

	rates := CommissionRates{BuyerPremiumPercent: 8, SellerCommissionPercent: 5}
	small, err := CalculateFees(10, rates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	large, err := CalculateFees(1000, rates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(large.BuyerPremiumAmount-100*small.BuyerPremiumAmount) > 1e-9 {
		t.Fatalf("buyer premium not linear in sale amount")
	}
	if math.Abs(large.SellerCommissionAmount-100*small.SellerCommissionAmount) > 1e-9 {
		t.Fatalf("seller commission not linear in sale amount")
	}
}

func TestCalculateFees_RejectsNegativeInputs(t *testing.T) {
	t.Parallel()

	if _, err := CalculateFees(-1, CommissionRates{BuyerPremiumPercent: 8, SellerCommissionPercent: 8}); err == nil {
		t.Fatalf("expected error for negative sale amount")
	}
	if _, err := CalculateFees(100, CommissionRates{BuyerPremiumPercent: -1, SellerCommissionPercent: 8}); err == nil {
		t.Fatalf("expected error for negative buyer premium")
	}
	if _, err := CalculateFees(100, CommissionRates{BuyerPremiumPercent: 8, SellerCommissionPercent: -0.5}); err == nil {
		t.Fatalf("expected error for negative seller commission")
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{in: 3.14159, want: 3.14},
		{in: 2.71828, want: 2.72},
		{in: 919.9999999999999, want: 920},
		{in: 0, want: 0},
		{in: -3.14159, want: -3.14},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Fatalf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
