package invoicing

import (
	"testing"
	"time"
)

func TestGenerateNumber_Format(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		n := GenerateNumber()
		if !IsValidNumber(n) {
			t.Fatalf("generated number %q does not match format", n)
		}
	}
}

func TestGenerateNumberAt_EmbedsDate(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	n := generateNumberAt(at)

	if got := n[:12]; got != "INV-20260831" {
		t.Fatalf("expected date prefix INV-20260831, got %q", got)
	}

	parsed := NumberDate(n)
	if parsed == nil {
		t.Fatalf("NumberDate returned nil for %q", n)
	}
	if !parsed.Equal(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected round-tripped date 2026-08-31, got %v", parsed)
	}
}

func TestIsValidNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "INV-20260831-A4F1", want: true},
		{in: "INV-20260831-0000", want: true},
		{in: "INV-20260831-a4f1", want: false}, // lowercase suffix
		{in: "INV-20260831-A4F", want: false},  // short suffix
		{in: "INV-20260831-A4F12", want: false},
		{in: "INV-2026083-A4F1", want: false}, // short date
		{in: "INX-20260831-A4F1", want: false},
		{in: "INV-20260831-G4F1", want: false}, // non-hex suffix
		{in: "", want: false},
	}

	for _, tt := range tests {
		if got := IsValidNumber(tt.in); got != tt.want {
			t.Fatalf("IsValidNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNumberDate_InvalidInput(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "INV-20261301-A4F1", "not-a-number"} {
		if got := NumberDate(in); got != nil {
			t.Fatalf("NumberDate(%q) = %v, want nil", in, got)
		}
	}
}
