package payments

import "testing"

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"id":"evt_001","type":"payment.succeeded","invoice_id":77}`)
	secret := "whsec_test"

	sig := ComputeSignature(body, secret)
	if !VerifySignature(body, sig, secret) {
		t.Fatalf("expected valid signature to verify")
	}

	if VerifySignature(body, sig, "whsec_other") {
		t.Fatalf("signature must not verify under a different secret")
	}
	if VerifySignature([]byte(`{"tampered":true}`), sig, secret) {
		t.Fatalf("signature must not verify for a tampered body")
	}
	if VerifySignature(body, "deadbeef", secret) {
		t.Fatalf("arbitrary signature must not verify")
	}
	if VerifySignature(body, "", secret) {
		t.Fatalf("empty signature must not verify")
	}
	if VerifySignature(body, sig, "") {
		t.Fatalf("empty secret must not verify")
	}
}

func TestComputeSignature_IsHexAndStable(t *testing.T) {
	t.Parallel()

	body := []byte("payload")
	a := ComputeSignature(body, "s")
	b := ComputeSignature(body, "s")
	if a != b {
		t.Fatalf("signature must be deterministic, got %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	for _, c := range a {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("expected lowercase hex, got %q", a)
		}
	}
}
