package invoicing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Invoice numbers are user-facing identifiers tied to money, so the
// suffix comes from a cryptographically strong source: predictable
// numbers would leak sale ordering and invite guessing.
//
// Format: INV-YYYYMMDD-XXXX with the date in UTC and a 4-character
// uppercase hex suffix.

var numberPattern = regexp.MustCompile(`^INV-\d{8}-[A-F0-9]{4}$`)

// GenerateNumber returns a fresh invoice number. Uniqueness is
// ultimately guaranteed by the database constraint, not here; callers
// retry on an insert collision.
func GenerateNumber() string {
	return generateNumberAt(time.Now().UTC())
}

func generateNumberAt(now time.Time) string {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform RNG is broken;
		// nothing sensible to fall back to.
		panic(fmt.Sprintf("invoice number generation: %v", err))
	}
	suffix := strings.ToUpper(hex.EncodeToString(b))
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

// IsValidNumber reports whether s matches the exact invoice number
// format: uppercase hex suffix, exact lengths, literal dashes.
func IsValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}

// NumberDate parses the date embedded in an invoice number. Returns
// nil on any format mismatch rather than an error.
func NumberDate(s string) *time.Time {
	if !IsValidNumber(s) {
		return nil
	}
	t, err := time.ParseInLocation("20060102", s[4:12], time.UTC)
	if err != nil {
		return nil
	}
	return &t
}
