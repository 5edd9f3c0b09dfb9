// Package billing validates card input for stored payment methods. The raw
// card number never leaves this package: callers receive the brand, the
// last four digits, and a deterministic fingerprint for duplicate detection.
package billing

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/neyraq/portal/internal/policy"
)

// Card number length bounds after normalization (ISO/IEC 7812).
const (
	minPANLength = 12
	maxPANLength = 19
)

// maxExpiryYears bounds how far in the future an expiry year may lie.
const maxExpiryYears = 15

var (
	visaPattern       = regexp.MustCompile(`^4[0-9]{6,}$`)
	mastercardPattern = regexp.MustCompile(`^5[1-5][0-9]{5,}$`)
	mastercard2Series = regexp.MustCompile(`^2(2[2-9]|[3-6][0-9]|7[01])[0-9]{4,}$`)
	amexPattern       = regexp.MustCompile(`^3[47][0-9]{5,}$`)
	digitsOnly        = regexp.MustCompile(`^[0-9]+$`)
)

// Normalize strips spaces and dashes from a card number.
func Normalize(cardNumber string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, cardNumber)
}

// DetectBrand identifies the card brand from a normalized card number.
// Unknown prefixes fall back to the generic "card".
func DetectBrand(cardNumber string) string {
	trimmed := Normalize(cardNumber)
	switch {
	case visaPattern.MatchString(trimmed):
		return "visa"
	case mastercardPattern.MatchString(trimmed) || mastercard2Series.MatchString(trimmed):
		return "mastercard"
	case amexPattern.MatchString(trimmed):
		return "amex"
	default:
		return "card"
	}
}

// Fingerprint derives the deterministic one-way value used to detect
// duplicate stored cards without persisting the raw card number.
func Fingerprint(cardNumber string) string {
	sum := sha256.Sum256([]byte(Normalize(cardNumber)))
	return hex.EncodeToString(sum[:])
}

// CardDetails is the validated, storable projection of a card submission.
type CardDetails struct {
	Brand       string
	Last4       string
	ExpMonth    int
	ExpYear     int
	Fingerprint string
}

// ValidateCard checks a submitted card number and expiry date and returns
// the storable details. brand may be empty, in which case it is detected
// from the number. All failures are policy.ValidationError values with
// caller-safe reasons.
func ValidateCard(cardNumber string, expMonth, expYear int, brand string) (*CardDetails, error) {
	return validateCardAt(cardNumber, expMonth, expYear, brand, time.Now())
}

func validateCardAt(cardNumber string, expMonth, expYear int, brand string, now time.Time) (*CardDetails, error) {
	raw := Normalize(cardNumber)

	if raw == "" || len(raw) < minPANLength || len(raw) > maxPANLength || !digitsOnly.MatchString(raw) {
		return nil, policy.Invalid("cardNumber", "invalid card number")
	}
	if expMonth < 1 || expMonth > 12 {
		return nil, policy.Invalid("expMonth", "invalid expiration month")
	}
	if expYear < now.Year() || expYear > now.Year()+maxExpiryYears {
		return nil, policy.Invalid("expYear", "invalid expiration year")
	}

	// A card expires at the end of its expiry month.
	currentYM := now.Year()*12 + int(now.Month())
	cardYM := expYear*12 + expMonth
	if cardYM < currentYM {
		return nil, policy.Invalid("expMonth", "card is expired")
	}

	if brand == "" {
		brand = DetectBrand(raw)
	}

	return &CardDetails{
		Brand:       strings.ToLower(brand),
		Last4:       raw[len(raw)-4:],
		ExpMonth:    expMonth,
		ExpYear:     expYear,
		Fingerprint: Fingerprint(raw),
	}, nil
}
