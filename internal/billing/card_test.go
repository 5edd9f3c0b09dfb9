package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neyraq/portal/internal/policy"
)

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		expected string
	}{
		{"visa", "4242424242424242", "visa"},
		{"visa with spaces", "4242 4242 4242 4242", "visa"},
		{"mastercard 5-series", "5555555555554444", "mastercard"},
		{"mastercard 2-series", "2223003122003222", "mastercard"},
		{"amex 34", "340000000000009", "amex"},
		{"amex 37", "378282246310005", "amex"},
		{"unknown prefix", "6011111111111117", "card"},
		{"dashes stripped", "4242-4242-4242-4242", "visa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, DetectBrand(tt.number))
		})
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	first := Fingerprint("4242424242424242")
	require.Len(t, first, 64)

	// Formatting differences do not change the fingerprint.
	require.Equal(t, first, Fingerprint("4242 4242 4242 4242"))
	require.Equal(t, first, Fingerprint("4242-4242-4242-4242"))

	require.NotEqual(t, first, Fingerprint("4000000000000002"))
}

func TestValidateCard(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	t.Run("valid card", func(t *testing.T) {
		details, err := validateCardAt("4242 4242 4242 4242", 12, 2027, "", now)
		require.NoError(t, err)
		require.Equal(t, "visa", details.Brand)
		require.Equal(t, "4242", details.Last4)
		require.Equal(t, 12, details.ExpMonth)
		require.Equal(t, 2027, details.ExpYear)
		require.Len(t, details.Fingerprint, 64)
	})

	t.Run("caller-supplied brand is lowercased", func(t *testing.T) {
		details, err := validateCardAt("4242424242424242", 1, 2027, "VISA", now)
		require.NoError(t, err)
		require.Equal(t, "visa", details.Brand)
	})

	t.Run("expiry in current month is accepted", func(t *testing.T) {
		_, err := validateCardAt("4242424242424242", 3, 2026, "", now)
		require.NoError(t, err)
	})

	t.Run("expired card", func(t *testing.T) {
		_, err := validateCardAt("4242424242424242", 2, 2026, "", now)
		require.Error(t, err)
		require.True(t, policy.IsValidation(err))
	})

	t.Run("year before current", func(t *testing.T) {
		_, err := validateCardAt("4242424242424242", 12, 2025, "", now)
		require.Error(t, err)
	})

	t.Run("year too far out", func(t *testing.T) {
		_, err := validateCardAt("4242424242424242", 12, 2042, "", now)
		require.Error(t, err)
	})

	t.Run("month out of range", func(t *testing.T) {
		_, err := validateCardAt("4242424242424242", 13, 2027, "", now)
		require.Error(t, err)
		_, err = validateCardAt("4242424242424242", 0, 2027, "", now)
		require.Error(t, err)
	})

	t.Run("number too short", func(t *testing.T) {
		_, err := validateCardAt("42424242424", 12, 2027, "", now)
		require.Error(t, err)
	})

	t.Run("number too long", func(t *testing.T) {
		_, err := validateCardAt("42424242424242424242", 12, 2027, "", now)
		require.Error(t, err)
	})

	t.Run("non-digit characters rejected", func(t *testing.T) {
		_, err := validateCardAt("4242abcd42424242", 12, 2027, "", now)
		require.Error(t, err)
	})
}
