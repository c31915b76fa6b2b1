package utils

import (
	"strings"
	"time"
)

// GenerateOTP returns a fixed-width numeric code drawn from crypto/rand.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = OTPLength
	}
	return GenerateRandomNumericString(length)
}

// ValidateOTP reports whether submitted matches stored and the code is still
// live. Expiry is strict: a code is dead at the expiry instant.
func ValidateOTP(submitted, stored string, expiry *time.Time, now time.Time) bool {
	if expiry == nil {
		return false
	}
	return MatchOTP(submitted, stored) && now.Before(*expiry)
}

// MatchOTP compares two codes ignoring surrounding whitespace. An empty stored
// code never matches.
func MatchOTP(submitted, stored string) bool {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return false
	}
	return strings.TrimSpace(submitted) == stored
}
