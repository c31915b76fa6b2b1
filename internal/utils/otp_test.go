package utils

import (
	"testing"
	"time"
)

func TestGenerateOTP(t *testing.T) {
	code, err := GenerateOTP(6)
	if err != nil {
		t.Fatalf("GenerateOTP: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}

	if code, _ := GenerateOTP(0); len(code) != OTPLength {
		t.Errorf("non-positive length should fall back to %d, got %q", OTPLength, code)
	}
}

func TestValidateOTP(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	live := now.Add(time.Minute)
	atNow := now

	tests := []struct {
		name      string
		submitted string
		stored    string
		expiry    *time.Time
		want      bool
	}{
		{"match", "123456", "123456", &live, true},
		{"surrounding whitespace", " 123456\n", "123456", &live, true},
		{"wrong code", "654321", "123456", &live, false},
		{"expired at instant", "123456", "123456", &atNow, false},
		{"no expiry", "123456", "123456", nil, false},
		{"nothing stored", "", "", &live, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateOTP(tt.submitted, tt.stored, tt.expiry, now); got != tt.want {
				t.Errorf("ValidateOTP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchOTPRejectsEmptyStoredCode(t *testing.T) {
	if MatchOTP("   ", "") {
		t.Error("an empty stored code must never match")
	}
}
