package config

import (
	"time"
)

type RegistrationConfig struct {
	OTPLength              int           `yaml:"otp_length"`
	VerificationOTPTTL     time.Duration `yaml:"verification_otp_ttl"`
	ResetOTPTTL            time.Duration `yaml:"reset_otp_ttl"`
	PendingRegistrationTTL time.Duration `yaml:"pending_registration_ttl"`
	// ExposeOTP echoes generated codes in API responses. Forced off in production.
	ExposeOTP bool `yaml:"expose_otp"`
}

type ReferralConfig struct {
	FirstBookingCredits int64 `yaml:"first_booking_credits"`
	BonusTierCredits    int64 `yaml:"bonus_tier_credits"`
	BonusTierThreshold  int64 `yaml:"bonus_tier_threshold"`
}

func loadRegistrationConfig() *RegistrationConfig {
	return &RegistrationConfig{
		OTPLength:              getEnvAsInt("OTP_LENGTH", 6),
		VerificationOTPTTL:     getEnvAsDuration("OTP_VERIFICATION_TTL", 10*time.Minute),
		ResetOTPTTL:            getEnvAsDuration("OTP_RESET_TTL", 15*time.Minute),
		PendingRegistrationTTL: getEnvAsDuration("PENDING_REGISTRATION_TTL", 15*time.Minute),
		ExposeOTP:              getEnvAsBool("OTP_EXPOSE", true),
	}
}

func loadReferralConfig() *ReferralConfig {
	return &ReferralConfig{
		FirstBookingCredits: getEnvAsInt64("REFERRAL_FIRST_BOOKING_CREDITS", 10),
		BonusTierCredits:    getEnvAsInt64("REFERRAL_BONUS_TIER_CREDITS", 5),
		BonusTierThreshold:  getEnvAsInt64("REFERRAL_BONUS_TIER_THRESHOLD", 3),
	}
}
