package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Registration.VerificationOTPTTL != 10*time.Minute {
		t.Errorf("verification ttl = %v, want 10m", cfg.Registration.VerificationOTPTTL)
	}
	if cfg.Registration.ResetOTPTTL != 15*time.Minute {
		t.Errorf("reset ttl = %v, want 15m", cfg.Registration.ResetOTPTTL)
	}
	if cfg.Registration.PendingRegistrationTTL != 15*time.Minute {
		t.Errorf("pending ttl = %v, want 15m", cfg.Registration.PendingRegistrationTTL)
	}
	if cfg.Registration.OTPLength != 6 {
		t.Errorf("otp length = %d, want 6", cfg.Registration.OTPLength)
	}
	if !cfg.Registration.ExposeOTP {
		t.Error("codes should be exposed outside production")
	}
	if cfg.Referral.BonusTierThreshold != 3 {
		t.Errorf("bonus threshold = %d, want 3", cfg.Referral.BonusTierThreshold)
	}
}

func TestLoadProductionHidesOTP(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("OTP_EXPOSE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatal("expected production config")
	}
	if cfg.Registration.ExposeOTP {
		t.Error("production must never expose codes")
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for the default secret in production")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.Security.JWTSecret = "" }},
		{"zero otp length", func(c *Config) { c.Registration.OTPLength = 0 }},
		{"threshold of one", func(c *Config) { c.Referral.BonusTierThreshold = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	got := getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("got %q", got)
	}
}
