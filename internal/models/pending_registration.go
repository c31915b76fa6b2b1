package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingRegistration is the staging row written next to a PARTIAL identity.
// The store removes it PendingRegistrationTTL after CreatedAt.
type PendingRegistration struct {
	ID                         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID                     primitive.ObjectID `json:"user_id" bson:"user_id"`
	UserName                   string             `json:"user_name" bson:"user_name"`
	Email                      string             `json:"email" bson:"email"`
	Phone                      string             `json:"phone" bson:"phone"`
	Password                   string             `json:"-" bson:"password"`
	ReferralCode               string             `json:"referral_code,omitempty" bson:"referral_code,omitempty"`
	EmailVerificationOTP       string             `json:"-" bson:"email_verification_otp"`
	EmailVerificationOTPExpiry time.Time          `json:"-" bson:"email_verification_otp_expiry"`
	CreatedAt                  time.Time          `json:"created_at" bson:"created_at"`
}

// IsAbandoned reports whether the row has outlived ttl. The TTL monitor
// deletes lazily, so an expired row may still be readable.
func (p *PendingRegistration) IsAbandoned(now time.Time, ttl time.Duration) bool {
	return !now.Before(p.CreatedAt.Add(ttl))
}

func NewPendingRegistration(u *User, now time.Time) *PendingRegistration {
	p := &PendingRegistration{
		UserID:               u.ID,
		UserName:             u.UserName,
		Email:                u.Email,
		Phone:                u.Phone,
		Password:             u.Password,
		ReferralCode:         u.ReferralCode,
		EmailVerificationOTP: u.EmailVerificationOTP,
		CreatedAt:            now,
	}
	if u.EmailVerificationOTPExpiry != nil {
		p.EmailVerificationOTPExpiry = *u.EmailVerificationOTPExpiry
	}
	return p
}
