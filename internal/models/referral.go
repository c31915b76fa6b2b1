package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralStatus string
type ReferralRewardType string

const (
	ReferralStatusPending   ReferralStatus = "PENDING"
	ReferralStatusCompleted ReferralStatus = "COMPLETED"

	ReferralRewardFirstBooking ReferralRewardType = "first_booking"
	ReferralRewardBonusTier    ReferralRewardType = "bonus_tier"
)

// Referral links a referrer to a referee and tracks which reward tiers have
// been paid out. Each flag flips false to true at most once.
type Referral struct {
	ID                        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReferrerID                primitive.ObjectID `json:"referrer_id" bson:"referrer_id"`
	RefereeID                 primitive.ObjectID `json:"referee_id" bson:"referee_id"`
	RefereeName               string             `json:"referee_name" bson:"referee_name"`
	Status                    ReferralStatus     `json:"status" bson:"status"`
	CompletedBookingsCount    int64              `json:"completed_bookings_count" bson:"completed_bookings_count"`
	FirstBookingCreditAwarded bool               `json:"first_booking_credit_awarded" bson:"first_booking_credit_awarded"`
	BonusTierCreditAwarded    bool               `json:"bonus_tier_credit_awarded" bson:"bonus_tier_credit_awarded"`
	CreditsEarned             int64              `json:"credits_earned" bson:"credits_earned"`
	CompletedAt               *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt                 time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt                 time.Time          `json:"updated_at" bson:"updated_at"`
}

// ReferralFlags is the tier state a ledger write expects to find.
type ReferralFlags struct {
	FirstBookingCreditAwarded bool
	BonusTierCreditAwarded    bool
}

func (r *Referral) Flags() ReferralFlags {
	return ReferralFlags{
		FirstBookingCreditAwarded: r.FirstBookingCreditAwarded,
		BonusTierCreditAwarded:    r.BonusTierCreditAwarded,
	}
}

type ReferralProgress struct {
	HasReferrer              bool   `json:"has_referrer"`
	CompletedBookings        int64  `json:"completed_bookings"`
	FirstBookingRewardEarned bool   `json:"first_booking_reward_earned"`
	BonusTierRewardEarned    bool   `json:"bonus_tier_reward_earned"`
	NextRewardAt             *int64 `json:"next_reward_at"`
	NextRewardAmount         *int64 `json:"next_reward_amount"`
}
