package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type referralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) interfaces.ReferralRepository {
	return &referralRepository{
		collection: db.Collection("referrals"),
	}
}

func (r *referralRepository) GetByRefereeID(ctx context.Context, refereeID primitive.ObjectID) (*models.Referral, error) {
	return r.findOne(ctx, bson.M{"referee_id": refereeID})
}

func (r *referralRepository) GetPendingByRefereeID(ctx context.Context, refereeID primitive.ObjectID) (*models.Referral, error) {
	return r.findOne(ctx, bson.M{
		"referee_id": refereeID,
		"status":     models.ReferralStatusPending,
	})
}

func (r *referralRepository) SaveProgress(ctx context.Context, referral *models.Referral, expected models.ReferralFlags) error {
	referral.UpdatedAt = time.Now()

	filter := bson.M{
		"_id":                          referral.ID,
		"status":                       models.ReferralStatusPending,
		"first_booking_credit_awarded": expected.FirstBookingCreditAwarded,
		"bonus_tier_credit_awarded":    expected.BonusTierCreditAwarded,
		"completed_bookings_count":     bson.M{"$lte": referral.CompletedBookingsCount},
	}
	set := bson.M{
		"completed_bookings_count":     referral.CompletedBookingsCount,
		"first_booking_credit_awarded": referral.FirstBookingCreditAwarded,
		"bonus_tier_credit_awarded":    referral.BonusTierCreditAwarded,
		"credits_earned":               referral.CreditsEarned,
		"status":                       referral.Status,
		"updated_at":                   referral.UpdatedAt,
	}
	if referral.CompletedAt != nil {
		set["completed_at"] = referral.CompletedAt
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to save referral progress: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *referralRepository) findOne(ctx context.Context, filter bson.M) (*models.Referral, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var referral models.Referral
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&referral); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}

	return &referral, nil
}
