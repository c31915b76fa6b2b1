package interfaces

import (
	"context"

	"goclean/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralRepository interface {
	GetByRefereeID(ctx context.Context, refereeID primitive.ObjectID) (*models.Referral, error)
	GetPendingByRefereeID(ctx context.Context, refereeID primitive.ObjectID) (*models.Referral, error)
	// SaveProgress writes the mutable progress fields of referral, but only
	// while the stored record is still PENDING with the expected tier flags
	// and a completed count no higher than the one being written. Returns
	// ErrNotFound when that guard fails.
	SaveProgress(ctx context.Context, referral *models.Referral, expected models.ReferralFlags) error
}
