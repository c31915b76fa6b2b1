package interfaces

import (
	"context"
	"time"

	"goclean/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository stores identities. Soft-deleted identities are invisible to
// every method.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.User, error)

	// RestartRegistration overwrites an abandoned PARTIAL identity with a
	// fresh registration attempt. ErrNotFound if it is no longer PARTIAL.
	RestartRegistration(ctx context.Context, user *models.User) error
	// ReleaseAbandoned soft-deletes a PARTIAL identity and frees its email and
	// phone. ErrNotFound if it is no longer PARTIAL.
	ReleaseAbandoned(ctx context.Context, id primitive.ObjectID) error
	SetOTP(ctx context.Context, id primitive.ObjectID, purpose models.OTPPurpose, code string, expiry time.Time) error
	// SetRegistrationOTP replaces the completion code of an EMAIL_VERIFIED
	// identity. ErrNotFound once the identity has moved on.
	SetRegistrationOTP(ctx context.Context, id primitive.ObjectID, code string) error

	// Guarded transitions. Each matches only while the stored stage and code
	// still equal the expected values and returns ErrNotFound otherwise.
	MarkEmailVerified(ctx context.Context, id primitive.ObjectID, verificationOTP string) (*models.User, error)
	CompleteRegistration(ctx context.Context, id primitive.ObjectID, registrationOTP string, profile *models.ProfileCompletion) (*models.User, error)
	ResetPassword(ctx context.Context, id primitive.ObjectID, resetOTP, hashedPassword string) error

	UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error
	UpdateLoginInfo(ctx context.Context, id primitive.ObjectID, pushToken string, loginAt time.Time) error
	IncrementCredits(ctx context.Context, id primitive.ObjectID, delta int64) error
}
