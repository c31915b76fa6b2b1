package interfaces

import (
	"context"

	"goclean/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PendingRegistrationRepository interface {
	Create(ctx context.Context, pending *models.PendingRegistration) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.PendingRegistration, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.PendingRegistration, error)
	// Upsert replaces the staging row for pending.UserID, creating it if the
	// TTL monitor already removed it.
	Upsert(ctx context.Context, pending *models.PendingRegistration) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}
