package mongodb

import (
	"context"
	"errors"
	"fmt"

	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type pendingRegistrationRepository struct {
	collection *mongo.Collection
}

func NewPendingRegistrationRepository(db *mongo.Database) interfaces.PendingRegistrationRepository {
	return &pendingRegistrationRepository{
		collection: db.Collection("pending_registrations"),
	}
}

func (r *pendingRegistrationRepository) Create(ctx context.Context, pending *models.PendingRegistration) error {
	if pending.ID.IsZero() {
		pending.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, pending); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create pending registration: %w", interfaces.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create pending registration: %w", err)
	}

	return nil
}

func (r *pendingRegistrationRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.PendingRegistration, error) {
	var pending models.PendingRegistration
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&pending); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pending registration: %w", err)
	}

	return &pending, nil
}

func (r *pendingRegistrationRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.PendingRegistration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"$or": []bson.M{
			{"email": email},
			{"phone": phone},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find pending registrations: %w", err)
	}
	defer cursor.Close(ctx)

	var pending []*models.PendingRegistration
	if err := cursor.All(ctx, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending registrations: %w", err)
	}

	return pending, nil
}

func (r *pendingRegistrationRepository) Upsert(ctx context.Context, pending *models.PendingRegistration) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"user_id": pending.UserID}, pending, opts); err != nil {
		return fmt.Errorf("failed to upsert pending registration: %w", err)
	}

	return nil
}

func (r *pendingRegistrationRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete pending registration: %w", err)
	}

	return nil
}
