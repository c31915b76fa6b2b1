package mongodb

import (
	"context"
	"fmt"

	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection("bookings"),
	}
}

func (r *bookingRepository) CountCompletedByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"customer_id": customerID,
		"status":      models.BookingStatusCompleted,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count completed bookings: %w", err)
	}

	return count, nil
}
