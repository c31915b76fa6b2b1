package interfaces

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingRepository is a read-only view over bookings.
type BookingRepository interface {
	CountCompletedByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error)
}
