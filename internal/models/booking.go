package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is owned by the booking service. This service only counts them.
type Booking struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	ProviderID primitive.ObjectID `json:"provider_id" bson:"provider_id"`
	Status     BookingStatus      `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// BookingCompletedEvent is published on the booking-completed subject.
type BookingCompletedEvent struct {
	BookingID   string    `json:"booking_id"`
	CustomerID  string    `json:"customer_id"`
	CompletedAt time.Time `json:"completed_at"`
}
