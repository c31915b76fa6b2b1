package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeReferralRewardEarned NotificationType = "REFERRAL_REWARD_EARNED"
	NotificationTypeRegistrationComplete NotificationType = "REGISTRATION_COMPLETE"
	NotificationTypeGeneral              NotificationType = "GENERAL"
)

type Notification struct {
	ID          primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	RecipientID primitive.ObjectID     `json:"recipient_id" bson:"recipient_id"`
	SenderID    *primitive.ObjectID    `json:"sender_id,omitempty" bson:"sender_id,omitempty"`
	Type        NotificationType       `json:"type" bson:"type"`
	Title       string                 `json:"title" bson:"title"`
	Message     string                 `json:"message" bson:"message"`
	Data        map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	IsRead      bool                   `json:"is_read" bson:"is_read"`
	ReadAt      *time.Time             `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" bson:"updated_at"`
}
