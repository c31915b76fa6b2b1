package interfaces

import (
	"context"

	"goclean/internal/models"
	"goclean/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationRepository scopes every mutation to the recipient so one user
// can never touch another's notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByRecipient(ctx context.Context, recipientID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) (bool, error)
	MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, recipientID primitive.ObjectID) (bool, error)
}
