package services

import (
	"context"
	"errors"
	"fmt"

	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"
	"goclean/internal/utils"
	"goclean/pkg/logger"
	"goclean/pkg/metrics"
	"goclean/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RealtimePublisher pushes an event to whatever live connections the user
// holds. A user with no connection is not an error.
type RealtimePublisher interface {
	PublishToUser(ctx context.Context, userID primitive.ObjectID, event string, data interface{}) error
}

type NotificationService interface {
	CreateNotification(ctx context.Context, request *CreateNotificationRequest) (*models.Notification, error)
	GetNotifications(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) (*NotificationList, error)
	MarkAsRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteNotification(ctx context.Context, userID, notificationID primitive.ObjectID) error
}

type CreateNotificationRequest struct {
	RecipientID primitive.ObjectID
	SenderID    *primitive.ObjectID
	Type        models.NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
}

type NotificationList struct {
	Notifications []*models.Notification `json:"notifications"`
	Pagination    *utils.PaginationMeta  `json:"pagination"`
	UnreadCount   int64                  `json:"unread_count"`
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	userRepo         interfaces.UserRepository
	realtime         RealtimePublisher
	pushProvider     push.PushProvider
	logger           *logger.Logger
}

// NewNotificationService wires the notification store with its delivery
// channels. realtime and pushProvider may be nil.
func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	userRepo interfaces.UserRepository,
	realtime RealtimePublisher,
	pushProvider push.PushProvider,
	log *logger.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		realtime:         realtime,
		pushProvider:     pushProvider,
		logger:           log,
	}
}

// CreateNotification persists the notification and then attempts live and
// push delivery. Delivery failures are logged only.
func (s *notificationService) CreateNotification(ctx context.Context, request *CreateNotificationRequest) (*models.Notification, error) {
	notification := &models.Notification{
		RecipientID: request.RecipientID,
		SenderID:    request.SenderID,
		Type:        request.Type,
		Title:       request.Title,
		Message:     request.Message,
		Data:        request.Data,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, utils.NewInternalError("failed to create notification", err)
	}
	metrics.NotificationsTotal.WithLabelValues(string(notification.Type)).Inc()

	s.deliver(ctx, notification)

	return notification, nil
}

func (s *notificationService) deliver(ctx context.Context, notification *models.Notification) {
	log := s.logger.WithContext(ctx).WithUserID(notification.RecipientID).
		WithField("notification_id", notification.ID.Hex())

	if s.realtime != nil {
		if err := s.realtime.PublishToUser(ctx, notification.RecipientID, utils.EventNewNotification, notification); err != nil {
			metrics.SideEffectFailuresTotal.WithLabelValues("realtime").Inc()
			log.WithError(err).Warn("Failed to publish live notification")
		}
	}

	if s.pushProvider == nil {
		return
	}

	recipient, err := s.userRepo.GetByID(ctx, notification.RecipientID)
	if err != nil {
		log.WithError(err).Warn("Failed to load push recipient")
		return
	}
	if recipient.PushToken == "" {
		return
	}

	_, err = s.pushProvider.SendNotification(ctx, &push.NotificationRequest{
		Token:    recipient.PushToken,
		Title:    notification.Title,
		Body:     notification.Message,
		Data:     pushData(notification),
		Priority: "high",
	})
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("push").Inc()
		log.WithError(err).Warn("Failed to send push notification")
	}
}

// pushData flattens notification data into the string map push providers
// accept.
func pushData(notification *models.Notification) map[string]string {
	data := map[string]string{
		"notification_id": notification.ID.Hex(),
		"type":            string(notification.Type),
	}
	for key, value := range notification.Data {
		data[key] = fmt.Sprint(value)
	}
	return data
}

func (s *notificationService) GetNotifications(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) (*NotificationList, error) {
	notifications, total, err := s.notificationRepo.GetByRecipient(ctx, userID, params)
	if err != nil {
		return nil, utils.NewInternalError("failed to list notifications", err)
	}

	unread, err := s.notificationRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, utils.NewInternalError("failed to count unread notifications", err)
	}

	return &NotificationList{
		Notifications: notifications,
		Pagination:    utils.CreatePaginationMeta(params, total),
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	found, err := s.notificationRepo.MarkAsRead(ctx, notificationID, userID)
	if err != nil {
		return utils.NewInternalError("failed to mark notification as read", err)
	}
	if !found {
		return utils.NewNotFoundError(utils.ErrNotificationNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := s.notificationRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, utils.NewInternalError("failed to mark notifications as read", err)
	}
	return count, nil
}

func (s *notificationService) DeleteNotification(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	found, err := s.notificationRepo.Delete(ctx, notificationID, userID)
	if err != nil {
		return utils.NewInternalError("failed to delete notification", err)
	}
	if !found {
		return utils.NewNotFoundError(utils.ErrNotificationNotFound)
	}
	return nil
}

// notifyBestEffort records a notification and logs instead of failing.
func notifyBestEffort(ctx context.Context, notifier NotificationService, log *logger.Logger, request *CreateNotificationRequest) {
	if notifier == nil {
		return
	}
	if _, err := notifier.CreateNotification(ctx, request); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("notification").Inc()
		log.WithContext(ctx).WithUserID(request.RecipientID).WithError(err).Error("Failed to create notification")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, interfaces.ErrNotFound)
}
