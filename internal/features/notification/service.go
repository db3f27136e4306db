package notification

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type NotificationService interface {
	Notify(ctx context.Context, userID primitive.ObjectID, notifType NotificationType, title, message, link string) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error
}

type NotificationServiceImpl struct {
	repo NotificationRepository
	hub  *Hub
	log  *zap.Logger
}

func NewNotificationService(repo NotificationRepository, hub *Hub, log *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		repo: repo,
		hub:  hub,
		log:  log,
	}
}

// Notify persists the notification and pushes it to the user's live sockets
func (s *NotificationServiceImpl) Notify(ctx context.Context, userID primitive.ObjectID, notifType NotificationType, title, message, link string) error {
	n := &Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if delivered := s.hub.Publish(userID.Hex(), payload); delivered > 0 {
		s.log.Debug("notification pushed", zap.String("user_id", userID.Hex()), zap.Int("sockets", delivered))
	}
	return nil
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Paginate clamps the requested page and page size to the served range
func Paginate(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return page, limit
}

func (s *NotificationServiceImpl) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	page, limit = Paginate(page, limit)
	return s.repo.ListByUser(ctx, userID, limit, (page-1)*limit)
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
