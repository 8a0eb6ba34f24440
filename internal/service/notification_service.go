package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
	"github.com/tmasplus/fleet-admin/internal/store"
)

// NotificationPublisher pushes a stored notification out to live dashboard
// sessions. The realtime hub implements it; a nil publisher means persist-only.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *models.Notification) error
}

type CreateNotificationInput struct {
	UserID    *uuid.UUID
	Title     string
	Message   string
	Type      string
	Data      datatypes.JSON
	BookingID *uuid.UUID
}

type NotificationService interface {
	Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[models.Notification], error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	notifications store.INotificationStorage
	publisher     NotificationPublisher
	log           logger.ILogger
}

func NewNotificationService(notifications store.INotificationStorage, publisher NotificationPublisher, log logger.ILogger) NotificationService {
	return &notificationService{notifications: notifications, publisher: publisher, log: log}
}

func (s *notificationService) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return nil, apperr.New(apperr.Validation, "", "notification needs a title and a message")
	}
	typ := input.Type
	if typ == "" {
		typ = "general"
	}

	n := &models.Notification{
		UserID:    input.UserID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Data:      input.Data,
		BookingID: input.BookingID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, apperr.FromDB(err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishNotification(ctx, n); err != nil {
			// The row is stored; delivery to live sessions is best effort.
			s.log.Warning("notification publish failed",
				logger.String("id", n.ID.String()), logger.Error(err))
		}
	}
	return n, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[models.Notification], error) {
	p = p.Normalize()
	list, total, err := s.notifications.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	result := pagination.Build(list, total, p)
	return &result, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return apperr.FromDB(err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return apperr.FromDB(err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperr.FromDB(err)
	}
	return count, nil
}
