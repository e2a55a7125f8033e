package store

import (
	"context"
	"errors"

	"github.com/nhle/notification-sync/internal/model"
)

// ErrNotFound is returned when a notification id does not exist.
var ErrNotFound = errors.New("notification not found")

// NotificationFilter controls filtering and pagination for notification
// queries. Results are always ordered newest first, ties by id.
type NotificationFilter struct {
	Read   *bool
	Limit  int
	Offset int
}

// Repository defines the persistence interface the notification service
// is built on. Every query is scoped to one user.
type Repository interface {
	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID string, filter NotificationFilter) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkNotificationRead reports whether the record changed.
	MarkNotificationRead(ctx context.Context, id string) (bool, error)

	// MarkAllNotificationsRead returns how many records changed.
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}
