package sync

import (
	"context"

	"github.com/nhle/notification-sync/internal/model"
)

// Transport is the request/response boundary to the notification
// service, bound to one identity.
type Transport interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	UnreadCount(ctx context.Context) (int, error)
}

// Connector builds the Transport for an identity, typically by binding
// its token to an HTTP client.
type Connector func(identity model.Identity) Transport
