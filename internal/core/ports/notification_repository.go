package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) (string, error)
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error)
	// MarkRead flags a notification as read. It only matches notifications
	// owned by userID; anything else is domain.ErrNotificationNotFound.
	MarkRead(ctx context.Context, id, userID string) error
}
