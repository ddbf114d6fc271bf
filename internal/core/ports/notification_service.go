package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

// NotificationInput is a message queued for one user.
type NotificationInput struct {
	UserID  string
	Message string
}

// NotificationService stores and reads per-user notifications.
type NotificationService interface {
	Deliver(ctx context.Context, input NotificationInput) error
	List(ctx context.Context, caller domain.Identity) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, caller domain.Identity, id string) error
}

// Notifier queues notifications for asynchronous delivery.
type Notifier interface {
	Enqueue(input NotificationInput)
}
