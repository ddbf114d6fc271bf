package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

type notificationService struct {
	repo ports.NotificationRepository
	log  zerolog.Logger
}

// NewNotificationService returns a NotificationService implementation.
func NewNotificationService(repo ports.NotificationRepository, log zerolog.Logger) ports.NotificationService {
	return &notificationService{repo: repo, log: log}
}

// Deliver persists a notification for its user.
func (s *notificationService) Deliver(ctx context.Context, in ports.NotificationInput) error {
	if in.UserID == "" || in.Message == "" {
		return domain.InvalidInput("notification requires user and message")
	}
	_, err := s.repo.Insert(ctx, &domain.Notification{
		UserID:    in.UserID,
		Message:   in.Message,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

func (s *notificationService) List(ctx context.Context, caller domain.Identity) ([]*domain.Notification, error) {
	return s.repo.ListByUser(ctx, caller.UserID)
}

func (s *notificationService) MarkRead(ctx context.Context, caller domain.Identity, id string) error {
	return s.repo.MarkRead(ctx, id, caller.UserID)
}
