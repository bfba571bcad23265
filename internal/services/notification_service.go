package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService creates and manages in-app notifications for
// operator accounts
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// NotifyUser creates a notification for one user
func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, title, message, notificationType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notificationType,
	}
	return s.notificationRepo.Create(ctx, notification)
}

// NotifyAdmins creates a notification for every active admin. Failures are
// logged, not returned: notifications never fail the operation that
// triggered them.
func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notificationType string) {
	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		logger.Error("Failed to load admins for notification", "error", err)
		return
	}
	for _, admin := range admins {
		if err := s.NotifyUser(ctx, admin.ID, title, message, notificationType); err != nil {
			logger.Error("Failed to create notification", "user_id", admin.ID, "error", err)
		}
	}
}

// FindByUser returns a user's notifications, optionally unread only
func (s *NotificationService) FindByUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	return s.notificationRepo.FindByUser(ctx, userID, unreadOnly)
}

// MarkAsRead marks one notification as read, verifying ownership
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) error {
	notification, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %d", ErrNotFound, id)
		}
		return err
	}
	if notification.UserID != userID {
		return ErrUnauthorized
	}
	return s.notificationRepo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all of a user's notifications as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllAsRead(ctx, userID)
}

// Delete removes a notification, verifying ownership
func (s *NotificationService) Delete(ctx context.Context, id, userID uint) error {
	notification, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %d", ErrNotFound, id)
		}
		return err
	}
	if notification.UserID != userID {
		return ErrUnauthorized
	}
	return s.notificationRepo.Delete(ctx, id)
}
