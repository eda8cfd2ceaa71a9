package service

import (
	"context"
	"fmt"

	"github.com/clipshare/api/internal/model"
)

// SubscriberStore resolves the subscriber set of a creator.
type SubscriberStore interface {
	Subscribers(ctx context.Context, creatorID string) ([]string, error)
}

// NotificationStore persists notification records.
type NotificationStore interface {
	Add(ctx context.Context, userID, message, link string) error
	ListForUser(ctx context.Context, userID string) ([]model.Notification, error)
	Dismiss(ctx context.Context, userID, id string) error
}

// NotificationService materializes notifications for platform events,
// chiefly the per-subscriber fan-out when a video is published.
type NotificationService struct {
	subscribers   SubscriberStore
	notifications NotificationStore
}

func NewNotificationService(subscribers SubscriberStore, notifications NotificationStore) *NotificationService {
	return &NotificationService{
		subscribers:   subscribers,
		notifications: notifications,
	}
}

// FanOutUploadNotifications creates one notification per current subscriber
// of the video's creator, linking to the video's watch page. Returns the
// number of records created. A failure on one subscriber aborts the
// fan-out; records already written stay.
func (s *NotificationService) FanOutUploadNotifications(ctx context.Context, video *model.Video) (int, error) {
	subscriberIDs, err := s.subscribers.Subscribers(ctx, video.CreatorID)
	if err != nil {
		return 0, fmt.Errorf("resolve subscribers of %s: %w", video.CreatorID, err)
	}

	message := fmt.Sprintf("New video: %s", video.Title)
	link := video.WatchLink()

	created := 0
	for _, userID := range subscriberIDs {
		if err := s.notifications.Add(ctx, userID, message, link); err != nil {
			return created, fmt.Errorf("notify %s: %w", userID, err)
		}
		created++
	}
	return created, nil
}

// ListForUser returns a user's open notifications.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	return s.notifications.ListForUser(ctx, userID)
}

// Dismiss deletes a notification for good.
func (s *NotificationService) Dismiss(ctx context.Context, userID, id string) error {
	return s.notifications.Dismiss(ctx, userID, id)
}
