package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/model"
)

type NotificationRepository struct {
	rdb *redis.Client
}

func NewNotificationRepository(rdb *redis.Client) *NotificationRepository {
	return &NotificationRepository{rdb: rdb}
}

func notificationKey(id string) string {
	return fmt.Sprintf("notification:%s", id)
}

func userNotificationsKey(userID string) string {
	return fmt.Sprintf("user:notifications:%s", userID)
}

// Add creates one notification record for a user.
func (r *NotificationRepository) Add(ctx context.Context, userID, message, link string) error {
	n := model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()
	pipe.Set(ctx, notificationKey(n.ID), data, 0)
	pipe.SAdd(ctx, userNotificationsKey(userID), n.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	ids, err := r.rdb.SMembers(ctx, userNotificationsKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.Notification, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, notificationKey(id)).Bytes()
		if err != nil {
			continue
		}
		var n model.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Dismiss deletes a notification. Dismissal is deletion; there is no read
// flag.
func (r *NotificationRepository) Dismiss(ctx context.Context, userID, id string) error {
	removed, err := r.rdb.SRem(ctx, userNotificationsKey(userID), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return apperr.NotFound("notification %s for user %s", id, userID)
	}
	return r.rdb.Del(ctx, notificationKey(id)).Err()
}
