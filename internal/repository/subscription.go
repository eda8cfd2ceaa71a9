package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type SubscriptionRepository struct {
	rdb *redis.Client
}

func NewSubscriptionRepository(rdb *redis.Client) *SubscriptionRepository {
	return &SubscriptionRepository{rdb: rdb}
}

func subscribersKey(creatorID string) string {
	return fmt.Sprintf("subscribers:%s", creatorID)
}

func subscriptionsKey(userID string) string {
	return fmt.Sprintf("subscriptions:%s", userID)
}

func (r *SubscriptionRepository) Subscribe(ctx context.Context, userID, creatorID string) error {
	pipe := r.rdb.Pipeline()
	pipe.SAdd(ctx, subscribersKey(creatorID), userID)
	pipe.SAdd(ctx, subscriptionsKey(userID), creatorID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, userID, creatorID string) error {
	pipe := r.rdb.Pipeline()
	pipe.SRem(ctx, subscribersKey(creatorID), userID)
	pipe.SRem(ctx, subscriptionsKey(userID), creatorID)
	_, err := pipe.Exec(ctx)
	return err
}

// Subscribers returns the ids of every user subscribed to a creator.
func (r *SubscriptionRepository) Subscribers(ctx context.Context, creatorID string) ([]string, error) {
	return r.rdb.SMembers(ctx, subscribersKey(creatorID)).Result()
}

// Subscriptions returns the creator ids one user follows.
func (r *SubscriptionRepository) Subscriptions(ctx context.Context, userID string) ([]string, error) {
	return r.rdb.SMembers(ctx, subscriptionsKey(userID)).Result()
}

func (r *SubscriptionRepository) IsSubscribed(ctx context.Context, userID, creatorID string) (bool, error) {
	return r.rdb.SIsMember(ctx, subscribersKey(creatorID), userID).Result()
}
