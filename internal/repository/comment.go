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

type CommentRepository struct {
	rdb *redis.Client
}

func NewCommentRepository(rdb *redis.Client) *CommentRepository {
	return &CommentRepository{rdb: rdb}
}

func commentKey(id string) string { return fmt.Sprintf("comment:%s", id) }

func videoCommentsKey(videoID string) string {
	return fmt.Sprintf("video:comments:%s", videoID)
}

func (r *CommentRepository) Add(ctx context.Context, videoID, authorID, text string) (*model.Comment, error) {
	c := model.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	pipe := r.rdb.Pipeline()
	pipe.Set(ctx, commentKey(c.ID), data, 0)
	pipe.RPush(ctx, videoCommentsKey(videoID), c.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepository) ListForVideo(ctx context.Context, videoID string) ([]model.Comment, error) {
	ids, err := r.rdb.LRange(ctx, videoCommentsKey(videoID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.Comment, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, commentKey(id)).Bytes()
		if err != nil {
			continue
		}
		var c model.Comment
		if err := json.Unmarshal(data, &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CommentRepository) Delete(ctx context.Context, videoID, id string) error {
	removed, err := r.rdb.LRem(ctx, videoCommentsKey(videoID), 0, id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return apperr.NotFound("comment %s on video %s", id, videoID)
	}
	return r.rdb.Del(ctx, commentKey(id)).Err()
}

// DeleteAllForVideo removes a video's comment thread, used when the video
// itself is deleted.
func (r *CommentRepository) DeleteAllForVideo(ctx context.Context, videoID string) error {
	ids, err := r.rdb.LRange(ctx, videoCommentsKey(videoID), 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := r.rdb.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, commentKey(id))
	}
	pipe.Del(ctx, videoCommentsKey(videoID))
	_, err = pipe.Exec(ctx)
	return err
}
