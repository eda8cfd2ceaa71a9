// Package repository persists platform entities in Redis. Entities are
// stored as JSON blobs at typed keys with set indexes for listing, and view
// counters live in separate INCRBY keys so concurrent increments never
// fight the blob writes.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/model"
)

type VideoRepository struct {
	rdb *redis.Client
}

func NewVideoRepository(rdb *redis.Client) *VideoRepository {
	return &VideoRepository{rdb: rdb}
}

func videoKey(id string) string      { return fmt.Sprintf("video:%s", id) }
func videoViewsKey(id string) string { return fmt.Sprintf("video:views:%s", id) }
func creatorVideosKey(creatorID string) string {
	return fmt.Sprintf("user:videos:%s", creatorID)
}

const allVideosKey = "videos"

func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	if err := r.save(ctx, video); err != nil {
		return err
	}
	pipe := r.rdb.Pipeline()
	pipe.SAdd(ctx, allVideosKey, video.ID)
	pipe.SAdd(ctx, creatorVideosKey(video.CreatorID), video.ID)
	_, err := pipe.Exec(ctx)
	return err
}

// GetByID loads a video and folds the pending view counter into ViewCount.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	data, err := r.rdb.Get(ctx, videoKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperr.NotFound("video %s", id)
		}
		return nil, err
	}

	var video model.Video
	if err := json.Unmarshal(data, &video); err != nil {
		return nil, err
	}

	views, err := r.rdb.Get(ctx, videoViewsKey(id)).Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	video.ViewCount = views

	return &video, nil
}

// UpdateStatus moves the video to a new processing status.
func (r *VideoRepository) UpdateStatus(ctx context.Context, id string, status model.VideoStatus) error {
	video, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	video.Status = status
	return r.save(ctx, video)
}

// UpdateViewCount applies an accumulated view delta atomically.
func (r *VideoRepository) UpdateViewCount(ctx context.Context, id string, delta int64) error {
	exists, err := r.rdb.Exists(ctx, videoKey(id)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return apperr.NotFound("video %s", id)
	}
	return r.rdb.IncrBy(ctx, videoViewsKey(id), delta).Err()
}

// SetSources replaces the published artifact links on the video.
func (r *VideoRepository) SetSources(ctx context.Context, id string, sources []model.VideoSource) error {
	video, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	video.Sources = sources
	return r.save(ctx, video)
}

// Update persists metadata edits made by the API layer.
func (r *VideoRepository) Update(ctx context.Context, video *model.Video) error {
	if _, err := r.GetByID(ctx, video.ID); err != nil {
		return err
	}
	return r.save(ctx, video)
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	video, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, videoKey(id), videoViewsKey(id))
	pipe.SRem(ctx, allVideosKey, id)
	pipe.SRem(ctx, creatorVideosKey(video.CreatorID), id)
	_, err = pipe.Exec(ctx)
	return err
}

// List returns every listed video. Unlisted videos stay out unless
// includeUnlisted is set.
func (r *VideoRepository) List(ctx context.Context, includeUnlisted bool) ([]model.Video, error) {
	ids, err := r.rdb.SMembers(ctx, allVideosKey).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		video, err := r.GetByID(ctx, id)
		if err != nil {
			continue // index may be ahead of a delete
		}
		if video.Unlisted && !includeUnlisted {
			continue
		}
		out = append(out, *video)
	}
	return out, nil
}

// ListByCreator returns all videos uploaded by one creator.
func (r *VideoRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.Video, error) {
	ids, err := r.rdb.SMembers(ctx, creatorVideosKey(creatorID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		video, err := r.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *video)
	}
	return out, nil
}

func (r *VideoRepository) save(ctx context.Context, video *model.Video) error {
	// The counter key owns the live count; the blob keeps the last folded
	// value only.
	data, err := json.Marshal(video)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, videoKey(video.ID), data, 0).Err()
}
