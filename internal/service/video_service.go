package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/model"
)

var (
	// ErrNotOwner is returned when a caller acts on a video they did not
	// upload.
	ErrNotOwner = errors.New("not the video owner")

	// ErrNotPublishable is returned when a publish is requested for a
	// video that has not finished processing. No task is enqueued.
	ErrNotPublishable = errors.New("video has not finished processing")
)

// VideoRepo is the repository surface the API-facing service uses.
type VideoRepo interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id string) (*model.Video, error)
	Update(ctx context.Context, video *model.Video) error
	UpdateStatus(ctx context.Context, id string, status model.VideoStatus) error
	List(ctx context.Context, includeUnlisted bool) ([]model.Video, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.Video, error)
}

// UploadStore is the workspace store surface needed during ingestion.
type UploadStore interface {
	CreateWorkspace(location model.Location) (*model.WorkSpace, error)
	CreateWorkFile(ws *model.WorkSpace, fileType model.WorkFileType, extension string) *model.WorkFile
	FilePath(ws *model.WorkSpace, wf *model.WorkFile) string
	SaveWorkspace(ws *model.WorkSpace) error
}

// ContentValidator gatekeeps uploaded media.
type ContentValidator interface {
	ValidateVideoFile(ctx context.Context, r io.Reader) (bool, error)
}

// TaskQueue accepts background tasks. Enqueue never fails; processing
// outcome is observable through the video status.
type TaskQueue interface {
	Enqueue(task model.Task)
}

// VideoService implements the upload, publish, delete and watch flows. The
// HTTP request only ever observes "accepted"; real success or failure of
// processing surfaces later through the status field.
type VideoService struct {
	videos  VideoRepo
	store   UploadStore
	content ContentValidator
	queue   TaskQueue
	views   *ViewCounter
}

func NewVideoService(videos VideoRepo, store UploadStore, content ContentValidator, queue TaskQueue, views *ViewCounter) *VideoService {
	return &VideoService{
		videos:  videos,
		store:   store,
		content: content,
		queue:   queue,
		views:   views,
	}
}

// Upload validates the media synchronously, stages it into a temporary
// workspace, creates the video record and queues background processing.
func (s *VideoService) Upload(ctx context.Context, creatorID, title, description string, unlisted bool, filename string, data []byte) (*model.UploadVideoResponse, error) {
	ok, err := s.content.ValidateVideoFile(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("validate upload: %w", err)
	}
	if !ok {
		return nil, apperr.Validation("file %q is not an acceptable video", filename)
	}

	ws, err := s.store.CreateWorkspace(model.LocationTemporary)
	if err != nil {
		return nil, err
	}
	original := s.store.CreateWorkFile(ws, model.WorkFileOriginal, filepath.Ext(filename))
	if err := os.WriteFile(s.store.FilePath(ws, original), data, 0o644); err != nil {
		return nil, fmt.Errorf("write original: %w", err)
	}
	if err := s.store.SaveWorkspace(ws); err != nil {
		return nil, err
	}

	video := &model.Video{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatorID:   creatorID,
		WorkspaceID: ws.ID,
		Status:      model.StatusUploaded,
		Unlisted:    unlisted,
		CreatedAt:   time.Now(),
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, err
	}
	if err := s.videos.UpdateStatus(ctx, video.ID, model.StatusCreatedMetadata); err != nil {
		return nil, err
	}

	s.queue.Enqueue(model.ProcessVideo{VideoID: video.ID, WorkspaceID: ws.ID})

	return &model.UploadVideoResponse{
		ID:        video.ID,
		Status:    model.StatusCreatedMetadata,
		CreatedAt: video.CreatedAt,
	}, nil
}

func (s *VideoService) Get(ctx context.Context, id string) (*model.Video, error) {
	return s.videos.GetByID(ctx, id)
}

func (s *VideoService) List(ctx context.Context) ([]model.Video, error) {
	return s.videos.List(ctx, false)
}

func (s *VideoService) ListByCreator(ctx context.Context, creatorID string) ([]model.Video, error) {
	return s.videos.ListByCreator(ctx, creatorID)
}

// UpdateMetadata applies title/description/unlisted edits by the owner.
func (s *VideoService) UpdateMetadata(ctx context.Context, userID, videoID string, req *model.UpdateVideoRequest) (*model.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.CreatorID != userID {
		return nil, ErrNotOwner
	}

	if req.Title != "" {
		video.Title = req.Title
	}
	if req.Description != "" {
		video.Description = req.Description
	}
	if req.Unlisted != nil {
		video.Unlisted = *req.Unlisted
	}

	if err := s.videos.Update(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// Publish queues the publish transition. Only the owner may publish, and
// only a video in ProcessingFinished; anything else is rejected here,
// before any task is enqueued.
func (s *VideoService) Publish(ctx context.Context, userID, videoID string) (*model.PublishVideoResponse, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.CreatorID != userID {
		return nil, ErrNotOwner
	}
	if video.Status != model.StatusProcessingFinished {
		return nil, fmt.Errorf("%w: status is %s", ErrNotPublishable, video.Status)
	}

	s.queue.Enqueue(model.PublishVideo{VideoID: videoID})

	return &model.PublishVideoResponse{ID: videoID, Status: video.Status}, nil
}

// Delete queues removal of the video and its workspace.
func (s *VideoService) Delete(ctx context.Context, userID, videoID string) error {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if video.CreatorID != userID {
		return ErrNotOwner
	}

	s.queue.Enqueue(model.DeleteVideo{VideoID: videoID, WorkspaceID: video.WorkspaceID})
	return nil
}

// Watch records a view event. The write is absorbed by the view counter
// and reaches the repository in batches.
func (s *VideoService) Watch(ctx context.Context, videoID string) error {
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		return err
	}
	s.views.RecordView(videoID)
	return nil
}
