// Package worker executes dispatched background tasks. One Worker is built
// per unit of work through the engine's scope factory, so repository
// instances are never shared between concurrently running tasks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/model"
)

// VideoStore is the slice of the video repository the worker mutates. The
// worker only ever touches status, view count and published sources.
type VideoStore interface {
	GetByID(ctx context.Context, id string) (*model.Video, error)
	UpdateStatus(ctx context.Context, id string, status model.VideoStatus) error
	UpdateViewCount(ctx context.Context, id string, delta int64) error
	SetSources(ctx context.Context, id string, sources []model.VideoSource) error
	Delete(ctx context.Context, id string) error
}

// WorkspaceStore covers the workspace operations of the processing steps.
type WorkspaceStore interface {
	LoadWorkspace(location model.Location, id string) (*model.WorkSpace, error)
	MoveWorkspace(from, to model.Location, id string) (*model.WorkSpace, error)
	DeleteWorkspace(location model.Location, id string) error
	FilePath(ws *model.WorkSpace, wf *model.WorkFile) string
}

// ContentEngine derives artifacts from staged media.
type ContentEngine interface {
	GeneratePoster(ctx context.Context, ws *model.WorkSpace, size string) (*model.WorkFile, error)
}

// Notifier fans out notifications for a published video.
type Notifier interface {
	FanOutUploadNotifications(ctx context.Context, video *model.Video) (int, error)
}

// CommentStore is used when a video is deleted.
type CommentStore interface {
	DeleteAllForVideo(ctx context.Context, videoID string) error
}

// Mailer sends transactional mail through the external mailer service.
type Mailer interface {
	SendConfirmation(ctx context.Context, userID, email string) error
}

// ObjectStorage publishes artifacts to a CDN-backed bucket. Optional; nil
// means artifacts are served from the local workspace tree only.
type ObjectStorage interface {
	UploadFile(ctx context.Context, key, path, contentType string) (string, error)
}

// Enqueuer lets units of work queue follow-up tasks.
type Enqueuer interface {
	Enqueue(task model.Task)
}

// StatusBroadcaster pushes processing state to connected clients.
type StatusBroadcaster interface {
	BroadcastStatus(videoID string, status model.VideoStatus)
}

// Worker handles every task kind. Fields that are nil are optional
// collaborators.
type Worker struct {
	videos     VideoStore
	workspaces WorkspaceStore
	content    ContentEngine
	notifier   Notifier
	comments   CommentStore
	mailer     Mailer
	storage    ObjectStorage
	queue      Enqueuer
	hub        StatusBroadcaster
	posterSize string
}

type Deps struct {
	Videos     VideoStore
	Workspaces WorkspaceStore
	Content    ContentEngine
	Notifier   Notifier
	Comments   CommentStore
	Mailer     Mailer
	Storage    ObjectStorage
	Queue      Enqueuer
	Hub        StatusBroadcaster
	PosterSize string
}

func New(deps Deps) *Worker {
	return &Worker{
		videos:     deps.Videos,
		workspaces: deps.Workspaces,
		content:    deps.Content,
		notifier:   deps.Notifier,
		comments:   deps.Comments,
		mailer:     deps.Mailer,
		storage:    deps.Storage,
		queue:      deps.Queue,
		hub:        deps.Hub,
		posterSize: deps.PosterSize,
	}
}

// Handle dispatches by task kind. The switch is exhaustive over the task
// variants; an unknown task is a programming error.
func (w *Worker) Handle(ctx context.Context, task model.Task) error {
	switch t := task.(type) {
	case model.ProcessVideo:
		return w.processVideo(ctx, t)
	case model.PublishVideo:
		return w.publishVideo(ctx, t)
	case model.DeleteVideo:
		return w.deleteVideo(ctx, t)
	case model.IncrementViewCount:
		return w.incrementViewCount(ctx, t)
	case model.GenerateUploadNotifications:
		return w.generateUploadNotifications(ctx, t)
	case model.SendConfirmationEmail:
		return w.sendConfirmationEmail(ctx, t)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind())
	}
}

// processVideo runs the ingestion pipeline for an uploaded video: mark it
// processing, derive the poster, promote the workspace to the permanent
// repository and mark the video finished. Any failure marks the video
// ProcessingFailed; there is no retry.
func (w *Worker) processVideo(ctx context.Context, t model.ProcessVideo) error {
	video, err := w.videos.GetByID(ctx, t.VideoID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Printf("worker: process: video %s gone, abandoning task", t.VideoID)
			return nil
		}
		return err
	}
	if video.Status != model.StatusUploaded && video.Status != model.StatusCreatedMetadata {
		log.Printf("worker: process: video %s in status %s, abandoning task", t.VideoID, video.Status)
		return nil
	}

	if err := w.setStatus(ctx, t.VideoID, model.StatusProcessing); err != nil {
		return err
	}

	if err := w.runProcessing(ctx, t); err != nil {
		if statusErr := w.setStatus(ctx, t.VideoID, model.StatusProcessingFailed); statusErr != nil {
			log.Printf("worker: process: marking %s failed: %v", t.VideoID, statusErr)
		}
		return err
	}

	return w.setStatus(ctx, t.VideoID, model.StatusProcessingFinished)
}

func (w *Worker) runProcessing(ctx context.Context, t model.ProcessVideo) error {
	ws, err := w.workspaces.LoadWorkspace(model.LocationTemporary, t.WorkspaceID)
	if err != nil {
		return err
	}

	if _, err := w.content.GeneratePoster(ctx, ws, w.posterSize); err != nil {
		return err
	}

	if _, err := w.workspaces.MoveWorkspace(model.LocationTemporary, model.LocationRepository, t.WorkspaceID); err != nil {
		return err
	}
	return nil
}

// publishVideo transitions ProcessingFinished -> Published, pushes the
// artifacts to object storage when configured and queues the notification
// fan-out. Publishing from any other status is rejected explicitly.
func (w *Worker) publishVideo(ctx context.Context, t model.PublishVideo) error {
	video, err := w.videos.GetByID(ctx, t.VideoID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Printf("worker: publish: video %s gone, abandoning task", t.VideoID)
			return nil
		}
		return err
	}

	if video.Status != model.StatusProcessingFinished {
		return fmt.Errorf("publish video %s: status %s, want %s",
			t.VideoID, video.Status, model.StatusProcessingFinished)
	}

	if w.storage != nil {
		if err := w.uploadArtifacts(ctx, video); err != nil {
			// Publication proceeds; the artifacts stay local.
			log.Printf("worker: publish: artifact upload for %s: %v", t.VideoID, err)
		}
	}

	if err := w.setStatus(ctx, t.VideoID, model.StatusPublished); err != nil {
		return err
	}

	w.queue.Enqueue(model.GenerateUploadNotifications{VideoID: t.VideoID})
	return nil
}

func (w *Worker) uploadArtifacts(ctx context.Context, video *model.Video) error {
	ws, err := w.workspaces.LoadWorkspace(model.LocationRepository, video.WorkspaceID)
	if err != nil {
		return err
	}

	var sources []model.VideoSource
	if poster := ws.FileOfType(model.WorkFilePoster); poster != nil {
		key := fmt.Sprintf("posters/%s/%s", video.ID, poster.FileName)
		url, err := w.storage.UploadFile(ctx, key, w.workspaces.FilePath(ws, poster), "image/jpeg")
		if err != nil {
			return err
		}
		sources = append(sources, model.VideoSource{Type: model.WorkFilePoster, URL: url})
	}
	if original := ws.FileOfType(model.WorkFileOriginal); original != nil {
		key := fmt.Sprintf("videos/%s/%s", video.ID, original.FileName)
		url, err := w.storage.UploadFile(ctx, key, w.workspaces.FilePath(ws, original), "video/mp4")
		if err != nil {
			return err
		}
		sources = append(sources, model.VideoSource{Type: model.WorkFileOriginal, URL: url})
	}

	if len(sources) == 0 {
		return nil
	}
	return w.videos.SetSources(ctx, video.ID, sources)
}

func (w *Worker) deleteVideo(ctx context.Context, t model.DeleteVideo) error {
	if w.comments != nil {
		if err := w.comments.DeleteAllForVideo(ctx, t.VideoID); err != nil {
			log.Printf("worker: delete: comments for %s: %v", t.VideoID, err)
		}
	}

	if err := w.videos.Delete(ctx, t.VideoID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	// The workspace may be in either lifecycle directory depending on how
	// far processing got; removing a missing directory is a no-op.
	if err := w.workspaces.DeleteWorkspace(model.LocationRepository, t.WorkspaceID); err != nil {
		return err
	}
	return w.workspaces.DeleteWorkspace(model.LocationTemporary, t.WorkspaceID)
}

func (w *Worker) incrementViewCount(ctx context.Context, t model.IncrementViewCount) error {
	err := w.videos.UpdateViewCount(ctx, t.VideoID, t.Count)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Printf("worker: views: video %s gone, dropping %d views", t.VideoID, t.Count)
		return nil
	}
	return err
}

func (w *Worker) generateUploadNotifications(ctx context.Context, t model.GenerateUploadNotifications) error {
	video, err := w.videos.GetByID(ctx, t.VideoID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Printf("worker: notify: video %s gone, abandoning task", t.VideoID)
			return nil
		}
		return err
	}

	count, err := w.notifier.FanOutUploadNotifications(ctx, video)
	if err != nil {
		return err
	}
	log.Printf("worker: notify: %d notifications for video %s", count, t.VideoID)
	return nil
}

func (w *Worker) sendConfirmationEmail(ctx context.Context, t model.SendConfirmationEmail) error {
	if w.mailer == nil {
		log.Printf("worker: mail: mailer not configured, dropping confirmation for %s", t.UserID)
		return nil
	}
	return w.mailer.SendConfirmation(ctx, t.UserID, t.Email)
}

func (w *Worker) setStatus(ctx context.Context, videoID string, status model.VideoStatus) error {
	if err := w.videos.UpdateStatus(ctx, videoID, status); err != nil {
		return err
	}
	if w.hub != nil {
		w.hub.BroadcastStatus(videoID, status)
	}
	return nil
}
