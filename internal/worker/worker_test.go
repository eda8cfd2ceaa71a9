package worker

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/model"
	"github.com/clipshare/api/internal/workspace"
)

type fakeVideos struct {
	videos  map[string]*model.Video
	history map[string][]model.VideoStatus
	views   map[string]int64
}

func newFakeVideos(videos ...*model.Video) *fakeVideos {
	f := &fakeVideos{
		videos:  make(map[string]*model.Video),
		history: make(map[string][]model.VideoStatus),
		views:   make(map[string]int64),
	}
	for _, v := range videos {
		f.videos[v.ID] = v
	}
	return f
}

func (f *fakeVideos) GetByID(ctx context.Context, id string) (*model.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, apperr.NotFound("video %s", id)
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVideos) UpdateStatus(ctx context.Context, id string, status model.VideoStatus) error {
	v, ok := f.videos[id]
	if !ok {
		return apperr.NotFound("video %s", id)
	}
	v.Status = status
	f.history[id] = append(f.history[id], status)
	return nil
}

func (f *fakeVideos) UpdateViewCount(ctx context.Context, id string, delta int64) error {
	if _, ok := f.videos[id]; !ok {
		return apperr.NotFound("video %s", id)
	}
	f.views[id] += delta
	return nil
}

func (f *fakeVideos) SetSources(ctx context.Context, id string, sources []model.VideoSource) error {
	v, ok := f.videos[id]
	if !ok {
		return apperr.NotFound("video %s", id)
	}
	v.Sources = sources
	return nil
}

func (f *fakeVideos) Delete(ctx context.Context, id string) error {
	if _, ok := f.videos[id]; !ok {
		return apperr.NotFound("video %s", id)
	}
	delete(f.videos, id)
	return nil
}

type fakeContent struct {
	err error
}

func (f *fakeContent) GeneratePoster(ctx context.Context, ws *model.WorkSpace, size string) (*model.WorkFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.WorkFile{ID: "poster", Type: model.WorkFilePoster}, nil
}

type fakeNotifier struct {
	videos []string
}

func (f *fakeNotifier) FanOutUploadNotifications(ctx context.Context, video *model.Video) (int, error) {
	f.videos = append(f.videos, video.ID)
	return 1, nil
}

type fakeEnqueuer struct {
	tasks []model.Task
}

func (f *fakeEnqueuer) Enqueue(task model.Task) { f.tasks = append(f.tasks, task) }

func stagedWorkspace(t *testing.T, store *workspace.Store) *model.WorkSpace {
	t.Helper()
	ws, err := store.CreateWorkspace(model.LocationTemporary)
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	orig := store.CreateWorkFile(ws, model.WorkFileOriginal, ".mp4")
	if err := os.WriteFile(store.FilePath(ws, orig), []byte("video"), 0o644); err != nil {
		t.Fatalf("write original: %v", err)
	}
	if err := store.SaveWorkspace(ws); err != nil {
		t.Fatalf("SaveWorkspace: %v", err)
	}
	return ws
}

func TestProcessVideoSuccess(t *testing.T) {
	store := workspace.NewStore(t.TempDir())
	ws := stagedWorkspace(t, store)

	videos := newFakeVideos(&model.Video{ID: "v1", WorkspaceID: ws.ID, Status: model.StatusCreatedMetadata})
	w := New(Deps{
		Videos:     videos,
		Workspaces: store,
		Content:    &fakeContent{},
		Queue:      &fakeEnqueuer{},
		PosterSize: "640x360",
	})

	if err := w.Handle(context.Background(), model.ProcessVideo{VideoID: "v1", WorkspaceID: ws.ID}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := []model.VideoStatus{model.StatusProcessing, model.StatusProcessingFinished}
	got := videos.history["v1"]
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("status history = %v, want %v", got, want)
	}

	// The workspace was promoted to the permanent repository.
	if _, err := store.LoadWorkspace(model.LocationRepository, ws.ID); err != nil {
		t.Fatalf("workspace not promoted: %v", err)
	}
}

func TestProcessVideoFailureMarksFailed(t *testing.T) {
	store := workspace.NewStore(t.TempDir())
	ws := stagedWorkspace(t, store)

	videos := newFakeVideos(&model.Video{ID: "v1", WorkspaceID: ws.ID, Status: model.StatusUploaded})
	w := New(Deps{
		Videos:     videos,
		Workspaces: store,
		Content:    &fakeContent{err: apperr.Processing("ffmpeg exploded")},
		Queue:      &fakeEnqueuer{},
		PosterSize: "640x360",
	})

	err := w.Handle(context.Background(), model.ProcessVideo{VideoID: "v1", WorkspaceID: ws.ID})
	if err == nil {
		t.Fatal("want processing error")
	}

	// Never stuck in Processing: the video ends in exactly one terminal
	// processing state.
	if videos.videos["v1"].Status != model.StatusProcessingFailed {
		t.Fatalf("status = %s, want processing_failed", videos.videos["v1"].Status)
	}
}

func TestProcessVideoMissingWorkspaceMarksFailed(t *testing.T) {
	store := workspace.NewStore(t.TempDir())
	videos := newFakeVideos(&model.Video{ID: "v1", WorkspaceID: "gone", Status: model.StatusUploaded})
	w := New(Deps{
		Videos:     videos,
		Workspaces: store,
		Content:    &fakeContent{},
		Queue:      &fakeEnqueuer{},
	})

	err := w.Handle(context.Background(), model.ProcessVideo{VideoID: "v1", WorkspaceID: "gone"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if videos.videos["v1"].Status != model.StatusProcessingFailed {
		t.Fatalf("status = %s, want processing_failed", videos.videos["v1"].Status)
	}
}

func TestProcessVideoMissingVideoIsAbandoned(t *testing.T) {
	store := workspace.NewStore(t.TempDir())
	w := New(Deps{
		Videos:     newFakeVideos(),
		Workspaces: store,
		Content:    &fakeContent{},
		Queue:      &fakeEnqueuer{},
	})

	// Not-found means abandon with a warning, not a task failure.
	if err := w.Handle(context.Background(), model.ProcessVideo{VideoID: "gone", WorkspaceID: "ws"}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestPublishVideoTransitionsAndQueuesFanOut(t *testing.T) {
	store := workspace.NewStore(t.TempDir())
	videos := newFakeVideos(&model.Video{ID: "v1", CreatorID: "u1", Status: model.StatusProcessingFinished})
	queue := &fakeEnqueuer{}
	w := New(Deps{
		Videos:     videos,
		Workspaces: store,
		Content:    &fakeContent{},
		Queue:      queue,
	})

	if err := w.Handle(context.Background(), model.PublishVideo{VideoID: "v1"}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if videos.videos["v1"].Status != model.StatusPublished {
		t.Fatalf("status = %s, want published", videos.videos["v1"].Status)
	}
	if len(queue.tasks) != 1 {
		t.Fatalf("queued %d follow-up tasks, want 1", len(queue.tasks))
	}
	if _, ok := queue.tasks[0].(model.GenerateUploadNotifications); !ok {
		t.Fatalf("follow-up task = %T, want GenerateUploadNotifications", queue.tasks[0])
	}
}

func TestPublishVideoRejectedOutsideProcessingFinished(t *testing.T) {
	for _, status := range []model.VideoStatus{
		model.StatusUploaded, model.StatusProcessing, model.StatusProcessingFailed, model.StatusPublished,
	} {
		videos := newFakeVideos(&model.Video{ID: "v1", Status: status})
		queue := &fakeEnqueuer{}
		w := New(Deps{Videos: videos, Workspaces: workspace.NewStore(t.TempDir()), Content: &fakeContent{}, Queue: queue})

		if err := w.Handle(context.Background(), model.PublishVideo{VideoID: "v1"}); err == nil {
			t.Errorf("publish from %s: want error", status)
		}
		if videos.videos["v1"].Status != status {
			t.Errorf("publish from %s mutated status to %s", status, videos.videos["v1"].Status)
		}
		if len(queue.tasks) != 0 {
			t.Errorf("publish from %s queued fan-out", status)
		}
	}
}

func TestGenerateUploadNotifications(t *testing.T) {
	videos := newFakeVideos(&model.Video{ID: "v1", CreatorID: "u1", Status: model.StatusPublished})
	notifier := &fakeNotifier{}
	w := New(Deps{Videos: videos, Workspaces: workspace.NewStore(t.TempDir()), Content: &fakeContent{}, Notifier: notifier, Queue: &fakeEnqueuer{}})

	if err := w.Handle(context.Background(), model.GenerateUploadNotifications{VideoID: "v1"}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(notifier.videos) != 1 || notifier.videos[0] != "v1" {
		t.Fatalf("fan-out calls = %v", notifier.videos)
	}
}

func TestIncrementViewCount(t *testing.T) {
	videos := newFakeVideos(&model.Video{ID: "v1", Status: model.StatusPublished})
	w := New(Deps{Videos: videos, Workspaces: workspace.NewStore(t.TempDir()), Content: &fakeContent{}, Queue: &fakeEnqueuer{}})

	if err := w.Handle(context.Background(), model.IncrementViewCount{VideoID: "v1", Count: 42}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if videos.views["v1"] != 42 {
		t.Fatalf("views = %d, want 42", videos.views["v1"])
	}

	// A vanished video drops the delta with a warning instead of failing
	// the unit of work.
	if err := w.Handle(context.Background(), model.IncrementViewCount{VideoID: "gone", Count: 7}); err != nil {
		t.Fatalf("Handle for missing video: %v", err)
	}
}

func TestDeleteVideoRemovesRecordAndWorkspace(t *testing.T) {
	store := workspace.NewStore(t.TempDir())
	ws := stagedWorkspace(t, store)
	if _, err := store.MoveWorkspace(model.LocationTemporary, model.LocationRepository, ws.ID); err != nil {
		t.Fatalf("MoveWorkspace: %v", err)
	}

	videos := newFakeVideos(&model.Video{ID: "v1", WorkspaceID: ws.ID, Status: model.StatusPublished})
	w := New(Deps{Videos: videos, Workspaces: store, Content: &fakeContent{}, Queue: &fakeEnqueuer{}})

	if err := w.Handle(context.Background(), model.DeleteVideo{VideoID: "v1", WorkspaceID: ws.ID}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if _, ok := videos.videos["v1"]; ok {
		t.Error("video record still present")
	}
	if _, err := store.LoadWorkspace(model.LocationRepository, ws.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("workspace still present: %v", err)
	}
}

func TestSendConfirmationEmailWithoutMailer(t *testing.T) {
	w := New(Deps{Videos: newFakeVideos(), Workspaces: workspace.NewStore(t.TempDir()), Content: &fakeContent{}, Queue: &fakeEnqueuer{}})

	if err := w.Handle(context.Background(), model.SendConfirmationEmail{UserID: "u1", Email: "u1@example.com"}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}
