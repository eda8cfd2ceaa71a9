package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clipshare/api/internal/model"
)

// recordingHandler collects every task it sees. One instance is shared by
// all scopes to observe dispatch across units of work.
type recordingHandler struct {
	mu    sync.Mutex
	seen  []model.Task
	errFn func(model.Task) error
	block chan struct{}
}

func (h *recordingHandler) Handle(ctx context.Context, task model.Task) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	h.seen = append(h.seen, task)
	h.mu.Unlock()
	if h.errFn != nil {
		return h.errFn(task)
	}
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestEveryTaskDispatchedExactlyOnce(t *testing.T) {
	handler := &recordingHandler{}
	engine := NewEngine(10*time.Millisecond, func() Handler { return handler })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Run(ctx)

	const n = 100
	for i := 0; i < n; i++ {
		engine.Enqueue(model.IncrementViewCount{VideoID: "v", Count: 1})
	}

	waitFor(t, time.Second, func() bool { return handler.count() == n })

	// No duplicates can sneak in afterwards.
	time.Sleep(30 * time.Millisecond)
	if got := handler.count(); got != n {
		t.Fatalf("dispatched %d tasks, want exactly %d", got, n)
	}
}

func TestFailingTaskDoesNotAffectSiblings(t *testing.T) {
	handler := &recordingHandler{
		errFn: func(task model.Task) error {
			if task.Kind() == model.TaskPublishVideo {
				return errors.New("boom")
			}
			return nil
		},
	}
	engine := NewEngine(10*time.Millisecond, func() Handler { return handler })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Run(ctx)

	engine.Enqueue(model.PublishVideo{VideoID: "bad"})
	engine.Enqueue(model.ProcessVideo{VideoID: "a", WorkspaceID: "wa"})
	engine.Enqueue(model.ProcessVideo{VideoID: "b", WorkspaceID: "wb"})

	waitFor(t, time.Second, func() bool { return handler.count() == 3 })

	// The engine keeps working after a failure.
	engine.Enqueue(model.DeleteVideo{VideoID: "c"})
	waitFor(t, time.Second, func() bool { return handler.count() == 4 })
}

type panickyHandler struct{ after *recordingHandler }

func (h *panickyHandler) Handle(ctx context.Context, task model.Task) error {
	if task.Kind() == model.TaskDeleteVideo {
		panic("unexpected state")
	}
	return h.after.Handle(ctx, task)
}

func TestPanicInUnitOfWorkIsContained(t *testing.T) {
	inner := &recordingHandler{}
	engine := NewEngine(10*time.Millisecond, func() Handler { return &panickyHandler{after: inner} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Run(ctx)

	engine.Enqueue(model.DeleteVideo{VideoID: "panics"})
	engine.Enqueue(model.ProcessVideo{VideoID: "fine"})

	waitFor(t, time.Second, func() bool { return inner.count() == 1 })
}

func TestFreshScopePerUnitOfWork(t *testing.T) {
	var scopes int64
	handler := &recordingHandler{}
	engine := NewEngine(10*time.Millisecond, func() Handler {
		atomic.AddInt64(&scopes, 1)
		return handler
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Run(ctx)

	for i := 0; i < 10; i++ {
		engine.Enqueue(model.IncrementViewCount{VideoID: "v", Count: 1})
	}
	waitFor(t, time.Second, func() bool { return handler.count() == 10 })

	if got := atomic.LoadInt64(&scopes); got != 10 {
		t.Fatalf("scope factory called %d times, want 10", got)
	}
}

func TestShutdownDrainsInFlightWork(t *testing.T) {
	release := make(chan struct{})
	handler := &recordingHandler{block: release}
	engine := NewEngine(10*time.Millisecond, func() Handler { return handler })

	ctx, cancel := context.WithCancel(context.Background())
	engine.Run(ctx)

	engine.Enqueue(model.ProcessVideo{VideoID: "slow"})

	// Let the drain loop start the unit, then cancel while it is blocked.
	time.Sleep(30 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		engine.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("engine exited while a unit of work was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engine did not exit after in-flight work completed")
	}

	if handler.count() != 1 {
		t.Fatalf("in-flight task was abandoned on shutdown")
	}
}

// Tasks still sitting in the buffer once the engine has stopped are dropped.
// This is the documented gap of the in-memory design: no durable queue, no
// dead-letter, loss tolerated on shutdown and crash.
func TestTasksEnqueuedAfterShutdownAreDropped(t *testing.T) {
	handler := &recordingHandler{}
	engine := NewEngine(10*time.Millisecond, func() Handler { return handler })

	ctx, cancel := context.WithCancel(context.Background())
	engine.Run(ctx)
	cancel()
	engine.Wait()

	engine.Enqueue(model.ProcessVideo{VideoID: "late"})
	time.Sleep(30 * time.Millisecond)

	if handler.count() != 0 {
		t.Fatalf("task dispatched after shutdown")
	}
}

// Within one gather window tasks run concurrently; the batch loop waits for
// the whole working set before gathering again.
func TestTasksInOneWindowRunConcurrently(t *testing.T) {
	var running, peak int64
	var mu sync.Mutex

	handler := handlerFunc(func(ctx context.Context, task model.Task) error {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})
	engine := NewEngine(10*time.Millisecond, func() Handler { return handler })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Run(ctx)

	for i := 0; i < 5; i++ {
		engine.Enqueue(model.IncrementViewCount{VideoID: "v", Count: 1})
	}

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return peak >= 2
	})
}

type handlerFunc func(ctx context.Context, task model.Task) error

func (f handlerFunc) Handle(ctx context.Context, task model.Task) error { return f(ctx, task) }
