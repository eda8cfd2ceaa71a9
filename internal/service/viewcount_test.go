package service

import (
	"sync"
	"testing"
)

type flushRecorder struct {
	mu      sync.Mutex
	flushes map[string][]int64
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{flushes: make(map[string][]int64)}
}

func (f *flushRecorder) flush(videoID string, count int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes[videoID] = append(f.flushes[videoID], count)
}

func (f *flushRecorder) calls(videoID string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes[videoID]
}

func (f *flushRecorder) total(videoID string) int64 {
	var sum int64
	for _, c := range f.calls(videoID) {
		sum += c
	}
	return sum
}

func TestNoFlushBelowThreshold(t *testing.T) {
	rec := newFlushRecorder()
	counter := NewViewCounter(10, 0, rec.flush)

	for i := 0; i < 9; i++ {
		counter.RecordView("v1")
	}

	if got := rec.calls("v1"); len(got) != 0 {
		t.Fatalf("flushes = %v, want none below threshold", got)
	}
	if counter.Pending("v1") != 9 {
		t.Fatalf("pending = %d, want 9", counter.Pending("v1"))
	}
}

func TestSingleFlushAtThreshold(t *testing.T) {
	rec := newFlushRecorder()
	counter := NewViewCounter(10, 0, rec.flush)

	for i := 0; i < 10; i++ {
		counter.RecordView("v1")
	}

	calls := rec.calls("v1")
	if len(calls) != 1 || calls[0] != 10 {
		t.Fatalf("flushes = %v, want exactly one flush of 10", calls)
	}
	// The entry is gone; the next round starts from zero.
	if counter.Pending("v1") != 0 {
		t.Fatalf("pending after flush = %d, want 0", counter.Pending("v1"))
	}
}

func TestJitteredThresholdStillFlushesOnce(t *testing.T) {
	rec := newFlushRecorder()
	counter := NewViewCounter(10, 5, rec.flush)

	// base+jitter is at most 15, so 15 views always cross the threshold.
	for i := 0; i < 15; i++ {
		counter.RecordView("v1")
	}

	calls := rec.calls("v1")
	if len(calls) != 1 {
		t.Fatalf("flushes = %v, want exactly one", calls)
	}
	if calls[0] < 10 || calls[0] > 15 {
		t.Fatalf("flushed count = %d, want within [10,15]", calls[0])
	}
	if calls[0]+counter.Pending("v1") != 15 {
		t.Fatalf("flushed %d + pending %d != 15 recorded views", calls[0], counter.Pending("v1"))
	}
}

func TestConcurrentRecordViewLosesNoIncrements(t *testing.T) {
	rec := newFlushRecorder()
	counter := NewViewCounter(50, 10, rec.flush)

	const callers = 8
	const viewsPerCaller = 500

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < viewsPerCaller; j++ {
				counter.RecordView("v1")
			}
		}()
	}
	wg.Wait()

	got := rec.total("v1") + counter.Pending("v1")
	if got != callers*viewsPerCaller {
		t.Fatalf("flushed+pending = %d, want %d", got, callers*viewsPerCaller)
	}
}

func TestIndependentVideosFlushIndependently(t *testing.T) {
	rec := newFlushRecorder()
	counter := NewViewCounter(5, 0, rec.flush)

	for i := 0; i < 5; i++ {
		counter.RecordView("a")
	}
	for i := 0; i < 3; i++ {
		counter.RecordView("b")
	}

	if calls := rec.calls("a"); len(calls) != 1 || calls[0] != 5 {
		t.Errorf("flushes for a = %v", calls)
	}
	if calls := rec.calls("b"); len(calls) != 0 {
		t.Errorf("flushes for b = %v, want none", calls)
	}
	if counter.Pending("b") != 3 {
		t.Errorf("pending for b = %d, want 3", counter.Pending("b"))
	}
}
