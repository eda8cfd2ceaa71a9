package service

import (
	"math/rand"
	"sync"
)

// ViewCounter coalesces per-video view events into batched flushes so a
// popular video does not cost one repository write per view. Counts are
// held in memory only: whatever has not reached its flush threshold when
// the process exits is lost. There is no periodic forced flush.
type ViewCounter struct {
	base   int
	jitter int
	flush  func(videoID string, count int64)

	mu        sync.Mutex
	pending   map[string]int64
	threshold map[string]int64
}

// NewViewCounter creates an aggregator. Each accumulation round gets a
// fresh threshold of base plus a random jitter in [0, jitter], so flushes
// for many videos do not align into a thundering herd. flush receives the
// full accumulated count exactly once per round.
func NewViewCounter(base, jitter int, flush func(videoID string, count int64)) *ViewCounter {
	if base < 1 {
		base = 1
	}
	if jitter < 0 {
		jitter = 0
	}
	return &ViewCounter{
		base:      base,
		jitter:    jitter,
		flush:     flush,
		pending:   make(map[string]int64),
		threshold: make(map[string]int64),
	}
}

// RecordView increments the pending count for a video and flushes the
// accumulated total once the round's threshold is reached. The entry is
// removed atomically with the decision to flush, so concurrent callers
// never lose increments and never double-flush.
func (c *ViewCounter) RecordView(videoID string) {
	c.mu.Lock()
	c.pending[videoID]++
	limit, ok := c.threshold[videoID]
	if !ok {
		limit = int64(c.base)
		if c.jitter > 0 {
			limit += int64(rand.Intn(c.jitter + 1))
		}
		c.threshold[videoID] = limit
	}

	if c.pending[videoID] < limit {
		c.mu.Unlock()
		return
	}

	count := c.pending[videoID]
	delete(c.pending, videoID)
	delete(c.threshold, videoID)
	c.mu.Unlock()

	c.flush(videoID, count)
}

// Pending returns the in-memory count awaiting flush for a video.
func (c *ViewCounter) Pending(videoID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[videoID]
}
