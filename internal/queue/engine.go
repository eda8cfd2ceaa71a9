// Package queue implements the in-process background task engine: an
// unbounded task buffer drained by one loop that starts each task as its own
// goroutine, and a ticking second loop that gathers the running units into
// batches and waits for each batch to finish before gathering the next.
//
// The buffer is deliberately unbounded: Enqueue never blocks and never
// fails, which is the pressure-release valve of the design. The accepted
// trade-offs are unbounded memory growth under sustained overload and loss
// of queued tasks on process crash.
package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/clipshare/api/internal/model"
)

// Handler executes a single task. The engine creates one handler per unit of
// work through the scope factory so that stateful dependencies are never
// shared between concurrently running tasks.
type Handler interface {
	Handle(ctx context.Context, task model.Task) error
}

// Engine coordinates the two scheduling loops.
type Engine struct {
	newScope func() Handler
	tick     time.Duration

	mu     sync.Mutex
	buffer []model.Task
	notify chan struct{}

	pendingMu sync.Mutex
	pending   []chan struct{}

	wg sync.WaitGroup
}

// NewEngine creates an engine. newScope is called once per dispatched task
// to obtain an isolated handler.
func NewEngine(tick time.Duration, newScope func() Handler) *Engine {
	if tick <= 0 {
		tick = time.Second
	}
	return &Engine{
		newScope: newScope,
		tick:     tick,
		notify:   make(chan struct{}, 1),
	}
}

// Enqueue adds a task to the buffer. It never blocks and always succeeds.
func (e *Engine) Enqueue(task model.Task) {
	e.mu.Lock()
	e.buffer = append(e.buffer, task)
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Run starts the drain loop and the batch loop. Both exit when ctx is
// cancelled; Wait blocks until they have.
func (e *Engine) Run(ctx context.Context) {
	e.wg.Add(2)
	go e.drainLoop(ctx)
	go e.batchLoop(ctx)
}

// Wait blocks until both loops have exited.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// drainLoop continuously takes every buffered task and immediately starts
// its execution as a goroutine, placing a completion handle into the
// pending queue. It never waits for completion itself.
func (e *Engine) drainLoop(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.notify:
		}

		for _, task := range e.takeBuffered() {
			handle := make(chan struct{})
			task := task
			go func() {
				defer close(handle)
				e.execute(ctx, task)
			}()

			e.pendingMu.Lock()
			e.pending = append(e.pending, handle)
			e.pendingMu.Unlock()
		}
	}
}

// batchLoop wakes on every tick, moves the pending handles into a working
// set and waits until every unit in the set has completed. Tasks enqueued
// while a batch is executing wait for the next tick to be gathered. On
// cancellation the loop performs one final gather-and-wait so that units
// already running are not abandoned; tasks still sitting in the buffer at
// that point are dropped.
func (e *Engine) batchLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.waitBatch(e.takePending())
			return
		case <-ticker.C:
			e.waitBatch(e.takePending())
		}
	}
}

// execute runs one unit of work in its own dependency scope. Failures are
// caught here and logged; they never propagate to the scheduling loops and
// the task is not retried.
func (e *Engine) execute(ctx context.Context, task model.Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("queue: task %s panicked: %v", task.Kind(), r)
		}
	}()

	scope := e.newScope()
	if err := scope.Handle(ctx, task); err != nil {
		log.Printf("queue: task %s failed: %v", task.Kind(), err)
	}
}

func (e *Engine) takeBuffered() []model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	tasks := e.buffer
	e.buffer = nil
	return tasks
}

func (e *Engine) takePending() []chan struct{} {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	batch := e.pending
	e.pending = nil
	return batch
}

func (e *Engine) waitBatch(batch []chan struct{}) {
	for _, handle := range batch {
		<-handle
	}
}
