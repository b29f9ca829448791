package tasks

import (
	"context"
	"fmt"
	"sync"
)

// Registry supervises background ingestion goroutines. Concurrency is
// bounded by a semaphore; each task gets its own cancelable context so
// deleting a document can stop its in-flight processing.
type Registry struct {
	mu      sync.Mutex
	cancels map[int64]context.CancelFunc

	sem chan struct{}
	wg  sync.WaitGroup

	base   context.Context
	stop   context.CancelFunc
	closed bool
}

func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = 1
	}
	base, stop := context.WithCancel(context.Background())
	return &Registry{
		cancels: make(map[int64]context.CancelFunc),
		sem:     make(chan struct{}, capacity),
		base:    base,
		stop:    stop,
	}
}

// Start schedules fn for jobID. It returns an error if the registry is
// shut down or the job already has a running task; it never blocks on
// the semaphore, the goroutine waits for a slot instead.
func (r *Registry) Start(jobID int64, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("task registry is shut down")
	}
	if _, exists := r.cancels[jobID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("job %d already has a running task", jobID)
	}
	ctx, cancel := context.WithCancel(r.base)
	r.cancels[jobID] = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.finish(jobID, cancel)

		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-ctx.Done():
			return
		}
		fn(ctx)
	}()
	return nil
}

// Cancel stops the task for jobID if one is running.
func (r *Registry) Cancel(jobID int64) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[jobID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Running reports tasks that have been scheduled and not yet finished.
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

// Shutdown cancels every task and waits for the goroutines to exit.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.stop()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) finish(jobID int64, cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	delete(r.cancels, jobID)
	r.mu.Unlock()
}
