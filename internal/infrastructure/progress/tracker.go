package progress

import (
	"context"
	"sync"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
)

// Tracker is the in-memory source of truth for live ingestion progress.
// Records survive until Remove is called, so finished jobs stay
// queryable.
type Tracker struct {
	mu      sync.RWMutex
	records map[int64]domain.ProgressRecord
}

func NewTracker() *Tracker {
	return &Tracker{records: make(map[int64]domain.ProgressRecord)}
}

func (t *Tracker) Register(jobID int64, filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[jobID] = domain.ProgressRecord{
		JobID:     jobID,
		Percent:   0,
		Status:    domain.StatusPending,
		Filename:  filename,
		UpdatedAt: time.Now().UTC(),
	}
}

func (t *Tracker) Update(jobID int64, percent int, status domain.JobStatus, errMessage string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[jobID]
	if !ok {
		return
	}
	rec.Percent = percent
	rec.Status = status
	rec.Error = errMessage
	rec.UpdatedAt = time.Now().UTC()
	t.records[jobID] = rec
}

func (t *Tracker) Get(jobID int64) (domain.ProgressRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[jobID]
	return rec, ok
}

func (t *Tracker) Remove(jobID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, jobID)
}

// ActiveCount reports jobs that have not reached a terminal status.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, rec := range t.records {
		if !rec.Status.Terminal() {
			n++
		}
	}
	return n
}

func (t *Tracker) TrackedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Watch emits the current record immediately, then one snapshot per
// interval. The channel closes after a terminal record is sent, when
// the record disappears, or when ctx is done.
func (t *Tracker) Watch(ctx context.Context, jobID int64, interval time.Duration) <-chan domain.ProgressRecord {
	out := make(chan domain.ProgressRecord, 1)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			rec, ok := t.Get(jobID)
			if !ok {
				return
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
			if rec.Status.Terminal() {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
