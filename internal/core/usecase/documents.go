package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
	"github.com/edurag/edurag/internal/core/ports"
)

// Admin serves the document listing, status and deletion surface, and
// the aggregate analytics view.
type Admin struct {
	repo     ports.JobRepository
	queryLog ports.QueryLogRepository
	indexer  ports.DocumentIndexer
	tracker  ports.ProgressTracker
	registry ports.TaskRegistry
	logger   *slog.Logger
}

func NewAdmin(repo ports.JobRepository, queryLog ports.QueryLogRepository, indexer ports.DocumentIndexer, tracker ports.ProgressTracker, registry ports.TaskRegistry, logger *slog.Logger) *Admin {
	return &Admin{
		repo:     repo,
		queryLog: queryLog,
		indexer:  indexer,
		tracker:  tracker,
		registry: registry,
		logger:   logger,
	}
}

// List returns all jobs, with live progress overlaid on the ones still
// being processed.
func (a *Admin) List(ctx context.Context) ([]domain.Job, error) {
	jobs, err := a.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].Status.Terminal() {
			continue
		}
		if rec, ok := a.tracker.Get(jobs[i].ID); ok {
			jobs[i].Status = rec.Status
		}
	}
	return jobs, nil
}

func (a *Admin) Get(ctx context.Context, id int64) (*domain.Job, error) {
	return a.repo.GetByID(ctx, id)
}

// Delete removes a document everywhere: its in-flight task, its
// vectors, its row and its progress entry. Vector deletion failures are
// logged but do not block the removal.
func (a *Admin) Delete(ctx context.Context, id int64) error {
	job, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if a.registry.Cancel(id) {
		a.logger.Info("canceled in-flight processing", "document_id", id)
	}

	if len(job.VectorIDs) > 0 {
		if err := a.indexer.DeleteByIDs(ctx, job.VectorIDs); err != nil {
			a.logger.Warn("could not delete vectors", "document_id", id, "count", len(job.VectorIDs), "error", err)
		}
	}

	if err := a.repo.Delete(ctx, id); err != nil {
		return err
	}
	a.tracker.Remove(id)

	a.logger.Info("document deleted", "document_id", id, "filename", job.Filename)
	return nil
}

// Analytics aggregates document and query statistics with the live
// processing picture.
func (a *Admin) Analytics(ctx context.Context) (*ports.Analytics, error) {
	docStats, err := a.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	queryStats, err := a.queryLog.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.Analytics{
		Documents:   docStats,
		Queries:     queryStats,
		ActiveJobs:  a.tracker.ActiveCount(),
		TrackedJobs: a.tracker.TrackedCount(),
	}, nil
}

// Progress exposes the tracker to the transport layer.
func (a *Admin) Progress(id int64) (domain.ProgressRecord, bool) {
	return a.tracker.Get(id)
}

// WatchProgress streams progress snapshots for one document.
func (a *Admin) WatchProgress(ctx context.Context, id int64, interval time.Duration) <-chan domain.ProgressRecord {
	return a.tracker.Watch(ctx, id, interval)
}
