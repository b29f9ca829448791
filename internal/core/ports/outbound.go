package ports

import (
	"context"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
)

// JobRepository persists and reads job state.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id int64) (*domain.Job, error)
	List(ctx context.Context) ([]domain.Job, error)
	ListCompleted(ctx context.Context) ([]domain.Job, error)
	UpdateStatus(ctx context.Context, id int64, status domain.JobStatus) error
	SaveResult(ctx context.Context, id int64, chunkCount int, vectorIDs []string, meta domain.JobMetadata) error
	MarkFailed(ctx context.Context, id int64, meta domain.JobMetadata) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (domain.DocumentStats, error)
}

// QueryLogRepository appends and aggregates the query log.
type QueryLogRepository interface {
	Insert(ctx context.Context, rec *domain.QueryRecord) error
	Stats(ctx context.Context) (domain.QueryStats, error)
}

// TextExtractor converts raw file bytes into plain text. report, when
// non-nil, receives coarse completion fractions in [0,1] for paginated
// formats.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileType domain.FileType, filename string, report func(fraction float64)) (string, error)
}

// Chunker splits extracted text into bounded, overlapping segments.
// Callers must reject empty input before splitting.
type Chunker interface {
	Split(text string) []string
}

// DocumentIndexer wraps the external embedding + similarity-search
// provider. AddBatch returns an error wrapping domain.ErrIndexMisconfigured
// for permanent configuration failures that must never be retried.
type DocumentIndexer interface {
	AddBatch(ctx context.Context, chunks []domain.Chunk, ids []string) error
	Search(ctx context.Context, query string, jobIDs []int64, k int) ([]domain.RetrievedDocument, error)
	DeleteByIDs(ctx context.Context, ids []string) error
}

// TextGenerator wraps the external LLM chat-completion provider.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// ProgressTracker is the process-wide, concurrency-safe map from job id
// to its live progress, plus a streaming read contract.
type ProgressTracker interface {
	Register(jobID int64, filename string)
	Update(jobID int64, percent int, status domain.JobStatus, errMessage string)
	Get(jobID int64) (domain.ProgressRecord, bool)
	Remove(jobID int64)
	ActiveCount() int
	TrackedCount() int
	// Watch yields a snapshot immediately and then once per interval,
	// closing the channel when the record turns terminal, is removed,
	// or ctx is done.
	Watch(ctx context.Context, jobID int64, interval time.Duration) <-chan domain.ProgressRecord
}

// EventPublisher emits job lifecycle notifications for external
// consumers. Implementations must be safe to call concurrently; a nil
// publisher is allowed and means events are dropped.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, event JobEvent) error
}

// JobEvent describes one job lifecycle transition.
type JobEvent struct {
	JobID      int64            `json:"document_id"`
	Status     domain.JobStatus `json:"status"`
	ChunkCount int              `json:"chunk_count,omitempty"`
	Error      string           `json:"error,omitempty"`
	At         time.Time        `json:"at"`
}

// TaskRegistry supervises background ingestion tasks keyed by job id,
// bounding concurrency and supporting cooperative cancellation.
type TaskRegistry interface {
	Start(jobID int64, fn func(ctx context.Context)) error
	Cancel(jobID int64) bool
	Running() int
}
