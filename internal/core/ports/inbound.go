package ports

import (
	"context"

	"github.com/edurag/edurag/internal/core/domain"
)

// UploadResult is returned synchronously from Upload while ingestion
// continues in the background.
type UploadResult struct {
	Job           *domain.Job
	EstimatedTime string
}

// DocumentIngestor accepts an upload, persists the job and schedules
// its background ingestion.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error)
}

// QueryRequest carries one question into the answering pipeline.
type QueryRequest struct {
	Question            string
	SessionID           string
	UseUploadedDocsOnly bool
}

// QueryResult is the assembled answer with provenance.
type QueryResult struct {
	Answer             string
	Sources            []domain.RetrievedDocument
	SourceType         string
	Relevance          domain.Relevance
	StrategyUsed       domain.Strategy
	FallbackReason     string
	IsFromUploadedDocs bool
	ProcessingTime     float64
	SessionID          string
}

// QueryService answers questions over indexed documents with strategy
// selection and fallback.
type QueryService interface {
	Answer(ctx context.Context, req QueryRequest) (*QueryResult, error)
}

// DocumentAdmin is the read/delete surface over jobs.
type DocumentAdmin interface {
	List(ctx context.Context) ([]domain.Job, error)
	Get(ctx context.Context, id int64) (*domain.Job, error)
	Delete(ctx context.Context, id int64) error
}

// Analytics aggregates document, query and processing statistics.
type Analytics struct {
	Documents   domain.DocumentStats `json:"documents"`
	Queries     domain.QueryStats    `json:"queries"`
	ActiveJobs  int                  `json:"active_processing_jobs"`
	TrackedJobs int                  `json:"progress_trackers"`
}

// AnalyticsProvider serves the aggregate view.
type AnalyticsProvider interface {
	Analytics(ctx context.Context) (*Analytics, error)
}
