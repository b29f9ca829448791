package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
	"github.com/edurag/edurag/internal/core/ports"
	"github.com/edurag/edurag/internal/infrastructure/resilience"
)

// Progress milestones for one ingestion run. Extraction owns 5-25,
// chunking 25-50, indexing 50-90, finalization 95-100.
const (
	progressStart       = 5
	progressExtracted   = 25
	progressChunked     = 50
	progressIndexCap    = 90
	progressFinalizing  = 95
	progressIndexBudget = progressIndexCap - progressChunked
)

type ingestMetrics interface {
	IngestStarted()
	IngestFinished(outcome string, elapsed time.Duration)
}

// Pipeline runs one document through extraction, chunking and indexing,
// reporting progress along the way. Indexing failures degrade the job
// to text-only completion instead of failing it.
type Pipeline struct {
	repo      ports.JobRepository
	tracker   ports.ProgressTracker
	extractor ports.TextExtractor
	chunker   ports.Chunker
	indexer   ports.DocumentIndexer
	publisher ports.EventPublisher
	metrics   ingestMetrics
	logger    *slog.Logger

	batchSize int
	exec      *resilience.Executor

	// indexBroken latches after a permanent index configuration error;
	// every later job skips indexing instead of rediscovering the same
	// failure.
	indexBroken atomic.Bool
}

type PipelineConfig struct {
	BatchSize   int
	MaxAttempts int
	Backoff     time.Duration
}

func NewPipeline(
	repo ports.JobRepository,
	tracker ports.ProgressTracker,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	indexer ports.DocumentIndexer,
	publisher ports.EventPublisher,
	m ingestMetrics,
	logger *slog.Logger,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	return &Pipeline{
		repo:      repo,
		tracker:   tracker,
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		batchSize: cfg.BatchSize,
		exec: resilience.NewExecutor("index-batch",
			resilience.FixedRetry(cfg.MaxAttempts, cfg.Backoff),
			func(err error) bool { return !domain.IsKind(err, domain.ErrIndexMisconfigured) }),
	}
}

// Run processes one job to a terminal state. It never returns an error:
// failures are persisted on the job and reported through the tracker.
func (p *Pipeline) Run(ctx context.Context, job *domain.Job, data []byte) {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.IngestStarted()
	}
	log := p.logger.With("document_id", job.ID, "filename", job.Filename)

	if err := p.repo.UpdateStatus(ctx, job.ID, domain.StatusProcessing); err != nil {
		p.finishAborted(ctx, job, log, start, err)
		return
	}
	p.tracker.Update(job.ID, progressStart, domain.StatusProcessing, "")

	text, err := p.extractor.Extract(ctx, data, job.FileType, job.Filename, func(fraction float64) {
		pct := progressStart + int(fraction*float64(progressExtracted-progressStart))
		p.tracker.Update(job.ID, pct, domain.StatusProcessing, "")
	})
	if err != nil {
		p.fail(ctx, job, log, start, err)
		return
	}
	p.tracker.Update(job.ID, progressExtracted, domain.StatusProcessing, "")

	pieces := p.chunker.Split(text)
	if len(pieces) == 0 {
		p.fail(ctx, job, log, start,
			domain.WrapError(domain.ErrEmptyContent, "chunk", fmt.Errorf("%s produced no chunks", job.Filename)))
		return
	}

	chunks := make([]domain.Chunk, len(pieces))
	ids := make([]string, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			JobID:       job.ID,
			Ordinal:     i,
			Text:        piece,
			Source:      job.Filename,
			FileType:    job.FileType,
			TotalChunks: len(pieces),
		}
		ids[i] = domain.VectorID(job.ID, i)
	}
	p.tracker.Update(job.ID, progressChunked, domain.StatusProcessing, "")

	vectorIDs, skipReason := p.index(ctx, job, log, chunks, ids)
	if ctx.Err() != nil {
		p.finishAborted(ctx, job, log, start, ctx.Err())
		return
	}

	p.tracker.Update(job.ID, progressFinalizing, domain.StatusProcessing, "")

	// the document may have been deleted while we were processing; a
	// terminal write must not resurrect it
	if _, err := p.repo.GetByID(detach(ctx), job.ID); err != nil {
		if domain.IsKind(err, domain.ErrJobNotFound) {
			p.cleanupOrphan(job, log, vectorIDs)
			p.finish(start, "canceled")
			return
		}
		p.fail(ctx, job, log, start, err)
		return
	}

	meta := domain.JobMetadata{
		TextLength:        len(text),
		ProcessedAt:       time.Now().UTC().Format(time.RFC3339),
		ProcessingSeconds: time.Since(start).Seconds(),
		IndexingSkipped:   skipReason,
	}
	if err := p.repo.SaveResult(detach(ctx), job.ID, len(chunks), vectorIDs, meta); err != nil {
		p.fail(ctx, job, log, start, err)
		return
	}

	p.tracker.Update(job.ID, 100, domain.StatusCompleted, "")
	p.publish(job.ID, domain.StatusCompleted, len(chunks), "")

	outcome := "completed"
	if skipReason != "" {
		outcome = "degraded"
		log.Warn("document completed without vector index", "reason", skipReason, "chunks", len(chunks))
	} else {
		log.Info("document processed", "chunks", len(chunks), "elapsed", time.Since(start).Seconds())
	}
	p.finish(start, outcome)
}

// index upserts chunks in batches. It returns the recorded vector ids,
// or nil plus a reason when the job completes text-only.
func (p *Pipeline) index(ctx context.Context, job *domain.Job, log *slog.Logger, chunks []domain.Chunk, ids []string) ([]string, string) {
	if p.indexBroken.Load() {
		return nil, "vector index disabled after a permanent configuration error"
	}

	total := len(chunks)
	for offset := 0; offset < total; offset += p.batchSize {
		end := offset + p.batchSize
		if end > total {
			end = total
		}
		batch := chunks[offset:end]
		batchIDs := ids[offset:end]

		err := p.exec.Do(ctx, func(ctx context.Context) error {
			return p.indexer.AddBatch(ctx, batch, batchIDs)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ""
			}
			if domain.IsKind(err, domain.ErrIndexMisconfigured) {
				p.indexBroken.Store(true)
				log.Error("vector index misconfigured, disabling indexing", "error", err)
				p.rollbackVectors(job, log, ids[:offset])
				return nil, "vector index misconfigured: " + err.Error()
			}
			log.Error("indexing batch failed, completing text-only", "batch_start", offset, "error", err)
			p.rollbackVectors(job, log, ids[:offset])
			return nil, "indexing failed: " + err.Error()
		}

		pct := progressChunked + progressIndexBudget*end/total
		if pct > progressIndexCap {
			pct = progressIndexCap
		}
		p.tracker.Update(job.ID, pct, domain.StatusProcessing, "")
	}
	return ids, ""
}

// rollbackVectors removes vectors from batches that did land before the
// failure, so a degraded job never leaves unreferenced vectors behind.
func (p *Pipeline) rollbackVectors(job *domain.Job, log *slog.Logger, stored []string) {
	if len(stored) == 0 {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := p.indexer.DeleteByIDs(cleanupCtx, stored); err != nil {
		log.Warn("could not remove partial vectors", "count", len(stored), "error", err)
	}
}

func (p *Pipeline) fail(ctx context.Context, job *domain.Job, log *slog.Logger, start time.Time, cause error) {
	log.Error("document processing failed", "error", cause)

	meta := domain.JobMetadata{
		Error:    cause.Error(),
		FailedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.repo.MarkFailed(detach(ctx), job.ID, meta); err != nil {
		if domain.IsKind(err, domain.ErrJobNotFound) {
			p.tracker.Remove(job.ID)
			p.finish(start, "canceled")
			return
		}
		log.Error("could not persist failure", "error", err)
	}

	percent := progressStart
	if rec, ok := p.tracker.Get(job.ID); ok {
		percent = rec.Percent
	}
	p.tracker.Update(job.ID, percent, domain.StatusFailed, cause.Error())
	p.publish(job.ID, domain.StatusFailed, 0, cause.Error())
	p.finish(start, "failed")
}

// finishAborted handles cancellation: a deleted document just cleans
// up, an aborted shutdown records the failure.
func (p *Pipeline) finishAborted(ctx context.Context, job *domain.Job, log *slog.Logger, start time.Time, cause error) {
	if _, err := p.repo.GetByID(detach(ctx), job.ID); domain.IsKind(err, domain.ErrJobNotFound) {
		log.Info("processing canceled, document deleted")
		p.tracker.Remove(job.ID)
		p.finish(start, "canceled")
		return
	}
	p.fail(ctx, job, log, start, fmt.Errorf("processing aborted: %w", cause))
}

func (p *Pipeline) cleanupOrphan(job *domain.Job, log *slog.Logger, vectorIDs []string) {
	log.Info("document deleted during processing, discarding result")
	p.rollbackVectors(job, log, vectorIDs)
	p.tracker.Remove(job.ID)
}

func (p *Pipeline) publish(jobID int64, status domain.JobStatus, chunkCount int, errMsg string) {
	if p.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	event := ports.JobEvent{JobID: jobID, Status: status, ChunkCount: chunkCount, Error: errMsg, At: time.Now().UTC()}
	if err := p.publisher.PublishJobEvent(ctx, event); err != nil {
		p.logger.Warn("could not publish job event", "document_id", jobID, "error", err)
	}
}

func (p *Pipeline) finish(start time.Time, outcome string) {
	if p.metrics != nil {
		p.metrics.IngestFinished(outcome, time.Since(start))
	}
}

// detach keeps the request values but survives cancellation, so
// terminal writes land even when the task context is gone.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
