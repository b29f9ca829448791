package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edurag/edurag/internal/core/domain"
	"github.com/edurag/edurag/internal/core/ports"
)

const (
	sourcePreviewLimit = 300
	maxSourcesReturned = 3

	fallbackLowRelevance = "low_document_relevance"
)

type queryMetrics interface {
	ObserveQuery(strategy string, elapsed time.Duration)
	ObserveRetrieved(n int)
}

// Query orchestrates retrieval, strategy execution, fallback and the
// query log for one question.
type Query struct {
	repo     ports.JobRepository
	queryLog ports.QueryLogRepository
	indexer  ports.DocumentIndexer
	engine   *Engine
	metrics  queryMetrics
	logger   *slog.Logger

	topK     int
	minScore float64
}

func NewQuery(repo ports.JobRepository, queryLog ports.QueryLogRepository, indexer ports.DocumentIndexer, engine *Engine, m queryMetrics, logger *slog.Logger, topK int, minScore float64) *Query {
	if topK <= 0 {
		topK = 5
	}
	return &Query{
		repo:     repo,
		queryLog: queryLog,
		indexer:  indexer,
		engine:   engine,
		metrics:  m,
		logger:   logger,
		topK:     topK,
		minScore: minScore,
	}
}

func (q *Query) Answer(ctx context.Context, req ports.QueryRequest) (*ports.QueryResult, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "query", fmt.Errorf("question is empty"))
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	completed, err := q.repo.ListCompleted(ctx)
	if err != nil {
		return nil, err
	}
	jobIDs := make([]int64, len(completed))
	for i, job := range completed {
		jobIDs[i] = job.ID
	}

	if req.UseUploadedDocsOnly && len(jobIDs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "query",
			fmt.Errorf("no completed documents to search"))
	}

	var docs []domain.RetrievedDocument
	if len(jobIDs) > 0 {
		docs, err = q.indexer.Search(ctx, question, jobIDs, q.topK)
		if err != nil {
			// retrieval trouble must not block answering; fall through
			// with an empty result set
			q.logger.Warn("similarity search failed", "error", err)
			docs = nil
		}
		if q.metrics != nil {
			q.metrics.ObserveRetrieved(len(docs))
		}
	}

	strategy := domain.StrategyAuto
	if req.UseUploadedDocsOnly {
		strategy = domain.StrategyDocsOnly
	}

	result := q.engine.Answer(ctx, question, strategy, docs)

	// no strategy leaves the caller without an answer: when the documents
	// cover the question poorly, even a forced docs_only query falls back
	// to general knowledge with the reason recorded
	if !result.Answered {
		fallback := q.engine.Answer(ctx, question, domain.StrategyGeneralOnly, nil)
		fallback.Relevance = result.Relevance
		fallback.FallbackReason = fallbackLowRelevance
		result = fallback
	}

	sources := q.sources(docs, result)
	elapsed := time.Since(start).Seconds()

	q.logQuery(ctx, question, result.Answer, sources, elapsed, sessionID)
	if q.metrics != nil {
		q.metrics.ObserveQuery(string(result.StrategyUsed), time.Since(start))
	}
	q.logger.Info("question answered",
		"strategy", string(result.StrategyUsed),
		"source_type", result.SourceType,
		"relevance", string(result.Relevance),
		"sources", len(sources),
		"elapsed", elapsed)

	return &ports.QueryResult{
		Answer:             result.Answer,
		Sources:            sources,
		SourceType:         result.SourceType,
		Relevance:          result.Relevance,
		StrategyUsed:       result.StrategyUsed,
		FallbackReason:     result.FallbackReason,
		IsFromUploadedDocs: result.FromUploadedDocs(),
		ProcessingTime:     elapsed,
		SessionID:          sessionID,
	}, nil
}

// sources exposes the provenance of a document-grounded answer: the
// best qualifying matches, previews truncated for transport.
func (q *Query) sources(docs []domain.RetrievedDocument, result domain.StrategyResult) []domain.RetrievedDocument {
	if !result.FromUploadedDocs() || result.SourceType == domain.SourceError {
		return nil
	}

	var out []domain.RetrievedDocument
	for _, d := range docs {
		if d.Score < q.minScore {
			continue
		}
		if preview := truncateRunes(d.Text, sourcePreviewLimit); preview != d.Text {
			d.Text = preview + "..."
		}
		out = append(out, d)
		if len(out) == maxSourcesReturned {
			break
		}
	}
	return out
}

func (q *Query) logQuery(ctx context.Context, question, answer string, sources []domain.RetrievedDocument, elapsed float64, sessionID string) {
	seen := make(map[int64]bool)
	var ids []int64
	for _, s := range sources {
		if !seen[s.JobID] {
			seen[s.JobID] = true
			ids = append(ids, s.JobID)
		}
	}

	rec := &domain.QueryRecord{
		Question:     question,
		Answer:       answer,
		SourceJobIDs: ids,
		ResponseTime: elapsed,
		SessionID:    sessionID,
	}
	if err := q.queryLog.Insert(ctx, rec); err != nil {
		q.logger.Warn("could not record query", "error", err)
	}
}
