package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
	"github.com/edurag/edurag/internal/core/ports"
)

// AdminPort is the document administration surface the handlers need:
// listing, status, deletion, analytics and live progress access.
type AdminPort interface {
	ports.DocumentAdmin
	ports.AnalyticsProvider
	Progress(id int64) (domain.ProgressRecord, bool)
	WatchProgress(ctx context.Context, id int64, interval time.Duration) <-chan domain.ProgressRecord
}

// Handlers binds the inbound ports to the HTTP surface.
type Handlers struct {
	ingestor       ports.DocumentIngestor
	query          ports.QueryService
	admin          AdminPort
	maxUpload      int64
	streamInterval time.Duration
	logger         *slog.Logger
}

func NewHandlers(ingestor ports.DocumentIngestor, query ports.QueryService, admin AdminPort, maxUpload int64, streamInterval time.Duration, logger *slog.Logger) *Handlers {
	if streamInterval <= 0 {
		streamInterval = time.Second
	}
	return &Handlers{
		ingestor:       ingestor,
		query:          query,
		admin:          admin,
		maxUpload:      maxUpload,
		streamInterval: streamInterval,
		logger:         logger,
	}
}

type uploadResponse struct {
	DocumentID    int64  `json:"document_id"`
	Filename      string `json:"filename"`
	FileType      string `json:"file_type"`
	FileSize      int64  `json:"file_size"`
	Status        string `json:"status"`
	ProgressURL   string `json:"progress_url"`
	EstimatedTime string `json:"estimated_processing_time"`
}

func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1024)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	result, err := h.ingestor.Upload(r.Context(), header.Filename, data)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// ingestion is already scheduled by the time the response goes out,
	// so the client sees it as processing
	writeJSON(w, http.StatusAccepted, uploadResponse{
		DocumentID:    result.Job.ID,
		Filename:      result.Job.Filename,
		FileType:      string(result.Job.FileType),
		FileSize:      result.Job.FileSize,
		Status:        string(domain.StatusProcessing),
		ProgressURL:   fmt.Sprintf("/documents/%d/progress", result.Job.ID),
		EstimatedTime: result.EstimatedTime,
	})
}

func (h *Handlers) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, found := h.admin.Progress(id)
	if !found {
		writeError(w, http.StatusNotFound, "no progress for document")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// StreamProgress pushes progress snapshots as server-sent events until
// the job reaches a terminal state or the client goes away.
func (h *Handlers) StreamProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if _, found := h.admin.Progress(id); !found {
		writeError(w, http.StatusNotFound, "no progress for document")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for rec := range h.admin.WatchProgress(r.Context(), id, h.streamInterval) {
		payload, err := json.Marshal(rec)
		if err != nil {
			h.logger.Error("could not encode progress event", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

type documentsResponse struct {
	Documents []domain.Job `json:"documents"`
	Total     int          `json:"total"`
}

func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.admin.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, http.StatusOK, documentsResponse{Documents: jobs, Total: len(jobs)})
}

func (h *Handlers) DocumentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, err := h.admin.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.admin.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "document_id": id})
}

type queryRequestBody struct {
	Question            string `json:"question"`
	SessionID           string `json:"session_id"`
	UseUploadedDocsOnly bool   `json:"use_uploaded_docs_only"`
}

type queryResponseBody struct {
	Answer             string                     `json:"answer"`
	Sources            []domain.RetrievedDocument `json:"sources"`
	SourceType         string                     `json:"source_type"`
	Relevance          string                     `json:"relevance,omitempty"`
	Strategy           string                     `json:"strategy_used"`
	FallbackReason     string                     `json:"fallback_reason,omitempty"`
	IsFromUploadedDocs bool                       `json:"is_from_uploaded_docs"`
	ProcessingTime     float64                    `json:"processing_time"`
	SessionID          string                     `json:"session_id"`
}

func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	var body queryRequestBody
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.query.Answer(r.Context(), ports.QueryRequest{
		Question:            body.Question,
		SessionID:           body.SessionID,
		UseUploadedDocsOnly: body.UseUploadedDocsOnly,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sources := result.Sources
	if sources == nil {
		sources = []domain.RetrievedDocument{}
	}
	writeJSON(w, http.StatusOK, queryResponseBody{
		Answer:             result.Answer,
		Sources:            sources,
		SourceType:         result.SourceType,
		Relevance:          string(result.Relevance),
		Strategy:           string(result.StrategyUsed),
		FallbackReason:     result.FallbackReason,
		IsFromUploadedDocs: result.IsFromUploadedDocs,
		ProcessingTime:     result.ProcessingTime,
		SessionID:          result.SessionID,
	})
}

func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.admin.Analytics(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type healthChecker func(ctx context.Context) error

// Health reports overall service liveness plus per-dependency status.
func (h *Handlers) Health(checks map[string]healthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := "ok"
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = "degraded"
			} else {
				deps[name] = "ok"
			}
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status":       status,
			"dependencies": deps,
			"time":         time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return 0, false
	}
	return id, true
}
