package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
	"github.com/edurag/edurag/internal/core/ports"
)

// Ingestor validates uploads, persists the pending job and hands the
// raw bytes to the background pipeline.
type Ingestor struct {
	repo     ports.JobRepository
	tracker  ports.ProgressTracker
	registry ports.TaskRegistry
	pipeline *Pipeline
	maxBytes int64
	logger   *slog.Logger
}

func NewIngestor(repo ports.JobRepository, tracker ports.ProgressTracker, registry ports.TaskRegistry, pipeline *Pipeline, maxBytes int64, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		repo:     repo,
		tracker:  tracker,
		registry: registry,
		pipeline: pipeline,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func (s *Ingestor) Upload(ctx context.Context, filename string, data []byte) (*ports.UploadResult, error) {
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("missing filename"))
	}

	fileType, err := domain.ParseFileType(filepath.Ext(filename))
	if err != nil {
		return nil, err
	}

	size := int64(len(data))
	if size == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("file %s is empty", filename))
	}
	if size > s.maxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload",
			fmt.Errorf("file %s is %d bytes, limit is %d", filename, size, s.maxBytes))
	}

	job := &domain.Job{
		Filename:   filename,
		StoredName: fmt.Sprintf("%d_%s", time.Now().Unix(), filename),
		FileType:   fileType,
		FileSize:   size,
		Status:     domain.StatusPending,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	s.tracker.Register(job.ID, filename)
	if err := s.registry.Start(job.ID, func(taskCtx context.Context) {
		s.pipeline.Run(taskCtx, job, data)
	}); err != nil {
		s.tracker.Remove(job.ID)
		return nil, domain.WrapError(domain.ErrTemporary, "schedule ingestion", err)
	}

	s.logger.Info("upload accepted",
		"document_id", job.ID,
		"filename", filename,
		"file_type", string(fileType),
		"file_size", size)

	return &ports.UploadResult{
		Job:           job,
		EstimatedTime: estimateProcessingTime(fileType, size),
	}, nil
}

// seconds of processing per megabyte, by format. Rough figures from
// observed extraction and embedding throughput.
var secondsPerMB = map[domain.FileType]float64{
	domain.FilePDF:  30,
	domain.FileDOCX: 20,
	domain.FileDOC:  20,
	domain.FileTXT:  10,
	domain.FileCSV:  25,
	domain.FileXLSX: 35,
}

func estimateProcessingTime(fileType domain.FileType, size int64) string {
	rate, ok := secondsPerMB[fileType]
	if !ok {
		rate = 20
	}
	seconds := float64(size) / (1 << 20) * rate
	switch {
	case seconds < 10:
		return "< 10 seconds"
	case seconds < 60:
		return fmt.Sprintf("~%d seconds", int(math.Round(seconds)))
	default:
		return fmt.Sprintf("~%d minutes", int(math.Round(seconds/60)))
	}
}
