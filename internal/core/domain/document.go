package domain

import (
	"fmt"
	"strings"
	"time"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type FileType string

const (
	FilePDF  FileType = "pdf"
	FileDOCX FileType = "docx"
	FileDOC  FileType = "doc"
	FileTXT  FileType = "txt"
	FileCSV  FileType = "csv"
	FileXLSX FileType = "xlsx"
)

// ParseFileType maps a filename extension to a supported file type.
func ParseFileType(ext string) (FileType, error) {
	switch FileType(strings.ToLower(strings.TrimPrefix(ext, "."))) {
	case FilePDF:
		return FilePDF, nil
	case FileDOCX:
		return FileDOCX, nil
	case FileDOC:
		return FileDOC, nil
	case FileTXT:
		return FileTXT, nil
	case FileCSV:
		return FileCSV, nil
	case FileXLSX:
		return FileXLSX, nil
	default:
		return "", WrapError(ErrUnsupportedType, "parse file type", fmt.Errorf("extension %q", ext))
	}
}

// JobMetadata is stored as a JSONB column alongside the job row.
type JobMetadata struct {
	TextLength        int     `json:"text_length,omitempty"`
	ProcessedAt       string  `json:"processed_at,omitempty"`
	ProcessingSeconds float64 `json:"processing_time,omitempty"`
	IndexingSkipped   string  `json:"indexing_skipped,omitempty"`
	Error             string  `json:"error,omitempty"`
	FailedAt          string  `json:"failed_at,omitempty"`
}

// Job is one uploaded document's processing unit, created at upload and
// mutated only by its own ingestion task.
type Job struct {
	ID         int64       `json:"id"`
	Filename   string      `json:"filename"`
	StoredName string      `json:"stored_name"`
	FileType   FileType    `json:"file_type"`
	FileSize   int64       `json:"file_size"`
	Status     JobStatus   `json:"status"`
	ChunkCount int         `json:"chunk_count"`
	VectorIDs  []string    `json:"vector_ids"`
	Metadata   JobMetadata `json:"metadata"`
	UploadedAt time.Time   `json:"upload_time"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Chunk is a bounded text segment derived from a job's extracted text.
// Immutable once produced.
type Chunk struct {
	JobID       int64    `json:"job_id"`
	Ordinal     int      `json:"ordinal"`
	Text        string   `json:"text"`
	Source      string   `json:"source"`
	FileType    FileType `json:"file_type"`
	TotalChunks int      `json:"total_chunks"`
}

// VectorID encodes the parent job and chunk ordinal so a job's vectors
// can always be deleted from the recorded id list alone.
func VectorID(jobID int64, ordinal int) string {
	return fmt.Sprintf("%d_%d", jobID, ordinal)
}

// DocumentStats aggregates job counts for the analytics endpoint.
type DocumentStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
}

func (s DocumentStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}
