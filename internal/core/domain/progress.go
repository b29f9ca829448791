package domain

import "time"

// ProgressRecord is the in-memory view of one job's ingestion progress.
// It is never persisted; a restart starts with an empty tracker.
type ProgressRecord struct {
	JobID     int64     `json:"document_id"`
	Percent   int       `json:"progress"`
	Status    JobStatus `json:"status"`
	Filename  string    `json:"filename,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"timestamp"`
}
