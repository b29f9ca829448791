package domain

import "time"

// QueryRecord is an append-only log entry for one answered question.
type QueryRecord struct {
	ID           int64     `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	SourceJobIDs []int64   `json:"sources_used"`
	ResponseTime float64   `json:"response_time"`
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// QueryStats aggregates the query log for the analytics endpoint.
type QueryStats struct {
	Total           int     `json:"total"`
	AvgResponseTime float64 `json:"average_response_time"`
}
