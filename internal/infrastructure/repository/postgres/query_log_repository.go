package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/edurag/edurag/internal/core/domain"
)

// QueryLogRepository appends answered questions to the query_logs
// table.
type QueryLogRepository struct {
	db *sql.DB
}

func NewQueryLogRepository(db *sql.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

func (r *QueryLogRepository) Insert(ctx context.Context, rec *domain.QueryRecord) error {
	ids := rec.SourceJobIDs
	if ids == nil {
		ids = []int64{}
	}
	sourceIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode source ids: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO query_logs (question, answer, source_doc_ids, response_time, session_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rec.Question, rec.Answer, sourceIDs, rec.ResponseTime, rec.SessionID)

	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}

func (r *QueryLogRepository) Stats(ctx context.Context) (domain.QueryStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT count(*), COALESCE(avg(response_time), 0) FROM query_logs`)

	var stats domain.QueryStats
	if err := row.Scan(&stats.Total, &stats.AvgResponseTime); err != nil {
		return domain.QueryStats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}
