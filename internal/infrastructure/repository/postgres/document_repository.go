package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edurag/edurag/internal/core/domain"
)

// DocumentRepository persists jobs in the documents table. Slice and
// struct columns are stored as JSONB.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const jobColumns = `id, filename, stored_name, file_type, file_size, status, chunk_count, vector_ids, metadata, uploaded_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, job *domain.Job) error {
	vectorIDs, err := json.Marshal(emptyIfNil(job.VectorIDs))
	if err != nil {
		return fmt.Errorf("encode vector ids: %w", err)
	}
	meta, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO documents (filename, stored_name, file_type, file_size, status, chunk_count, vector_ids, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, uploaded_at, updated_at`,
		job.Filename, job.StoredName, string(job.FileType), job.FileSize,
		string(job.Status), job.ChunkCount, vectorIDs, meta)

	if err := row.Scan(&job.ID, &job.UploadedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM documents WHERE id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get document", fmt.Errorf("id %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return job, nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]domain.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM documents ORDER BY uploaded_at DESC`)
}

func (r *DocumentRepository) ListCompleted(ctx context.Context) ([]domain.Job, error) {
	return r.list(ctx,
		`SELECT `+jobColumns+` FROM documents WHERE status = $1 ORDER BY uploaded_at DESC`,
		string(domain.StatusCompleted))
}

func (r *DocumentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return jobs, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status domain.JobStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(res, id, "update status")
}

func (r *DocumentRepository) SaveResult(ctx context.Context, id int64, chunkCount int, vectorIDs []string, meta domain.JobMetadata) error {
	ids, err := json.Marshal(emptyIfNil(vectorIDs))
	if err != nil {
		return fmt.Errorf("encode vector ids: %w", err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE documents
		 SET status = $1, chunk_count = $2, vector_ids = $3, metadata = $4, updated_at = now()
		 WHERE id = $5`,
		string(domain.StatusCompleted), chunkCount, ids, metaJSON, id)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return requireRow(res, id, "save result")
}

func (r *DocumentRepository) MarkFailed(ctx context.Context, id int64, meta domain.JobMetadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, metadata = $2, updated_at = now() WHERE id = $3`,
		string(domain.StatusFailed), metaJSON, id)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return requireRow(res, id, "mark failed")
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res, id, "delete document")
}

func (r *DocumentRepository) Stats(ctx context.Context) (domain.DocumentStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'completed'),
		        count(*) FILTER (WHERE status IN ('pending', 'processing')),
		        count(*) FILTER (WHERE status = 'failed')
		 FROM documents`)

	var stats domain.DocumentStats
	if err := row.Scan(&stats.Total, &stats.Completed, &stats.Processing, &stats.Failed); err != nil {
		return domain.DocumentStats{}, fmt.Errorf("document stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job       domain.Job
		fileType  string
		status    string
		vectorIDs []byte
		meta      []byte
	)
	err := row.Scan(&job.ID, &job.Filename, &job.StoredName, &fileType, &job.FileSize,
		&status, &job.ChunkCount, &vectorIDs, &meta, &job.UploadedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	job.FileType = domain.FileType(fileType)
	job.Status = domain.JobStatus(status)
	if err := json.Unmarshal(vectorIDs, &job.VectorIDs); err != nil {
		return nil, fmt.Errorf("decode vector ids: %w", err)
	}
	if err := json.Unmarshal(meta, &job.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &job, nil
}

func requireRow(res sql.Result, id int64, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrJobNotFound, op, fmt.Errorf("id %d", id))
	}
	return nil
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
