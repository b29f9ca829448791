package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB connects through the pgx stdlib driver and verifies the
// connection.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// schemaLockID serializes EnsureSchema across replicas.
const schemaLockID = 874522031

// EnsureSchema creates the tables and indexes under an advisory lock so
// concurrent instances do not race on DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	defer conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", schemaLockID)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id          BIGSERIAL PRIMARY KEY,
			filename    TEXT NOT NULL,
			stored_name TEXT NOT NULL,
			file_type   TEXT NOT NULL,
			file_size   BIGINT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			chunk_count INTEGER NOT NULL DEFAULT 0,
			vector_ids  JSONB NOT NULL DEFAULT '[]',
			metadata    JSONB NOT NULL DEFAULT '{}',
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents (uploaded_at DESC)`,
		`CREATE TABLE IF NOT EXISTS query_logs (
			id             BIGSERIAL PRIMARY KEY,
			question       TEXT NOT NULL,
			answer         TEXT NOT NULL,
			source_doc_ids JSONB NOT NULL DEFAULT '[]',
			response_time  DOUBLE PRECISION NOT NULL,
			session_id     TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_query_logs_created_at ON query_logs (created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
