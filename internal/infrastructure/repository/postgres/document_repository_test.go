package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/edurag/edurag/internal/core/domain"
)

func newMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepository(db), mock
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs("notes.pdf", "1700000000_notes.pdf", "pdf", int64(2048), "pending", 0, []byte(`[]`), []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uploaded_at", "updated_at"}).AddRow(int64(5), now, now))

	job := &domain.Job{
		Filename:   "notes.pdf",
		StoredName: "1700000000_notes.pdf",
		FileType:   domain.FilePDF,
		FileSize:   2048,
		Status:     domain.StatusPending,
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID != 5 {
		t.Fatalf("id not assigned: %d", job.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE id`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)
	if !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGetByIDDecodesJSONBColumns(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "filename", "stored_name", "file_type", "file_size", "status",
		"chunk_count", "vector_ids", "metadata", "uploaded_at", "updated_at",
	}).AddRow(int64(3), "bio.pdf", "1700_bio.pdf", "pdf", int64(1000), "completed",
		2, []byte(`["3_0","3_1"]`), []byte(`{"text_length":500,"processing_time":4.2}`), now, now)

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE id`).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(job.VectorIDs) != 2 || job.VectorIDs[1] != "3_1" {
		t.Fatalf("vector ids not decoded: %v", job.VectorIDs)
	}
	if job.Metadata.TextLength != 500 || job.Metadata.ProcessingSeconds != 4.2 {
		t.Fatalf("metadata not decoded: %+v", job.Metadata)
	}
}

func TestSaveResultStoresVectorIDs(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(`UPDATE documents`).
		WithArgs("completed", 2, []byte(`["7_0","7_1"]`), sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	meta := domain.JobMetadata{TextLength: 900, ProcessingSeconds: 3.5}
	if err := repo.SaveResult(context.Background(), 7, 2, []string{"7_0", "7_1"}, meta); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveResultNilVectorIDsBecomesEmptyList(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(`UPDATE documents`).
		WithArgs("completed", 3, []byte(`[]`), sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveResult(context.Background(), 7, 3, nil, domain.JobMetadata{}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
}

func TestMarkFailedUnknownID(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(`UPDATE documents`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkFailed(context.Background(), 42, domain.JobMetadata{Error: "boom"})
	if !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM documents`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 4); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestStats(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT count`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "completed", "processing", "failed"}).
			AddRow(10, 7, 2, 1))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 10 || stats.Completed != 7 || stats.Processing != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if got := stats.SuccessRate(); got != 70 {
		t.Fatalf("SuccessRate = %v, want 70", got)
	}
}
