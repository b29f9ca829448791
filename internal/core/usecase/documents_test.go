package usecase

import (
	"context"
	"testing"

	"github.com/edurag/edurag/internal/core/domain"
)

func newTestAdmin(repo *fakeRepo, log *fakeQueryLog, indexer *fakeIndexer, tracker *fakeTracker, registry *fakeRegistry) *Admin {
	return NewAdmin(repo, log, indexer, tracker, registry, testLogger())
}

func TestDeleteRemovesVectorsRowAndProgress(t *testing.T) {
	repo := newFakeRepo()
	tracker := newFakeTracker()
	indexer := &fakeIndexer{}
	registry := &fakeRegistry{}
	admin := newTestAdmin(repo, &fakeQueryLog{}, indexer, tracker, registry)

	job := seedCompletedJob(t, repo)
	tracker.Register(job.ID, job.Filename)

	if err := admin.Delete(context.Background(), job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), job.ID); !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatal("row must be gone")
	}
	if len(indexer.deleted) != 1 || len(indexer.deleted[0]) != 2 {
		t.Fatalf("vectors not deleted: %v", indexer.deleted)
	}
	if tracker.TrackedCount() != 0 {
		t.Fatal("progress entry must be removed")
	}
	if len(registry.canceled) != 1 {
		t.Fatal("in-flight task must be canceled")
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	admin := newTestAdmin(newFakeRepo(), &fakeQueryLog{}, &fakeIndexer{}, newFakeTracker(), &fakeRegistry{})

	err := admin.Delete(context.Background(), 99)
	if !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDeleteDegradedDocumentSkipsVectorDeletion(t *testing.T) {
	repo := newFakeRepo()
	indexer := &fakeIndexer{}
	admin := newTestAdmin(repo, &fakeQueryLog{}, indexer, newFakeTracker(), &fakeRegistry{})

	job := &domain.Job{Filename: "a.txt", FileType: domain.FileTXT, FileSize: 10}
	repo.Create(context.Background(), job)
	repo.SaveResult(context.Background(), job.ID, 3, nil, domain.JobMetadata{IndexingSkipped: "indexing failed"})

	if err := admin.Delete(context.Background(), job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(indexer.deleted) != 0 {
		t.Fatalf("no vector deletion expected: %v", indexer.deleted)
	}
}

func TestListOverlaysLiveProgressStatus(t *testing.T) {
	repo := newFakeRepo()
	tracker := newFakeTracker()
	admin := newTestAdmin(repo, &fakeQueryLog{}, &fakeIndexer{}, tracker, &fakeRegistry{})

	job := &domain.Job{Filename: "a.txt", FileType: domain.FileTXT, FileSize: 10, Status: domain.StatusPending}
	repo.Create(context.Background(), job)
	tracker.Register(job.ID, job.Filename)
	tracker.Update(job.ID, 40, domain.StatusProcessing, "")

	jobs, err := admin.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Status != domain.StatusProcessing {
		t.Fatalf("live status not overlaid: %+v", jobs)
	}
}

func TestAnalyticsAggregates(t *testing.T) {
	repo := newFakeRepo()
	tracker := newFakeTracker()
	log := &fakeQueryLog{stats: domain.QueryStats{Total: 4, AvgResponseTime: 1.5}}
	admin := newTestAdmin(repo, log, &fakeIndexer{}, tracker, &fakeRegistry{})

	seedCompletedJob(t, repo)
	job := &domain.Job{Filename: "b.txt", FileType: domain.FileTXT, FileSize: 10, Status: domain.StatusPending}
	repo.Create(context.Background(), job)
	tracker.Register(job.ID, job.Filename)
	tracker.Update(job.ID, 30, domain.StatusProcessing, "")

	a, err := admin.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.Documents.Total != 2 || a.Documents.Completed != 1 {
		t.Fatalf("document stats wrong: %+v", a.Documents)
	}
	if a.Queries.Total != 4 {
		t.Fatalf("query stats wrong: %+v", a.Queries)
	}
	if a.ActiveJobs != 1 || a.TrackedJobs != 1 {
		t.Fatalf("live counters wrong: active=%d tracked=%d", a.ActiveJobs, a.TrackedJobs)
	}
}
