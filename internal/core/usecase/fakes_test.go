package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
	"github.com/edurag/edurag/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*domain.Job

	createErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, jobs: make(map[int64]*domain.Job)}
}

func (r *fakeRepo) Create(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	job.ID = r.nextID
	r.nextID++
	job.UploadedAt = time.Now()
	job.UpdatedAt = job.UploadedAt
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get", domain.ErrJobNotFound)
	}
	copied := *job
	return &copied, nil
}

func (r *fakeRepo) List(_ context.Context) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Job
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	return out, nil
}

func (r *fakeRepo) ListCompleted(_ context.Context) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Job
	for _, job := range r.jobs {
		if job.Status == domain.StatusCompleted {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int64, status domain.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	job, ok := r.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrJobNotFound, "update status", domain.ErrJobNotFound)
	}
	job.Status = status
	return nil
}

func (r *fakeRepo) SaveResult(_ context.Context, id int64, chunkCount int, vectorIDs []string, meta domain.JobMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrJobNotFound, "save result", domain.ErrJobNotFound)
	}
	job.Status = domain.StatusCompleted
	job.ChunkCount = chunkCount
	job.VectorIDs = vectorIDs
	job.Metadata = meta
	return nil
}

func (r *fakeRepo) MarkFailed(_ context.Context, id int64, meta domain.JobMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrJobNotFound, "mark failed", domain.ErrJobNotFound)
	}
	job.Status = domain.StatusFailed
	job.Metadata = meta
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return domain.WrapError(domain.ErrJobNotFound, "delete", domain.ErrJobNotFound)
	}
	delete(r.jobs, id)
	return nil
}

func (r *fakeRepo) Stats(_ context.Context) (domain.DocumentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats domain.DocumentStats
	for _, job := range r.jobs {
		stats.Total++
		switch job.Status {
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		default:
			stats.Processing++
		}
	}
	return stats, nil
}

type fakeQueryLog struct {
	mu      sync.Mutex
	records []domain.QueryRecord
	stats   domain.QueryStats
}

func (l *fakeQueryLog) Insert(_ context.Context, rec *domain.QueryRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec.ID = int64(len(l.records) + 1)
	l.records = append(l.records, *rec)
	return nil
}

func (l *fakeQueryLog) Stats(context.Context) (domain.QueryStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) Extract(_ context.Context, _ []byte, _ domain.FileType, _ string, report func(float64)) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	if report != nil {
		report(1)
	}
	return e.text, nil
}

type fakeChunker struct {
	chunks []string
}

func (c *fakeChunker) Split(string) []string { return c.chunks }

type fakeIndexer struct {
	mu         sync.Mutex
	added      [][]string
	deleted    [][]string
	addErrs    []error // consumed per AddBatch call, nil past the end
	searchDocs []domain.RetrievedDocument
	searchErr  error
}

func (f *fakeIndexer) AddBatch(_ context.Context, _ []domain.Chunk, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if len(f.addErrs) > 0 {
		err = f.addErrs[0]
		f.addErrs = f.addErrs[1:]
	}
	if err != nil {
		return err
	}
	f.added = append(f.added, append([]string(nil), ids...))
	return nil
}

func (f *fakeIndexer) Search(context.Context, string, []int64, int) ([]domain.RetrievedDocument, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchDocs, nil
}

func (f *fakeIndexer) DeleteByIDs(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, append([]string(nil), ids...))
	return nil
}

func (f *fakeIndexer) addedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []string
	for _, batch := range f.added {
		all = append(all, batch...)
	}
	return all
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	answers []string
	errs    []error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, _ float64, _ int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	call := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if call < len(g.errs) && g.errs[call] != nil {
		return "", g.errs[call]
	}
	if call < len(g.answers) {
		return g.answers[call], nil
	}
	return "generated answer", nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeTracker struct {
	mu      sync.Mutex
	records map[int64]domain.ProgressRecord
	history map[int64][]int
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		records: make(map[int64]domain.ProgressRecord),
		history: make(map[int64][]int),
	}
}

func (t *fakeTracker) Register(jobID int64, filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[jobID] = domain.ProgressRecord{JobID: jobID, Filename: filename, Status: domain.StatusPending}
}

func (t *fakeTracker) Update(jobID int64, percent int, status domain.JobStatus, errMessage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[jobID]
	if !ok {
		return
	}
	rec.Percent = percent
	rec.Status = status
	rec.Error = errMessage
	t.records[jobID] = rec
	t.history[jobID] = append(t.history[jobID], percent)
}

func (t *fakeTracker) Get(jobID int64) (domain.ProgressRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[jobID]
	return rec, ok
}

func (t *fakeTracker) Remove(jobID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, jobID)
}

func (t *fakeTracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, rec := range t.records {
		if !rec.Status.Terminal() {
			n++
		}
	}
	return n
}

func (t *fakeTracker) TrackedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

func (t *fakeTracker) Watch(ctx context.Context, jobID int64, _ time.Duration) <-chan domain.ProgressRecord {
	out := make(chan domain.ProgressRecord)
	close(out)
	return out
}

type fakeRegistry struct {
	mu       sync.Mutex
	started  []int64
	canceled []int64
	startErr error
	runNow   bool // run the task synchronously inside Start
}

func (r *fakeRegistry) Start(jobID int64, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if r.startErr != nil {
		defer r.mu.Unlock()
		return r.startErr
	}
	r.started = append(r.started, jobID)
	run := r.runNow
	r.mu.Unlock()
	if run {
		fn(context.Background())
	}
	return nil
}

func (r *fakeRegistry) Cancel(jobID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = append(r.canceled, jobID)
	return false
}

func (r *fakeRegistry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.started)
}

var _ ports.JobRepository = (*fakeRepo)(nil)
var _ ports.QueryLogRepository = (*fakeQueryLog)(nil)
var _ ports.TextExtractor = (*fakeExtractor)(nil)
var _ ports.Chunker = (*fakeChunker)(nil)
var _ ports.DocumentIndexer = (*fakeIndexer)(nil)
var _ ports.TextGenerator = (*fakeGenerator)(nil)
var _ ports.ProgressTracker = (*fakeTracker)(nil)
var _ ports.TaskRegistry = (*fakeRegistry)(nil)
