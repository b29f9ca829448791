package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/edurag/edurag/internal/adapters/http"
	"github.com/edurag/edurag/internal/config"
	"github.com/edurag/edurag/internal/core/ports"
	"github.com/edurag/edurag/internal/core/usecase"
	"github.com/edurag/edurag/internal/infrastructure/chunking"
	"github.com/edurag/edurag/internal/infrastructure/embedding/openai"
	"github.com/edurag/edurag/internal/infrastructure/extractor"
	"github.com/edurag/edurag/internal/infrastructure/llm/deepseek"
	"github.com/edurag/edurag/internal/infrastructure/progress"
	natsqueue "github.com/edurag/edurag/internal/infrastructure/queue/nats"
	"github.com/edurag/edurag/internal/infrastructure/repository/postgres"
	"github.com/edurag/edurag/internal/infrastructure/tasks"
	"github.com/edurag/edurag/internal/infrastructure/vector/pinecone"
	"github.com/edurag/edurag/internal/observability/metrics"
)

// App wires the whole service together and owns the shared resources.
type App struct {
	Handler  http.Handler
	Logger   *slog.Logger
	Registry *tasks.Registry

	db        *sql.DB
	publisher *natsqueue.Publisher
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	jobRepo := postgres.NewDocumentRepository(db)
	queryLog := postgres.NewQueryLogRepository(db)

	var indexer ports.DocumentIndexer
	if cfg.IndexingConfigured() {
		embedder := openai.NewClient(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
		indexer = pinecone.NewClient(cfg.PineconeHost, cfg.PineconeAPIKey, cfg.PineconeNamespace, embedder)
	} else {
		logger.Warn("vector index not configured, documents will be stored text-only")
		indexer = pinecone.NewDisabled()
	}

	generator := deepseek.NewClient(cfg.DeepSeekURL, cfg.DeepSeekAPIKey, cfg.DeepSeekModel,
		time.Duration(cfg.DeepSeekTimeoutSecs)*time.Second)

	var publisher *natsqueue.Publisher
	var eventPublisher ports.EventPublisher
	if cfg.NATSEnabled {
		publisher, err = natsqueue.NewPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			db.Close()
			return nil, err
		}
		eventPublisher = publisher
	}

	m := metrics.New("edurag")
	tracker := progress.NewTracker()
	registry := tasks.NewRegistry(cfg.WorkerCapacity)
	chunker := chunking.NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	pipeline := usecase.NewPipeline(jobRepo, tracker, extractor.New(), chunker, indexer,
		eventPublisher, m, logger, usecase.PipelineConfig{
			BatchSize:   cfg.IndexBatchSize,
			MaxAttempts: cfg.IndexMaxAttempts,
			Backoff:     cfg.IndexBackoff(),
		})

	ingestor := usecase.NewIngestor(jobRepo, tracker, registry, pipeline, cfg.MaxUploadBytes, logger)
	engine := usecase.NewEngine(generator, cfg.DeepSeekTemperature, cfg.DeepSeekMaxTokens, cfg.MinRelevanceScore, logger)
	query := usecase.NewQuery(jobRepo, queryLog, indexer, engine, m, logger, cfg.SearchTopK, cfg.MinRelevanceScore)
	admin := usecase.NewAdmin(jobRepo, queryLog, indexer, tracker, registry, logger)

	handlers := httpadapter.NewHandlers(ingestor, query, admin, cfg.MaxUploadBytes, cfg.ProgressTick(), logger)
	checks := map[string]func(ctx context.Context) error{
		"postgres": db.PingContext,
	}
	router := httpadapter.NewRouter(handlers, m, logger, httpadapter.RouterConfig{
		RateLimitRPS:   cfg.APIRateLimitRPS,
		RateLimitBurst: cfg.APIRateLimitBurst,
		MaxInFlight:    cfg.MaxInFlight,
	}, checks)

	return &App{
		Handler:   router,
		Logger:    logger,
		Registry:  registry,
		db:        db,
		publisher: publisher,
	}, nil
}

// Close drains background tasks and releases shared resources.
func (a *App) Close(ctx context.Context) error {
	err := a.Registry.Shutdown(ctx)
	if a.publisher != nil {
		a.publisher.Close()
	}
	if dbErr := a.db.Close(); dbErr != nil && err == nil {
		err = dbErr
	}
	return err
}
