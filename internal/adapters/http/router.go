package http

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/edurag/edurag/internal/observability/metrics"
)

// RouterConfig tunes the transport-level protections.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
}

// NewRouter assembles the full HTTP surface with its middleware stack.
// checks feed the health endpoint; m may be nil in tests.
func NewRouter(h *Handlers, m *metrics.Metrics, logger *slog.Logger, cfg RouterConfig, checks map[string]func(ctx context.Context) error) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload", h.Upload)
	mux.HandleFunc("GET /documents", h.ListDocuments)
	mux.HandleFunc("GET /documents/{id}/status", h.DocumentStatus)
	mux.HandleFunc("GET /documents/{id}/progress", h.Progress)
	mux.HandleFunc("GET /documents/{id}/progress/stream", h.StreamProgress)
	mux.HandleFunc("DELETE /documents/{id}", h.DeleteDocument)
	mux.HandleFunc("POST /query", h.Query)
	mux.HandleFunc("GET /analytics", h.Analytics)

	healthChecks := make(map[string]healthChecker, len(checks))
	for name, check := range checks {
		healthChecks[name] = check
	}
	mux.HandleFunc("GET /health", h.Health(healthChecks))

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	var handler http.Handler = mux
	handler = withBackpressure(cfg.MaxInFlight)(handler)
	handler = withRateLimit(limiter)(handler)
	handler = withObservability(logger, m)(handler)
	handler = withRequestID(handler)
	return handler
}
