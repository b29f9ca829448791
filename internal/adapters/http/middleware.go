package http

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/edurag/edurag/internal/observability/metrics"
)

const requestIDHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return r.ResponseWriter.(http.Hijacker).Hijack()
}

// withRequestID assigns every request an id, honoring one supplied by
// the caller.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// withObservability logs each request and records it in the metrics
// registry.
func withObservability(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			if m != nil {
				m.HTTPInFlight().Inc()
				defer m.HTTPInFlight().Dec()
			}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			if m != nil {
				m.ObserveHTTP(r.Method, r.URL.Path, rec.status, elapsed)
			}
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", w.Header().Get(requestIDHeader),
				"remote", r.RemoteAddr)
		})
	}
}

// withRateLimit rejects requests above the configured rate with 429 and
// a Retry-After hint. A nil limiter disables the check.
func withRateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				retryAfter := 1
				if limit := limiter.Limit(); limit > 0 && limit < 1 {
					retryAfter = int(1/float64(limit)) + 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// withBackpressure caps concurrent requests; overflow is shed with 503
// instead of queueing.
func withBackpressure(maxInFlight int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxInFlight <= 0 {
			return next
		}
		sem := make(chan struct{}, maxInFlight)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
				next.ServeHTTP(w, r)
			default:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "server overloaded")
			}
		})
	}
}
