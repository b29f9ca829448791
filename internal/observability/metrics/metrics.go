package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service registry and all instruments.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	ingestTotal    *prometheus.CounterVec
	ingestDuration prometheus.Histogram
	ingestInFlight prometheus.Gauge

	queryTotal     *prometheus.CounterVec
	queryDuration  prometheus.Histogram
	chunksReturned prometheus.Histogram
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path pattern and status code.",
		}, []string{"method", "path", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_jobs_total",
			Help:      "Finished ingestion jobs by outcome.",
		}, []string{"outcome"}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Wall-clock time of one ingestion job.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		ingestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_jobs_in_flight",
			Help:      "Ingestion jobs currently running.",
		}),
		queryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_requests_total",
			Help:      "Answered questions by effective strategy.",
		}, []string{"strategy"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end answer latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		chunksReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_retrieved_chunks",
			Help:      "Chunks returned per similarity search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration, m.httpInFlight,
		m.ingestTotal, m.ingestDuration, m.ingestInFlight,
		m.queryTotal, m.queryDuration, m.chunksReturned,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, path string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) HTTPInFlight() prometheus.Gauge { return m.httpInFlight }

func (m *Metrics) IngestStarted() { m.ingestInFlight.Inc() }

func (m *Metrics) IngestFinished(outcome string, elapsed time.Duration) {
	m.ingestInFlight.Dec()
	m.ingestTotal.WithLabelValues(outcome).Inc()
	m.ingestDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveQuery(strategy string, elapsed time.Duration) {
	m.queryTotal.WithLabelValues(strategy).Inc()
	m.queryDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRetrieved(n int) {
	m.chunksReturned.Observe(float64(n))
}
