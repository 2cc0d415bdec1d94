package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters for worker spawns and the engine.
type Metrics struct {
	// Worker process metrics
	SpawnsTotal     atomic.Int64
	SpawnsFailed    atomic.Int64
	SpawnsRetried   atomic.Int64
	Timeouts        atomic.Int64
	NoOutput        atomic.Int64
	MalformedOutput atomic.Int64
	Blocked         atomic.Int64
	ActiveWorkers   atomic.Int32

	// Extraction metrics
	ProductsFetched atomic.Int64
	ProductsFailed  atomic.Int64
	SearchPages     atomic.Int64
	SearchEntries   atomic.Int64
	Screenshots     atomic.Int64
	BytesReceived   atomic.Int64

	// Engine metrics
	CandidatesSkipped atomic.Int64
	KeywordsRanked    atomic.Int64
	ReviewsAnalyzed   atomic.Int64

	// Proxy metrics
	ProxyRotations atomic.Int64
	ProxyErrors    atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metricLine struct {
	name  string
	help  string
	kind  string
	value int64
}

func (m *Metrics) lines() []metricLine {
	return []metricLine{
		{"rivalscope_worker_spawns_total", "Total worker processes spawned", "counter", m.SpawnsTotal.Load()},
		{"rivalscope_worker_spawns_failed_total", "Total worker invocations that failed", "counter", m.SpawnsFailed.Load()},
		{"rivalscope_worker_spawns_retried_total", "Total worker invocations retried", "counter", m.SpawnsRetried.Load()},
		{"rivalscope_worker_timeouts_total", "Total workers killed at the deadline", "counter", m.Timeouts.Load()},
		{"rivalscope_worker_no_output_total", "Total workers that wrote nothing", "counter", m.NoOutput.Load()},
		{"rivalscope_worker_malformed_output_total", "Total workers that wrote invalid JSON", "counter", m.MalformedOutput.Load()},
		{"rivalscope_blocked_total", "Total fetches rejected by a bot challenge", "counter", m.Blocked.Load()},
		{"rivalscope_active_workers", "Currently running worker processes", "gauge", int64(m.ActiveWorkers.Load())},
		{"rivalscope_products_fetched_total", "Total products extracted", "counter", m.ProductsFetched.Load()},
		{"rivalscope_products_failed_total", "Total product lookups that failed", "counter", m.ProductsFailed.Load()},
		{"rivalscope_search_pages_total", "Total search pages fetched", "counter", m.SearchPages.Load()},
		{"rivalscope_search_entries_total", "Total search entries extracted", "counter", m.SearchEntries.Load()},
		{"rivalscope_screenshots_total", "Total screenshots captured", "counter", m.Screenshots.Load()},
		{"rivalscope_bytes_received_total", "Total bytes read from worker stdout", "counter", m.BytesReceived.Load()},
		{"rivalscope_candidates_skipped_total", "Total competitor candidates skipped", "counter", m.CandidatesSkipped.Load()},
		{"rivalscope_keywords_ranked_total", "Total keywords ranked", "counter", m.KeywordsRanked.Load()},
		{"rivalscope_reviews_analyzed_total", "Total reviews analyzed after dedup", "counter", m.ReviewsAnalyzed.Load()},
		{"rivalscope_proxy_rotations_total", "Total proxy rotations", "counter", m.ProxyRotations.Load()},
		{"rivalscope_proxy_errors_total", "Total proxy errors", "counter", m.ProxyErrors.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, metric := range m.lines() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server. It stops when ctx is done.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"spawns_total":       m.SpawnsTotal.Load(),
		"spawns_failed":      m.SpawnsFailed.Load(),
		"spawns_retried":     m.SpawnsRetried.Load(),
		"timeouts":           m.Timeouts.Load(),
		"no_output":          m.NoOutput.Load(),
		"malformed_output":   m.MalformedOutput.Load(),
		"blocked":            m.Blocked.Load(),
		"active_workers":     int64(m.ActiveWorkers.Load()),
		"products_fetched":   m.ProductsFetched.Load(),
		"products_failed":    m.ProductsFailed.Load(),
		"search_pages":       m.SearchPages.Load(),
		"search_entries":     m.SearchEntries.Load(),
		"screenshots":        m.Screenshots.Load(),
		"bytes_received":     m.BytesReceived.Load(),
		"candidates_skipped": m.CandidatesSkipped.Load(),
		"keywords_ranked":    m.KeywordsRanked.Load(),
		"reviews_analyzed":   m.ReviewsAnalyzed.Load(),
		"proxy_rotations":    m.ProxyRotations.Load(),
		"proxy_errors":       m.ProxyErrors.Load(),
	}
}

// LogSummary writes the non-zero counters at info level.
func (m *Metrics) LogSummary() {
	args := make([]any, 0, 32)
	for _, metric := range m.lines() {
		if metric.value != 0 {
			args = append(args, metric.name, metric.value)
		}
	}
	if len(args) > 0 {
		m.logger.Info("run summary", args...)
	}
}
