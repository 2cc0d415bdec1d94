package observability

import (
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsServeHTTP(t *testing.T) {
	m := NewMetrics(testLogger)
	m.SpawnsTotal.Add(3)
	m.Blocked.Add(1)
	m.ActiveWorkers.Store(2)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"rivalscope_worker_spawns_total 3",
		"rivalscope_blocked_total 1",
		"# TYPE rivalscope_active_workers gauge",
		"rivalscope_active_workers 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.Timeouts.Add(2)
	m.CandidatesSkipped.Add(1)

	snap := m.Snapshot()
	if snap["timeouts"] != 2 || snap["candidates_skipped"] != 1 {
		t.Errorf("unexpected snapshot %v", snap)
	}
	if snap["spawns_total"] != 0 {
		t.Errorf("expected zero spawns, got %d", snap["spawns_total"])
	}
}
