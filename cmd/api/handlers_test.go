package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
	"github.com/paperpulse/paperpulse/engine/signal"
	"github.com/paperpulse/paperpulse/engine/store"
	"github.com/paperpulse/paperpulse/pkg/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestAPI(t *testing.T) (*api, *http.ServeMux) {
	t.Helper()
	a := &api{
		store:   store.New(),
		refresh: func(context.Context) error { return nil },
		log:     discardLogger(),
	}
	mux := http.NewServeMux()
	a.routes(mux)
	return a, mux
}

func get(t *testing.T, mux *http.ServeMux, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s: %v", path, err)
		}
	}
	return rec
}

func TestEnvOr(t *testing.T) {
	t.Setenv("PAPERPULSE_TEST_VALUE", "from-env")
	if got := envOr("PAPERPULSE_TEST_VALUE", "fallback"); got != "from-env" {
		t.Errorf("set var = %q", got)
	}
	if got := envOr("PAPERPULSE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("unset var = %q", got)
	}
}

func TestHealth(t *testing.T) {
	_, mux := newTestAPI(t)
	var body map[string]string
	rec := get(t, mux, "/health", &body)
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", rec.Code, body)
	}
	if body["timestamp"] == "" {
		t.Error("health should carry a timestamp")
	}
}

func TestPapersTodayColdStartRefreshes(t *testing.T) {
	a, mux := newTestAPI(t)
	refreshed := 0
	a.refresh = func(context.Context) error {
		refreshed++
		a.store.ReplacePapers([]domain.Paper{{ID: "2401.00001", Title: "Fresh"}}, time.Now())
		return nil
	}

	var body PapersResponse
	rec := get(t, mux, "/api/papers/today", &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if refreshed != 1 {
		t.Errorf("refresh called %d times, want 1", refreshed)
	}
	if body.Count != 1 || body.Papers[0].ID != "2401.00001" {
		t.Errorf("body = %+v", body)
	}

	// Warm store skips the synchronous refresh.
	get(t, mux, "/api/papers/today", &body)
	if refreshed != 1 {
		t.Errorf("warm request triggered refresh, calls = %d", refreshed)
	}
}

func TestPapersTodayRefreshFailure(t *testing.T) {
	a, mux := newTestAPI(t)
	a.refresh = func(context.Context) error { return errors.New("arxiv down") }

	rec := get(t, mux, "/api/papers/today", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestPapersRefreshEndpoint(t *testing.T) {
	a, mux := newTestAPI(t)
	a.refresh = func(context.Context) error {
		a.store.ReplacePapers([]domain.Paper{{ID: "p1"}, {ID: "p2"}}, time.Now())
		return nil
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/papers/refresh", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body PapersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d", body.Count)
	}
}

func TestPaperByID(t *testing.T) {
	a, mux := newTestAPI(t)
	a.store.ReplacePapers([]domain.Paper{{ID: "2401.12345", Title: "Known"}}, time.Now())

	var paper domain.Paper
	rec := get(t, mux, "/api/papers/2401.12345", &paper)
	if rec.Code != http.StatusOK || paper.Title != "Known" {
		t.Errorf("got %d %+v", rec.Code, paper)
	}

	rec = get(t, mux, "/api/papers/9999.00000", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var errBody map[string]string
	json.Unmarshal(rec.Body.Bytes(), &errBody)
	if errBody["error"] != "Paper not found" {
		t.Errorf("error = %q", errBody["error"])
	}
}

func TestPapersStatus(t *testing.T) {
	a, mux := newTestAPI(t)

	var body PaperStatusResponse
	get(t, mux, "/api/papers/status", &body)
	if body.CachedPapers != 0 || body.LastFetchTime != nil {
		t.Errorf("empty status = %+v", body)
	}

	a.store.ReplacePapers([]domain.Paper{{ID: "p1"}}, time.Now())
	get(t, mux, "/api/papers/status", &body)
	if body.CachedPapers != 1 || body.LastFetchTime == nil {
		t.Errorf("status = %+v", body)
	}
}

func TestSignalsTodayProduction(t *testing.T) {
	a, mux := newTestAPI(t)
	a.store.ReplaceSignals([]domain.Signal{
		{ID: "s1", Title: "Top", NormalizedScore: 0.9},
	}, time.Now())

	var body SignalsResponse
	rec := get(t, mux, "/api/signals/today", &body)
	if rec.Code != http.StatusOK || body.Count != 1 {
		t.Errorf("got %d %+v", rec.Code, body)
	}
}

func TestSignalsTodayDevelopmentServesCache(t *testing.T) {
	a, mux := newTestAPI(t)
	a.development = true

	cache := signal.NewCache(filepath.Join(t.TempDir(), "signals.json"))
	if err := cache.Save([]domain.Signal{
		{ID: "hn-1", Type: domain.SourceHackerNews, Title: "Cached story"},
		{ID: "news-1", Type: domain.SourceNews, Title: "Cached article"},
	}); err != nil {
		t.Fatal(err)
	}
	a.signals = signal.NewService(signal.Adapters{}, signal.NewFilter(signal.DefaultFilterConfig, discardLogger()), cache, nil, metrics.NewRegistry(), discardLogger())

	var body SignalsResponse
	rec := get(t, mux, "/api/signals/today", &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want cached pair", body.Count)
	}
	if a.store.SignalCount() != 2 {
		t.Error("development fetch should populate the store")
	}
}

func TestSignalByID(t *testing.T) {
	a, mux := newTestAPI(t)
	a.store.ReplaceSignals([]domain.Signal{{ID: "hn-42", Title: "Known"}}, time.Now())

	var body map[string]domain.Signal
	rec := get(t, mux, "/api/signals/hn-42", &body)
	if rec.Code != http.StatusOK || body["signal"].Title != "Known" {
		t.Errorf("got %d %+v", rec.Code, body)
	}

	rec = get(t, mux, "/api/signals/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var errBody map[string]string
	json.Unmarshal(rec.Body.Bytes(), &errBody)
	if errBody["error"] != "Signal not found" {
		t.Errorf("error = %q", errBody["error"])
	}
}

func TestSignalsStatus(t *testing.T) {
	_, mux := newTestAPI(t)

	var body SignalStatusResponse
	get(t, mux, "/api/signals/status", &body)
	if body.CachedSignals != 0 || body.LastFetchTime != nil {
		t.Errorf("empty status = %+v", body)
	}
}
