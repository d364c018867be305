package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
	"github.com/paperpulse/paperpulse/engine/signal"
	"github.com/paperpulse/paperpulse/engine/store"
)

// api bundles the dependencies of the HTTP handlers.
type api struct {
	store       *store.Store
	signals     *signal.Service
	refresh     func(ctx context.Context) error
	development bool
	log         *slog.Logger
}

// PapersResponse is the JSON response for the paper listing endpoints.
type PapersResponse struct {
	Papers      []domain.Paper `json:"papers"`
	Count       int            `json:"count"`
	LastUpdated string         `json:"lastUpdated"`
}

// SignalsResponse is the JSON response for GET /api/signals/today.
type SignalsResponse struct {
	Signals     []domain.Signal `json:"signals"`
	Count       int             `json:"count"`
	LastUpdated string          `json:"lastUpdated"`
}

// PaperStatusResponse is the JSON response for GET /api/papers/status.
type PaperStatusResponse struct {
	CachedPapers  int     `json:"cachedPapers"`
	LastFetchTime *string `json:"lastFetchTime"`
}

// SignalStatusResponse is the JSON response for GET /api/signals/status.
type SignalStatusResponse struct {
	CachedSignals int     `json:"cachedSignals"`
	LastFetchTime *string `json:"lastFetchTime"`
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/papers/today", a.handlePapersToday)
	mux.HandleFunc("POST /api/papers/refresh", a.handlePapersRefresh)
	mux.HandleFunc("GET /api/papers/status", a.handlePapersStatus)
	mux.HandleFunc("GET /api/papers/{id}", a.handlePaperByID)
	mux.HandleFunc("GET /api/signals/today", a.handleSignalsToday)
	mux.HandleFunc("GET /api/signals/status", a.handleSignalsStatus)
	mux.HandleFunc("GET /api/signals/{id}", a.handleSignalByID)
}

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *api) handlePapersToday(w http.ResponseWriter, r *http.Request) {
	// First request after a cold start fetches synchronously so the
	// dashboard never sees an empty list when upstream is healthy.
	if a.store.PaperCount() == 0 && a.store.LastPaperFetch().IsZero() {
		if err := a.refresh(r.Context()); err != nil {
			a.log.Error("paper refresh failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch papers")
			return
		}
	}

	papers, lastFetch := a.store.Papers()
	writeJSON(w, http.StatusOK, PapersResponse{
		Papers:      papers,
		Count:       len(papers),
		LastUpdated: lastFetch.UTC().Format(time.RFC3339),
	})
}

func (a *api) handlePapersRefresh(w http.ResponseWriter, r *http.Request) {
	if err := a.refresh(r.Context()); err != nil {
		a.log.Error("paper refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to refresh papers")
		return
	}

	papers, lastFetch := a.store.Papers()
	writeJSON(w, http.StatusOK, PapersResponse{
		Papers:      papers,
		Count:       len(papers),
		LastUpdated: lastFetch.UTC().Format(time.RFC3339),
	})
}

func (a *api) handlePaperByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	paper, err := a.store.PaperByID(id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Paper not found")
		return
	}
	writeJSON(w, http.StatusOK, paper)
}

func (a *api) handlePapersStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PaperStatusResponse{
		CachedPapers:  a.store.PaperCount(),
		LastFetchTime: timePtr(a.store.LastPaperFetch()),
	})
}

func (a *api) handleSignalsToday(w http.ResponseWriter, r *http.Request) {
	if a.development {
		// Development serves the cheap cache-first path with a longer
		// lookback, skipping model scoring entirely.
		signals, err := a.signals.FetchMinimal(r.Context(), 72)
		if err != nil {
			a.log.Error("fetching signals failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch signals")
			return
		}
		now := time.Now().UTC()
		a.store.ReplaceSignals(signals, now)
		writeJSON(w, http.StatusOK, SignalsResponse{
			Signals:     signals,
			Count:       len(signals),
			LastUpdated: now.Format(time.RFC3339),
		})
		return
	}

	signals, lastFetch := a.store.Signals()
	writeJSON(w, http.StatusOK, SignalsResponse{
		Signals:     signals,
		Count:       len(signals),
		LastUpdated: lastFetch.UTC().Format(time.RFC3339),
	})
}

func (a *api) handleSignalByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sig, err := a.store.SignalByID(id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Signal not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Signal{"signal": sig})
}

func (a *api) handleSignalsStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SignalStatusResponse{
		CachedSignals: a.store.SignalCount(),
		LastFetchTime: timePtr(a.store.LastSignalFetch()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func timePtr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
