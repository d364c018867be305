// Package store holds the in-memory paper and signal collections served by
// the API. Refreshes replace whole collections; there is no update-in-place.
package store

import (
	"sync"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
)

// Store is safe for concurrent use. Collections are copied on write and read
// so callers never share backing arrays with the store.
type Store struct {
	mu sync.RWMutex

	papers          []domain.Paper
	papersByID      map[string]int
	lastPaperFetch  time.Time
	signals         []domain.Signal
	signalsByID     map[string]int
	lastSignalFetch time.Time
}

func New() *Store {
	return &Store{
		papersByID:  make(map[string]int),
		signalsByID: make(map[string]int),
	}
}

// ReplacePapers swaps the paper collection and stamps the fetch time.
func (s *Store) ReplacePapers(papers []domain.Paper, fetchedAt time.Time) {
	byID := make(map[string]int, len(papers))
	copied := make([]domain.Paper, len(papers))
	copy(copied, papers)
	for i, p := range copied {
		byID[p.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.papers = copied
	s.papersByID = byID
	s.lastPaperFetch = fetchedAt
}

// Papers returns a copy of the paper collection and the last fetch time.
func (s *Store) Papers() ([]domain.Paper, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Paper, len(s.papers))
	copy(out, s.papers)
	return out, s.lastPaperFetch
}

// PaperByID looks up one paper, returning domain.ErrNotFound for unknown ids.
func (s *Store) PaperByID(id string) (domain.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.papersByID[id]
	if !ok {
		return domain.Paper{}, domain.ErrNotFound
	}
	return s.papers[i], nil
}

// PaperCount returns the number of cached papers.
func (s *Store) PaperCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.papers)
}

// LastPaperFetch returns when papers were last replaced; zero if never.
func (s *Store) LastPaperFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPaperFetch
}

// ReplaceSignals swaps the signal collection and stamps the fetch time.
func (s *Store) ReplaceSignals(signals []domain.Signal, fetchedAt time.Time) {
	byID := make(map[string]int, len(signals))
	copied := make([]domain.Signal, len(signals))
	copy(copied, signals)
	for i, sig := range copied {
		byID[sig.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = copied
	s.signalsByID = byID
	s.lastSignalFetch = fetchedAt
}

// MergeSignals adds signals produced elsewhere, replacing entries with the
// same id and keeping everything else.
func (s *Store) MergeSignals(incoming []domain.Signal, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sig := range incoming {
		if i, ok := s.signalsByID[sig.ID]; ok {
			s.signals[i] = sig
			continue
		}
		s.signalsByID[sig.ID] = len(s.signals)
		s.signals = append(s.signals, sig)
	}
	s.lastSignalFetch = fetchedAt
}

// Signals returns a copy of the signal collection and the last fetch time.
func (s *Store) Signals() ([]domain.Signal, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Signal, len(s.signals))
	copy(out, s.signals)
	return out, s.lastSignalFetch
}

// SignalByID looks up one signal, returning domain.ErrNotFound for unknown ids.
func (s *Store) SignalByID(id string) (domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.signalsByID[id]
	if !ok {
		return domain.Signal{}, domain.ErrNotFound
	}
	return s.signals[i], nil
}

// SignalCount returns the number of cached signals.
func (s *Store) SignalCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signals)
}

// LastSignalFetch returns when signals were last replaced; zero if never.
func (s *Store) LastSignalFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSignalFetch
}
