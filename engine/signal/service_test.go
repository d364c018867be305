package signal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
	"github.com/paperpulse/paperpulse/engine/sources"
	"github.com/paperpulse/paperpulse/pkg/metrics"
)

type fakeHN struct {
	stories []sources.HNStory
	err     error
	calls   int
}

func (f *fakeHN) Fetch(_ context.Context, _ int) ([]sources.HNStory, error) {
	f.calls++
	return f.stories, f.err
}

type fakeNews struct {
	articles []sources.NewsArticle
	err      error
	calls    int
}

func (f *fakeNews) Fetch(_ context.Context, _ []string, _ int) ([]sources.NewsArticle, error) {
	f.calls++
	return f.articles, f.err
}

type fakeScorer struct {
	scores map[string]float64
}

func (f *fakeScorer) ScoreRelevance(_ context.Context, s *domain.Signal) float64 {
	if score, ok := f.scores[s.Title]; ok {
		return score
	}
	return 0.5
}

func newTestService(t *testing.T, adapters Adapters, scorer Scorer) *Service {
	t.Helper()
	cache := NewCache(filepath.Join(t.TempDir(), "signals-cache.json"))
	filter := NewFilter(DefaultFilterConfig, testLogger())
	return NewService(adapters, filter, cache, scorer, metrics.NewRegistry(), testLogger())
}

func goodStory(id, title string, points int) sources.HNStory {
	return sources.HNStory{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now().Add(-time.Hour),
		Points:    points,
	}
}

func TestFetchFailingSourceIsIsolated(t *testing.T) {
	hn := &fakeHN{stories: []sources.HNStory{goodStory("1", "Great paper on diffusion models", 100)}}
	news := &fakeNews{err: errors.New("rate limit exceeded (status 429)")}

	svc := newTestService(t, Adapters{HackerNews: hn, News: news}, nil)
	signals := svc.Fetch(context.Background(), 24)

	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1 (news failure must not abort)", len(signals))
	}
	if signals[0].Type != domain.SourceHackerNews {
		t.Errorf("type = %s", signals[0].Type)
	}
}

func TestFetchAppliesHardFilters(t *testing.T) {
	hn := &fakeHN{stories: []sources.HNStory{
		goodStory("1", "A long enough valid title here", 10),
		{ID: "2", Title: "short", CreatedAt: time.Now()}, // title under 10 chars
		{ID: "3", Title: "An old story about neural networks", CreatedAt: time.Now().Add(-400 * time.Hour), Points: 500},
	}}

	svc := newTestService(t, Adapters{HackerNews: hn}, nil)
	signals := svc.Fetch(context.Background(), 24)

	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].ID != domain.SignalID(domain.SourceHackerNews, "1") {
		t.Error("wrong signal survived filtering")
	}
}

func TestProcessScoresBlendsAndSorts(t *testing.T) {
	hn := &fakeHN{stories: []sources.HNStory{
		goodStory("low", "Mildly interesting framework release", 15),     // engagement 0.1
		goodStory("high", "Breakthrough result in computer vision", 150), // engagement 1.0
	}}
	scorer := &fakeScorer{scores: map[string]float64{
		"Mildly interesting framework release":   0.2,
		"Breakthrough result in computer vision": 0.9,
	}}

	svc := newTestService(t, Adapters{HackerNews: hn}, scorer)
	signals := svc.Fetch(context.Background(), 24)
	processed := svc.Process(context.Background(), signals)

	if len(processed) != 2 {
		t.Fatalf("got %d processed, want 2", len(processed))
	}
	if processed[0].Title != "Breakthrough result in computer vision" {
		t.Error("expected highest blended score first")
	}
	want := 0.3*1.0 + 0.7*0.9
	if diff := processed[0].NormalizedScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("blended score = %v, want %v", processed[0].NormalizedScore, want)
	}
}

func TestProcessWithoutScorerUsesNeutral(t *testing.T) {
	hn := &fakeHN{stories: []sources.HNStory{goodStory("1", "Something worth discussing today", 75)}}
	svc := newTestService(t, Adapters{HackerNews: hn}, nil)

	processed := svc.Process(context.Background(), svc.Fetch(context.Background(), 24))
	if len(processed) != 1 {
		t.Fatalf("got %d processed, want 1", len(processed))
	}
	if processed[0].RelevanceScore != 0.5 {
		t.Errorf("relevance = %v, want neutral 0.5", processed[0].RelevanceScore)
	}
}

func TestFetchMinimalPopulatesAndServesCache(t *testing.T) {
	hn := &fakeHN{stories: []sources.HNStory{goodStory("1", "Cached story about transformers", 30)}}
	news := &fakeNews{articles: []sources.NewsArticle{{
		Title:       "AI lab announces new model",
		Description: strings.Repeat("d", 120),
		URL:         "https://example.com/a",
		PublishedAt: time.Now().Format(time.RFC3339),
	}}}

	svc := newTestService(t, Adapters{HackerNews: hn, News: news}, nil)

	first, err := svc.FetchMinimal(context.Background(), 72)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("got %d signals, want 2", len(first))
	}

	// Second call must serve the cache without touching upstream.
	second, err := svc.FetchMinimal(context.Background(), 72)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 2 {
		t.Fatalf("cached fetch returned %d signals, want 2", len(second))
	}
	if hn.calls != 1 || news.calls != 1 {
		t.Errorf("upstream called again: hn=%d news=%d", hn.calls, news.calls)
	}
}

func TestFetchMinimalBackfillsNewsOnce(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "signals-cache.json")
	cache := NewCache(cachePath)

	// Seed the cache with only a Hacker News signal.
	seeded := []domain.Signal{{
		ID:            domain.SignalID(domain.SourceHackerNews, "1"),
		Type:          domain.SourceHackerNews,
		Title:         "Seeded hackernews entry",
		Content:       strings.Repeat("c", 60),
		PublishedDate: time.Now().Format(time.RFC3339),
	}}
	if err := cache.Save(seeded); err != nil {
		t.Fatal(err)
	}

	news := &fakeNews{articles: []sources.NewsArticle{{
		Title:       "Backfilled article about AI",
		Description: strings.Repeat("d", 120),
		URL:         "https://example.com/b",
		PublishedAt: time.Now().Format(time.RFC3339),
	}}}

	filter := NewFilter(DefaultFilterConfig, testLogger())
	svc := NewService(Adapters{News: news}, filter, cache, nil, metrics.NewRegistry(), testLogger())

	merged, err := svc.FetchMinimal(context.Background(), 72)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 2 {
		t.Fatalf("got %d signals after backfill, want 2", len(merged))
	}

	// The backfill is one-time: the merged cache now has news entries.
	again, err := svc.FetchMinimal(context.Background(), 72)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 2 || news.calls != 1 {
		t.Errorf("backfill ran twice: signals=%d news calls=%d", len(again), news.calls)
	}
}
