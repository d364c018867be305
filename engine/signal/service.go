package signal

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
	"github.com/paperpulse/paperpulse/engine/sources"
	"github.com/paperpulse/paperpulse/pkg/metrics"
)

// Fetcher interfaces are satisfied by the engine/sources adapters; tests
// substitute fakes.

type HNFetcher interface {
	Fetch(ctx context.Context, hoursBack int) ([]sources.HNStory, error)
}

type NewsFetcher interface {
	Fetch(ctx context.Context, keywords []string, hoursBack int) ([]sources.NewsArticle, error)
}

type RedditFetcher interface {
	Fetch(ctx context.Context, subreddits, keywords []string, hoursBack int) ([]sources.RedditPost, error)
}

type StackFetcher interface {
	Fetch(ctx context.Context, hoursBack int) ([]sources.StackQuestion, error)
}

type YouTubeFetcher interface {
	Fetch(ctx context.Context, query string, keywords []string, hoursBack int) ([]sources.YouTubeVideo, error)
}

type TwitterFetcher interface {
	Fetch(ctx context.Context, keywords []string, hoursBack int) ([]sources.Tweet, error)
}

// Scorer judges how relevant a signal is to current research, in [0,1].
// Implementations degrade to a neutral 0.5 rather than failing.
type Scorer interface {
	ScoreRelevance(ctx context.Context, s *domain.Signal) float64
}

// Adapters bundles the per-platform fetchers. Nil entries are skipped.
type Adapters struct {
	HackerNews HNFetcher
	News       NewsFetcher
	Reddit     RedditFetcher
	Stack      StackFetcher
	YouTube    YouTubeFetcher
	Twitter    TwitterFetcher
}

// Service orchestrates fetching, conversion, filtering, scoring, and ranking.
type Service struct {
	adapters Adapters
	filter   *Filter
	cache    *Cache
	scorer   Scorer
	log      *slog.Logger
	now      func() time.Time

	fetched  *metrics.Counter
	filtered *metrics.Counter
}

func NewService(adapters Adapters, filter *Filter, cache *Cache, scorer Scorer, reg *metrics.Registry, log *slog.Logger) *Service {
	return &Service{
		adapters: adapters,
		filter:   filter,
		cache:    cache,
		scorer:   scorer,
		log:      log,
		now:      time.Now,
		fetched:  reg.Counter("signals_fetched_total", "Signals fetched from all sources"),
		filtered: reg.Counter("signals_filtered_total", "Signals dropped by hard or soft filters"),
	}
}

// Fetch pulls from every configured source, converts to unified signals, and
// applies the hard filters. A failing source logs its error and contributes
// nothing; aggregation never aborts.
func (s *Service) Fetch(ctx context.Context, hoursBack int) []domain.Signal {
	var signals []domain.Signal
	s.log.Info("fetching external signals", "hours_back", hoursBack)

	if s.adapters.News != nil {
		articles, err := s.adapters.News.Fetch(ctx, QueryKeywords, hoursBack)
		if err != nil {
			s.log.Error("fetching news signals failed", "error", err)
		}
		for _, a := range articles {
			signals = s.keep(signals, FromNewsArticle(a, s.now()))
		}
	}

	if s.adapters.Twitter != nil {
		tweets, err := s.adapters.Twitter.Fetch(ctx, QueryKeywords, hoursBack)
		if err != nil {
			s.log.Error("fetching twitter signals failed", "error", err)
		}
		for _, t := range tweets {
			signals = s.keep(signals, FromTweet(t, s.now()))
		}
	}

	if s.adapters.HackerNews != nil {
		stories, err := s.adapters.HackerNews.Fetch(ctx, hoursBack)
		if err != nil {
			s.log.Error("fetching hackernews signals failed", "error", err)
		}
		for _, st := range stories {
			signals = s.keep(signals, FromHNStory(st, s.now()))
		}
	}

	if s.adapters.Stack != nil {
		questions, err := s.adapters.Stack.Fetch(ctx, hoursBack)
		if err != nil {
			s.log.Error("fetching stackoverflow signals failed", "error", err)
		}
		for _, q := range questions {
			signals = s.keep(signals, FromStackQuestion(q, s.now()))
		}
	}

	if s.adapters.Reddit != nil {
		posts, err := s.adapters.Reddit.Fetch(ctx, sources.DefaultSubreddits, Keywords, hoursBack)
		if err != nil {
			s.log.Error("fetching reddit signals failed", "error", err)
		}
		for _, p := range posts {
			signals = s.keep(signals, FromRedditPost(p, s.now()))
		}
	}

	if s.adapters.YouTube != nil {
		videos, err := s.adapters.YouTube.Fetch(ctx, sources.DefaultYouTubeQuery, Keywords, hoursBack)
		if err != nil {
			s.log.Error("fetching youtube signals failed", "error", err)
		}
		for _, v := range videos {
			signals = s.keep(signals, FromYouTubeVideo(v, s.now()))
		}
	}

	s.log.Info("fetched signals", "count", len(signals))
	return signals
}

func (s *Service) keep(acc []domain.Signal, sig domain.Signal) []domain.Signal {
	s.fetched.Inc()
	if !s.filter.IsValid(&sig) {
		s.filtered.Inc()
		return acc
	}
	return append(acc, sig)
}

// Process scores each signal's relevance, blends the final rank, applies the
// soft filters, and sorts by rank descending.
func (s *Service) Process(ctx context.Context, signals []domain.Signal) []domain.Signal {
	s.log.Info("processing signals", "count", len(signals))

	processed := make([]domain.Signal, 0, len(signals))
	for _, sig := range signals {
		if s.scorer != nil {
			sig.RelevanceScore = s.scorer.ScoreRelevance(ctx, &sig)
		} else {
			sig.RelevanceScore = 0.5
		}

		sig.NormalizedScore = domain.BlendScore(sig.Engagement.Normalized, sig.RelevanceScore)

		if !s.filter.ShouldInclude(&sig) {
			s.filtered.Inc()
			continue
		}
		processed = append(processed, sig)
	}

	sort.SliceStable(processed, func(i, j int) bool {
		return processed[i].NormalizedScore > processed[j].NormalizedScore
	})

	s.log.Info("filtered to high-quality signals", "count", len(processed))
	return processed
}

// FetchMinimal is the cheap development path: serve the cache when present,
// backfilling news articles once if the cache predates the news source;
// otherwise fetch only Hacker News and news, skip scoring, and persist.
func (s *Service) FetchMinimal(ctx context.Context, hoursBack int) ([]domain.Signal, error) {
	cached, err := s.cache.Load()
	if err != nil {
		s.log.Warn("loading signal cache failed", "error", err)
	}

	if len(cached) > 0 {
		hasNews := false
		for _, sig := range cached {
			if sig.Type == domain.SourceNews {
				hasNews = true
				break
			}
		}
		if !hasNews && s.adapters.News != nil {
			articles, err := s.adapters.News.Fetch(ctx, QueryKeywords, hoursBack)
			if err != nil {
				s.log.Error("backfilling news signals failed", "error", err)
				return cached, nil
			}
			merged := cached
			for _, a := range articles {
				merged = append(merged, FromNewsArticle(a, s.now()))
			}
			if err := s.cache.Save(merged); err != nil {
				s.log.Warn("saving signal cache failed", "error", err)
			}
			return merged, nil
		}
		s.log.Info("serving signals from cache", "count", len(cached))
		return cached, nil
	}

	var signals []domain.Signal
	s.log.Info("fetching minimal signal set", "hours_back", hoursBack)

	if s.adapters.HackerNews != nil {
		stories, err := s.adapters.HackerNews.Fetch(ctx, hoursBack)
		if err != nil {
			s.log.Error("fetching hackernews signals failed", "error", err)
		}
		for _, st := range stories {
			s.fetched.Inc()
			signals = append(signals, FromHNStory(st, s.now()))
		}
	}

	if s.adapters.News != nil {
		articles, err := s.adapters.News.Fetch(ctx, QueryKeywords, hoursBack)
		if err != nil {
			s.log.Error("fetching news signals failed", "error", err)
		}
		for _, a := range articles {
			s.fetched.Inc()
			signals = append(signals, FromNewsArticle(a, s.now()))
		}
	}

	if err := s.cache.Save(signals); err != nil {
		s.log.Warn("saving signal cache failed", "error", err)
	}
	return signals, nil
}
