// Package signal implements the aggregation pipeline: conversion of raw
// platform records into unified signals, engagement normalization, hard and
// soft filtering, caching, and the orchestrating service.
package signal

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
)

// Keywords is the AI/ML vocabulary used for in-adapter relevance filtering.
var Keywords = []string{
	"ai",
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"neural",
	"neural network",
	"llm",
	"large language model",
	"gpt",
	"transformer",
	"nlp",
	"natural language processing",
	"computer vision",
	"model",
	"algorithm",
	"tensorflow",
	"pytorch",
	"keras",
	"attention",
	"bert",
	"diffusion",
	"generative",
	"reinforcement learning",
	"classification",
	"clustering",
	"regression",
	"embedding",
	"optimization",
	"gradient",
	"backprop",
	"convolutional",
	"recurrent",
	"fine-tuning",
	"pretraining",
	"inference",
}

// QueryKeywords is the narrower set used for upstream API queries, where
// broad terms return too much noise.
var QueryKeywords = []string{
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"AI research",
}

// ContainsKeywords reports whether text contains any of the keywords
// (case-insensitive substring match).
func ContainsKeywords(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// CountKeywordMatches returns how many of the keywords appear in text.
func CountKeywordMatches(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

// FilterConfig holds the signal quality thresholds.
type FilterConfig struct {
	MinEngagement float64
	MinRelevance  float64
	MaxAgeHours   int
	BlockPatterns []string
}

// DefaultFilterConfig keeps thresholds relaxed so every source is represented;
// ranking, not exclusion, does the prioritization.
var DefaultFilterConfig = FilterConfig{
	MinEngagement: 0.0,
	MinRelevance:  0.0,
	MaxAgeHours:   168,
	BlockPatterns: []string{"sponsored", "advertisement"},
}

// Filter applies hard validity checks and soft inclusion thresholds.
type Filter struct {
	cfg FilterConfig
	log *slog.Logger
	now func() time.Time
}

func NewFilter(cfg FilterConfig, log *slog.Logger) *Filter {
	if cfg.MaxAgeHours <= 0 {
		cfg.MaxAgeHours = DefaultFilterConfig.MaxAgeHours
	}
	if cfg.BlockPatterns == nil {
		cfg.BlockPatterns = DefaultFilterConfig.BlockPatterns
	}
	return &Filter{cfg: cfg, log: log, now: time.Now}
}

// IsValid applies the hard filters: age, content length, blocked patterns,
// title length. Signals failing any check are dropped regardless of score.
func (f *Filter) IsValid(s *domain.Signal) bool {
	if age := s.Age(f.now()); age > time.Duration(f.cfg.MaxAgeHours)*time.Hour {
		f.log.Debug("filtered signal: too old", "type", s.Type, "title", truncate(s.Title, 40), "age_hours", int(age.Hours()))
		return false
	}

	if len(s.Content) < 50 {
		f.log.Debug("filtered signal: content too short", "type", s.Type, "title", truncate(s.Title, 40), "chars", len(s.Content))
		return false
	}

	combined := strings.ToLower(s.Title + " " + s.Content)
	for _, pattern := range f.cfg.BlockPatterns {
		if strings.Contains(combined, strings.ToLower(pattern)) {
			f.log.Debug("filtered signal: blocked pattern", "type", s.Type, "title", truncate(s.Title, 40), "pattern", pattern)
			return false
		}
	}

	if len(s.Title) < 10 {
		f.log.Debug("filtered signal: title too short", "type", s.Type, "chars", len(s.Title))
		return false
	}

	return true
}

// ShouldInclude applies the soft filters on top of hard validity. A relevance
// score of exactly zero means "not yet scored" and skips the relevance
// threshold.
func (f *Filter) ShouldInclude(s *domain.Signal) bool {
	if !f.IsValid(s) {
		return false
	}

	if s.Engagement.Normalized < f.cfg.MinEngagement {
		f.log.Debug("filtered signal: low engagement", "id", s.ID, "engagement", s.Engagement.Normalized)
		return false
	}

	if s.RelevanceScore != 0 && s.RelevanceScore < f.cfg.MinRelevance {
		f.log.Debug("filtered signal: low relevance", "id", s.ID, "relevance", s.RelevanceScore)
		return false
	}

	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// scoreFunc normalizes a platform metrics bag into [0,1].
type scoreFunc func(raw domain.EngagementRaw) float64

// scorers dispatches engagement normalization by source type.
var scorers = map[domain.SourceType]scoreFunc{
	domain.SourceTwitter:       scoreTwitter,
	domain.SourceNews:          scoreNews,
	domain.SourceYouTube:       scoreYouTube,
	domain.SourceHackerNews:    scoreHackerNews,
	domain.SourceStackOverflow: scoreStackOverflow,
	domain.SourceReddit:        scoreReddit,
}

// NormalizeEngagement maps a raw metrics bag into [0,1] using the scoring
// function for the source type. Unknown types score a neutral 0.5.
func NormalizeEngagement(typ domain.SourceType, raw domain.EngagementRaw) float64 {
	if score, ok := scorers[typ]; ok {
		return score(raw)
	}
	return 0.5
}

func scoreTwitter(raw domain.EngagementRaw) float64 {
	likes := raw["likes"]
	retweets := raw["retweets"] * 2
	replies := raw["replies"]
	followers := raw["followers"]
	if followers <= 0 {
		followers = 1
	}
	score := (likes + retweets + replies) / (1 + math.Log10(followers))
	return math.Min(1, score/1000)
}

// News has no reader metrics; score content-quality heuristics folded into
// the raw bag at conversion time.
func scoreNews(raw domain.EngagementRaw) float64 {
	score := 0.5
	if raw["has_image"] > 0 {
		score += 0.15
	}
	if raw["description_chars"] > 100 {
		score += 0.15
	}
	if raw["content_chars"] > 500 {
		score += 0.1
	}
	if raw["reputable_source"] > 0 {
		score += 0.2
	}
	return math.Min(1, score)
}

func scoreYouTube(raw domain.EngagementRaw) float64 {
	views := math.Log10(raw["views"] + 1)
	likes := math.Log10(raw["likes"] + 1)
	return math.Min(1, (views+likes)/20)
}

// 100+ point stories count as high engagement.
func scoreHackerNews(raw domain.EngagementRaw) float64 {
	points := raw["points"]
	comments := raw["num_comments"] * 0.5
	return math.Min(1, (points+comments)/150)
}

func scoreStackOverflow(raw domain.EngagementRaw) float64 {
	score := raw["score"]
	answers := raw["answer_count"] * 2
	views := math.Log10(raw["view_count"]+1) / 5
	return math.Min(1, (score+answers+views)/20)
}

func scoreReddit(raw domain.EngagementRaw) float64 {
	score := raw["score"] + raw["num_comments"]*0.5
	return math.Min(1, score/500)
}

// reputableOutlets is the heuristic list of respected tech publications.
var reputableOutlets = []string{
	"techcrunch",
	"venturebeat",
	"mit technology review",
	"wired",
	"the verge",
	"ars technica",
}

// IsReputableOutlet reports whether the outlet name matches a known
// publication (case-insensitive substring).
func IsReputableOutlet(name string) bool {
	lower := strings.ToLower(name)
	for _, outlet := range reputableOutlets {
		if strings.Contains(lower, outlet) {
			return true
		}
	}
	return false
}
