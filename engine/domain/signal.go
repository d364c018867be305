// Package domain defines the core entities shared by the aggregation
// pipeline: the unified external Signal and the arXiv Paper.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceType identifies the platform a signal came from.
type SourceType string

const (
	SourceTwitter       SourceType = "twitter"
	SourceNews          SourceType = "news"
	SourceYouTube       SourceType = "youtube"
	SourceHackerNews    SourceType = "hackernews"
	SourceStackOverflow SourceType = "stackoverflow"
	SourceReddit        SourceType = "reddit"
)

// ValidSources enumerates the accepted source types.
var ValidSources = map[SourceType]bool{
	SourceTwitter:       true,
	SourceNews:          true,
	SourceYouTube:       true,
	SourceHackerNews:    true,
	SourceStackOverflow: true,
	SourceReddit:        true,
}

// EngagementRaw is the platform-specific metrics bag. Non-numeric source
// fields relevant to scoring (image present, reputable outlet) are folded in
// as 0/1 flags at conversion time so scoring functions stay pure.
type EngagementRaw map[string]float64

// Engagement holds raw platform metrics plus the [0,1] normalized score.
type Engagement struct {
	Raw        EngagementRaw `json:"raw"`
	Normalized float64       `json:"normalized"`
}

// Signal is one piece of external discussion content in unified form.
type Signal struct {
	ID            string     `json:"id"`
	Type          SourceType `json:"type"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Author        string     `json:"author"`
	AuthorHandle  string     `json:"authorHandle,omitempty"`
	URL           string     `json:"url"`
	PublishedDate string     `json:"publishedDate"`
	Engagement    Engagement `json:"engagement"`
	// RelevanceScore is the LLM judgment in [0,1]. Zero means not yet
	// scored; 0.5 is the neutral fallback when the scorer is unavailable.
	RelevanceScore float64 `json:"relevanceScore"`
	// NormalizedScore is the blended final rank:
	// 0.3*Engagement.Normalized + 0.7*RelevanceScore.
	NormalizedScore float64  `json:"normalizedScore"`
	RelatedPapers   []string `json:"relatedPapers"`
	Tags            []string `json:"tags"`
	CreatedAt       string   `json:"createdAt"`
}

// SignalID derives the deterministic signal identifier from the source type
// and the source-native id (or URL). The full SHA-256 hex is used so ids from
// large result sets cannot collide by truncation.
func SignalID(typ SourceType, nativeID string) string {
	sum := sha256.Sum256([]byte(string(typ) + ":" + nativeID))
	return hex.EncodeToString(sum[:])
}

// Age returns how long ago the signal was published, or a zero duration when
// the published date cannot be parsed.
func (s *Signal) Age(now time.Time) time.Duration {
	t, err := time.Parse(time.RFC3339, s.PublishedDate)
	if err != nil {
		return 0
	}
	return now.Sub(t)
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// BlendScore combines normalized engagement and relevance into the final
// rank. Inputs are clamped so the result stays in [0,1] by construction.
func BlendScore(engagement, relevance float64) float64 {
	return 0.3*Clamp01(engagement) + 0.7*Clamp01(relevance)
}
