package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

const hnSearchURL = "https://hn.algolia.com/api/v1/search"

// HNStory is one Hacker News story from the Algolia search API, enriched
// with a fallback discussion URL and whichever text field was populated.
type HNStory struct {
	ID          string
	Title       string
	URL         string
	Author      string
	CreatedAt   time.Time
	Points      int
	NumComments int
	StoryText   string
}

// HackerNews fetches recent stories from the Algolia HN search API.
// It needs no credentials.
type HackerNews struct {
	client *Client
	log    *slog.Logger
}

func NewHackerNews(client *Client, log *slog.Logger) *HackerNews {
	return &HackerNews{client: client, log: log}
}

type hnSearchResponse struct {
	Hits []struct {
		ObjectID    string `json:"objectID"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		Author      string `json:"author"`
		CreatedAtI  int64  `json:"created_at_i"`
		Points      int    `json:"points"`
		NumComments int    `json:"num_comments"`
		StoryText   string `json:"story_text"`
		CommentText string `json:"comment_text"`
	} `json:"hits"`
}

// Fetch returns recent stories created within the last hoursBack hours.
// No keyword filtering happens here; downstream filters decide relevance.
func (h *HackerNews) Fetch(ctx context.Context, hoursBack int) ([]HNStory, error) {
	since := time.Now().Add(-time.Duration(hoursBack) * time.Hour).Unix()

	params := url.Values{}
	params.Set("query", "")
	params.Set("tags", "story")
	params.Set("numericFilters", fmt.Sprintf("created_at_i>%d", since))
	params.Set("hitsPerPage", "50")

	var resp hnSearchResponse
	if err := h.client.GetJSON(ctx, hnSearchURL, params, nil, &resp); err != nil {
		return nil, fmt.Errorf("hackernews: %w", err)
	}

	stories := make([]HNStory, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		storyURL := hit.URL
		if storyURL == "" {
			storyURL = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}
		text := hit.StoryText
		if text == "" {
			text = hit.CommentText
		}
		stories = append(stories, HNStory{
			ID:          hit.ObjectID,
			Title:       hit.Title,
			URL:         storyURL,
			Author:      hit.Author,
			CreatedAt:   time.Unix(hit.CreatedAtI, 0).UTC(),
			Points:      hit.Points,
			NumComments: hit.NumComments,
			StoryText:   text,
		})
	}

	h.log.Info("fetched hackernews stories", "count", len(stories), "hours_back", hoursBack)
	return stories, nil
}
