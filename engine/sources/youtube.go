package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

const youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

// DefaultYouTubeQuery is the search query used for video signals.
const DefaultYouTubeQuery = "machine learning tutorial"

// YouTubeVideo is one result from the Data API v3 search endpoint. Search
// results carry no view counts, so engagement is scored neutrally downstream.
type YouTubeVideo struct {
	ID           string
	Title        string
	Description  string
	URL          string
	Thumbnail    string
	PublishedAt  string
	ChannelTitle string
	ChannelID    string
}

// YouTube fetches videos via the Data API v3 search endpoint.
type YouTube struct {
	client *Client
	apiKey string
	log    *slog.Logger
}

func NewYouTube(client *Client, apiKey string, log *slog.Logger) *YouTube {
	key := stripQuotes(apiKey)
	if key == "" {
		log.Warn("youtube api key not configured")
	}
	return &YouTube{client: client, apiKey: key, log: log}
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			PublishedAt  string `json:"publishedAt"`
			ChannelTitle string `json:"channelTitle"`
			ChannelID    string `json:"channelId"`
			Thumbnails   struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Fetch searches for recent videos and keeps only those whose title or
// description contains one of the keywords. Returns (nil, nil) when no API
// key is configured.
func (y *YouTube) Fetch(ctx context.Context, query string, keywords []string, hoursBack int) ([]YouTubeVideo, error) {
	if y.apiKey == "" {
		y.log.Warn("youtube api key missing, returning empty results")
		return nil, nil
	}

	publishedAfter := time.Now().Add(-time.Duration(hoursBack) * time.Hour).UTC().Format(time.RFC3339)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("maxResults", "30")
	params.Set("publishedAfter", publishedAfter)
	params.Set("key", y.apiKey)

	var resp youtubeSearchResponse
	if err := y.client.GetJSON(ctx, youtubeBaseURL+"/search", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("youtube: %w", err)
	}

	videos := make([]YouTubeVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		text := strings.ToLower(item.Snippet.Title + " " + item.Snippet.Description)
		if !containsAny(text, keywords) {
			continue
		}
		videos = append(videos, YouTubeVideo{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Thumbnail:    item.Snippet.Thumbnails.Default.URL,
			PublishedAt:  item.Snippet.PublishedAt,
			ChannelTitle: item.Snippet.ChannelTitle,
			ChannelID:    item.Snippet.ChannelID,
		})
	}

	y.log.Info("fetched youtube videos", "fetched", len(resp.Items), "kept", len(videos))
	return videos, nil
}
