package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsArticle is one article from the NewsAPI /v2/everything endpoint.
// The full record is kept because engagement scoring inspects image,
// description, content length, and outlet name.
type NewsArticle struct {
	SourceName  string
	Author      string
	Title       string
	Description string
	URL         string
	URLToImage  string
	PublishedAt string
	Content     string
}

// NewsAPI fetches English-language articles matching a keyword query.
type NewsAPI struct {
	client *Client
	apiKey string
	log    *slog.Logger
}

func NewNewsAPI(client *Client, apiKey string, log *slog.Logger) *NewsAPI {
	key := stripQuotes(apiKey)
	if key == "" {
		log.Warn("newsapi key not configured")
	}
	return &NewsAPI{client: client, apiKey: key, log: log}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// Fetch queries /v2/everything with the keywords joined by OR, sorted by
// relevancy. Returns (nil, nil) when no API key is configured.
func (n *NewsAPI) Fetch(ctx context.Context, keywords []string, hoursBack int) ([]NewsArticle, error) {
	if n.apiKey == "" {
		n.log.Warn("newsapi key missing, returning empty results")
		return nil, nil
	}

	from := time.Now().Add(-time.Duration(hoursBack) * time.Hour).UTC().Format(time.RFC3339)

	params := url.Values{}
	params.Set("q", strings.Join(keywords, " OR "))
	params.Set("from", from)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", "50")
	params.Set("apiKey", n.apiKey)

	var resp newsAPIResponse
	if err := n.client.GetJSON(ctx, newsAPIBaseURL+"/everything", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}

	articles := make([]NewsArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, NewsArticle{
			SourceName:  a.Source.Name,
			Author:      a.Author,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			URLToImage:  a.URLToImage,
			PublishedAt: a.PublishedAt,
			Content:     a.Content,
		})
	}

	n.log.Info("fetched news articles", "count", len(articles), "hours_back", hoursBack)
	if len(articles) == 0 {
		n.log.Warn("newsapi returned 0 articles, consider broader keywords or a longer time range")
	}
	return articles, nil
}
