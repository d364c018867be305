package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twitterBaseURL = "https://api.twitter.com/2"

// Tweet is one result from the v2 recent search endpoint with its author
// resolved from the user expansion.
type Tweet struct {
	ID             string
	Text           string
	CreatedAt      string
	Likes          int
	Retweets       int
	Replies        int
	AuthorName     string
	AuthorUsername string
	Followers      int
}

// Twitter fetches recent tweets matching the keyword query.
type Twitter struct {
	client      *Client
	bearerToken string
	log         *slog.Logger
}

func NewTwitter(client *Client, bearerToken string, log *slog.Logger) *Twitter {
	tok := stripQuotes(bearerToken)
	if tok == "" {
		log.Warn("twitter bearer token not configured")
	}
	return &Twitter{client: client, bearerToken: tok, log: log}
}

type twitterSearchResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		CreatedAt     string `json:"created_at"`
		AuthorID      string `json:"author_id"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			Username      string `json:"username"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"users"`
	} `json:"includes"`
}

// Fetch runs a recent search for the quoted keywords, excluding retweets and
// restricted to English. Returns (nil, nil) when no bearer token is
// configured.
func (t *Twitter) Fetch(ctx context.Context, keywords []string, hoursBack int) ([]Tweet, error) {
	if t.bearerToken == "" {
		t.log.Warn("twitter bearer token missing, returning empty results")
		return nil, nil
	}

	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = `"` + kw + `"`
	}
	query := "(" + strings.Join(quoted, " OR ") + ") -is:retweet lang:en"
	startTime := time.Now().Add(-time.Duration(hoursBack) * time.Hour).UTC().Format(time.RFC3339)

	params := url.Values{}
	params.Set("query", query)
	params.Set("start_time", startTime)
	params.Set("max_results", "50")
	params.Set("tweet.fields", "created_at,public_metrics,author_id,entities")
	params.Set("user.fields", "username,name,public_metrics,verified")
	params.Set("expansions", "author_id")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.bearerToken)

	var resp twitterSearchResponse
	if err := t.client.GetJSON(ctx, twitterBaseURL+"/tweets/search/recent", params, header, &resp); err != nil {
		return nil, fmt.Errorf("twitter: %w", err)
	}

	users := make(map[string]struct {
		name      string
		username  string
		followers int
	}, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		users[u.ID] = struct {
			name      string
			username  string
			followers int
		}{u.Name, u.Username, u.PublicMetrics.FollowersCount}
	}

	tweets := make([]Tweet, 0, len(resp.Data))
	for _, tw := range resp.Data {
		u := users[tw.AuthorID]
		tweets = append(tweets, Tweet{
			ID:             tw.ID,
			Text:           tw.Text,
			CreatedAt:      tw.CreatedAt,
			Likes:          tw.PublicMetrics.LikeCount,
			Retweets:       tw.PublicMetrics.RetweetCount,
			Replies:        tw.PublicMetrics.ReplyCount,
			AuthorName:     u.name,
			AuthorUsername: u.username,
			Followers:      u.followers,
		})
	}

	t.log.Info("fetched tweets", "count", len(tweets), "hours_back", hoursBack)
	return tweets, nil
}
