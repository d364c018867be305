package sources

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	redditOAuthURL = "https://oauth.reddit.com"
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditUA       = "paperpulse/1.0"
)

// DefaultSubreddits are the communities polled for discussion signals.
var DefaultSubreddits = []string{"MachineLearning", "learnmachinelearning"}

// RedditPost is one post from a subreddit hot listing.
type RedditPost struct {
	ID          string
	Title       string
	Text        string
	URL         string
	Author      string
	Subreddit   string
	CreatedAt   time.Time
	Score       int
	NumComments int
	UpvoteRatio float64
}

// Reddit fetches hot posts via the OAuth client-credentials flow. The access
// token is cached and reused until shortly before expiry.
type Reddit struct {
	client       *Client
	clientID     string
	clientSecret string
	log          *slog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewReddit(client *Client, clientID, clientSecret string, log *slog.Logger) *Reddit {
	id := stripQuotes(clientID)
	secret := stripQuotes(clientSecret)
	if id == "" || secret == "" {
		log.Warn("reddit credentials not configured")
	}
	return &Reddit{client: client, clientID: id, clientSecret: secret, log: log}
}

func (r *Reddit) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Now().Before(r.tokenExpiry) {
		return r.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	basic := base64.StdEncoding.EncodeToString([]byte(r.clientID + ":" + r.clientSecret))
	header := http.Header{}
	header.Set("Authorization", "Basic "+basic)
	header.Set("User-Agent", redditUA)

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := r.client.PostForm(ctx, redditTokenURL, form, header, &resp); err != nil {
		return "", fmt.Errorf("reddit token: %w", err)
	}

	r.accessToken = resp.AccessToken
	// Renew one minute early to avoid racing the expiry.
	r.tokenExpiry = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - time.Minute)
	return r.accessToken, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Permalink   string  `json:"permalink"`
				Author      string  `json:"author"`
				Subreddit   string  `json:"subreddit"`
				CreatedUTC  float64 `json:"created_utc"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				UpvoteRatio float64 `json:"upvote_ratio"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch pulls hot posts from each subreddit and keeps only posts whose
// title or body contains one of the keywords. Returns (nil, nil) when
// credentials are missing.
func (r *Reddit) Fetch(ctx context.Context, subreddits, keywords []string, _ int) ([]RedditPost, error) {
	if r.clientID == "" || r.clientSecret == "" {
		r.log.Warn("reddit credentials missing, returning empty results")
		return nil, nil
	}

	tok, err := r.token(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+tok)
	header.Set("User-Agent", redditUA)

	params := url.Values{}
	params.Set("limit", "30")

	var posts []RedditPost
	for _, sub := range subreddits {
		var listing redditListing
		endpoint := fmt.Sprintf("%s/r/%s/hot", redditOAuthURL, sub)
		if err := r.client.GetJSON(ctx, endpoint, params, header, &listing); err != nil {
			return posts, fmt.Errorf("reddit r/%s: %w", sub, err)
		}

		kept := 0
		for _, child := range listing.Data.Children {
			p := child.Data
			text := strings.ToLower(p.Title + " " + p.Selftext)
			if !containsAny(text, keywords) {
				continue
			}
			kept++
			posts = append(posts, RedditPost{
				ID:          p.ID,
				Title:       p.Title,
				Text:        p.Selftext,
				URL:         "https://reddit.com" + p.Permalink,
				Author:      p.Author,
				Subreddit:   p.Subreddit,
				CreatedAt:   time.Unix(int64(p.CreatedUTC), 0).UTC(),
				Score:       p.Score,
				NumComments: p.NumComments,
				UpvoteRatio: p.UpvoteRatio,
			})
		}
		r.log.Info("fetched reddit posts", "subreddit", sub, "fetched", len(listing.Data.Children), "kept", kept)
	}

	return posts, nil
}

func containsAny(lowerText string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerText, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
