package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const stackExchangeBaseURL = "https://api.stackexchange.com/2.3"

// Tags queried for machine learning questions; the API ANDs them with ';'
// so only the strongest three are used.
var stackTags = []string{"machine-learning", "deep-learning", "artificial-intelligence"}

// StackQuestion is one Stack Overflow question with HTML stripped from the body.
type StackQuestion struct {
	ID          int64
	Title       string
	Body        string
	URL         string
	Author      string
	Reputation  int
	CreatedAt   time.Time
	Score       int
	ViewCount   int
	AnswerCount int
	Tags        []string
}

// StackExchange fetches recently active questions from the Stack Exchange API.
// It needs no credentials.
type StackExchange struct {
	client *Client
	log    *slog.Logger
}

func NewStackExchange(client *Client, log *slog.Logger) *StackExchange {
	return &StackExchange{client: client, log: log}
}

type stackResponse struct {
	Items []struct {
		QuestionID   int64    `json:"question_id"`
		Title        string   `json:"title"`
		Body         string   `json:"body"`
		Link         string   `json:"link"`
		CreationDate int64    `json:"creation_date"`
		Score        int      `json:"score"`
		ViewCount    int      `json:"view_count"`
		AnswerCount  int      `json:"answer_count"`
		Tags         []string `json:"tags"`
		Owner        struct {
			DisplayName string `json:"display_name"`
			Reputation  int    `json:"reputation"`
		} `json:"owner"`
	} `json:"items"`
	QuotaRemaining int `json:"quota_remaining"`
}

// Fetch returns questions tagged with the ML tag set and active within the
// last hoursBack hours.
func (s *StackExchange) Fetch(ctx context.Context, hoursBack int) ([]StackQuestion, error) {
	from := time.Now().Add(-time.Duration(hoursBack) * time.Hour).Unix()

	params := url.Values{}
	params.Set("order", "desc")
	params.Set("sort", "activity")
	params.Set("tagged", strings.Join(stackTags, ";"))
	params.Set("site", "stackoverflow")
	params.Set("fromdate", strconv.FormatInt(from, 10))
	params.Set("pagesize", "30")
	params.Set("filter", "withbody")

	var resp stackResponse
	if err := s.client.GetJSON(ctx, stackExchangeBaseURL+"/questions", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("stackexchange: %w", err)
	}

	questions := make([]StackQuestion, 0, len(resp.Items))
	for _, item := range resp.Items {
		author := item.Owner.DisplayName
		if author == "" {
			author = "Unknown"
		}
		questions = append(questions, StackQuestion{
			ID:          item.QuestionID,
			Title:       item.Title,
			Body:        stripHTML(item.Body),
			URL:         item.Link,
			Author:      author,
			Reputation:  item.Owner.Reputation,
			CreatedAt:   time.Unix(item.CreationDate, 0).UTC(),
			Score:       item.Score,
			ViewCount:   item.ViewCount,
			AnswerCount: item.AnswerCount,
			Tags:        item.Tags,
		})
	}

	s.log.Info("fetched stackoverflow questions",
		"count", len(questions),
		"quota_remaining", resp.QuotaRemaining,
		"hours_back", hoursBack,
	)
	return questions, nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

var htmlEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

func stripHTML(s string) string {
	return strings.TrimSpace(htmlEntities.Replace(htmlTagRe.ReplaceAllString(s, "")))
}
