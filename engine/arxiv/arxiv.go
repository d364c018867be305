// Package arxiv fetches paper metadata from the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
	"github.com/paperpulse/paperpulse/pkg/fn"
)

const DefaultBaseURL = "http://export.arxiv.org/api/query"

// DefaultCategories are the arXiv subject classes polled by default.
var DefaultCategories = []string{"cs.LG", "cs.CV"}

// Client fetches and parses arXiv Atom feeds.
type Client struct {
	baseURL    string
	categories []string
	http       *http.Client
	log        *slog.Logger
}

func NewClient(baseURL string, categories []string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Client{
		baseURL:    baseURL,
		categories: categories,
		http:       &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// Atom feed shapes for the arXiv query API.
type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID         string     `xml:"id"`
	Title      string     `xml:"title"`
	Summary    string     `xml:"summary"`
	Published  string     `xml:"published"`
	Updated    string     `xml:"updated"`
	Authors    []author   `xml:"author"`
	Categories []category `xml:"category"`
}

type author struct {
	Name string `xml:"name"`
}

type category struct {
	Term string `xml:"term,attr"`
}

// FetchPapers queries each configured category, deduplicates across
// categories by base id, sorts newest first, and caps at maxResults. A
// category that fails to fetch contributes nothing.
func (c *Client) FetchPapers(ctx context.Context, maxResults int) ([]domain.Paper, error) {
	var all []domain.Paper
	for _, cat := range c.categories {
		papers, err := c.fetchCategory(ctx, cat, maxResults)
		if err != nil {
			c.log.Error("fetching arxiv category failed", "category", cat, "error", err)
			continue
		}
		all = append(all, papers...)
	}

	unique := fn.UniqueBy(all, func(p domain.Paper) string { return p.ID })

	sort.SliceStable(unique, func(i, j int) bool {
		ti, _ := time.Parse(time.RFC3339, unique[i].PublishedDate)
		tj, _ := time.Parse(time.RFC3339, unique[j].PublishedDate)
		return ti.After(tj)
	})

	if len(unique) > maxResults {
		unique = unique[:maxResults]
	}
	c.log.Info("fetched arxiv papers", "total", len(all), "unique", len(unique))
	return unique, nil
}

func (c *Client) fetchCategory(ctx context.Context, cat string, maxResults int) ([]domain.Paper, error) {
	params := url.Values{}
	params.Set("search_query", "cat:"+cat)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "lastUpdatedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "paperpulse/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return ParseFeed(body, cat)
}

// ParseFeed decodes an Atom feed into papers. defaultCategory fills in when
// an entry carries no category terms.
func ParseFeed(data []byte, defaultCategory string) ([]domain.Paper, error) {
	var f feed
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing atom feed: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	papers := make([]domain.Paper, 0, len(f.Entries))
	for _, e := range f.Entries {
		id := ExtractID(e.ID)

		authors := make([]string, 0, len(e.Authors))
		for _, a := range e.Authors {
			name := a.Name
			if name == "" {
				name = "Unknown Author"
			}
			authors = append(authors, name)
		}

		var cats []string
		for _, c := range e.Categories {
			if c.Term != "" {
				cats = append(cats, c.Term)
			}
		}
		if len(cats) == 0 {
			cats = []string{defaultCategory}
		}

		published := e.Published
		if published == "" {
			published = now
		}
		updated := e.Updated
		if updated == "" {
			updated = published
		}

		papers = append(papers, domain.Paper{
			ID:            id,
			ArxivID:       id,
			Title:         cleanText(e.Title),
			Abstract:      cleanText(e.Summary),
			Authors:       authors,
			Categories:    cats,
			PDFURL:        "https://arxiv.org/pdf/" + id + ".pdf",
			PublishedDate: published,
			UpdatedDate:   updated,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return papers, nil
}

var (
	absIDRe      = regexp.MustCompile(`arxiv\.org/abs/([0-9.]+(?:v[0-9]+)?)`)
	trailingIDRe = regexp.MustCompile(`([0-9.]+(?:v[0-9]+)?)$`)
	versionRe    = regexp.MustCompile(`v[0-9]+$`)
)

// ExtractID pulls the arXiv identifier out of an entry id URL and strips the
// version suffix, so two versions of one paper share a single id.
func ExtractID(rawID string) string {
	id := rawID
	if m := absIDRe.FindStringSubmatch(rawID); m != nil {
		id = m[1]
	} else if m := trailingIDRe.FindStringSubmatch(rawID); m != nil {
		id = m[1]
	}
	return versionRe.ReplaceAllString(id, "")
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
