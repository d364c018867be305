// Package llm scores signal relevance and analyzes papers with Gemini.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/paperpulse/paperpulse/engine/domain"
	"github.com/paperpulse/paperpulse/pkg/fn"
	"github.com/paperpulse/paperpulse/pkg/metrics"
	"github.com/paperpulse/paperpulse/pkg/resilience"
)

const DefaultModel = "gemini-2.5-flash"

// Generator produces a structured-JSON completion for a prompt. The real
// implementation wraps the Gemini API; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}
	return resp.Text(), nil
}

// Opts configures the LLM client.
type Opts struct {
	APIKey      string
	Model       string
	CacheDir    string
	Concurrency int
	// MaxAttempts bounds retries of malformed paper analysis responses.
	MaxAttempts int
}

// Client scores signals and analyzes papers. A Client without a configured
// generator degrades: relevance scores come back neutral and paper analysis
// returns ErrNotConfigured.
type Client struct {
	gen         Generator
	cache       *SummaryCache
	breaker     *resilience.Breaker
	limiter     *resilience.Limiter
	retry       fn.RetryOpts
	concurrency int
	log         *slog.Logger

	calls    *metrics.Counter
	failures *metrics.Counter
}

// New creates a Client backed by the Gemini API. An empty API key yields a
// degraded but functional client.
func New(ctx context.Context, opts Opts, reg *metrics.Registry, log *slog.Logger) (*Client, error) {
	cache, err := NewSummaryCache(opts.CacheDir)
	if err != nil {
		return nil, err
	}
	if count, size := cache.Stats(); count > 0 {
		log.Info("summary cache loaded", "entries", count, "bytes", size)
	}

	var gen Generator
	if opts.APIKey != "" {
		model := opts.Model
		if model == "" {
			model = DefaultModel
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  opts.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		gen = &geminiGenerator{client: client, model: model}
	} else {
		log.Warn("gemini api key not configured, llm features degraded")
	}

	return newClient(gen, cache, opts, reg, log), nil
}

// NewWithGenerator wires a Client around an explicit generator.
func NewWithGenerator(gen Generator, cache *SummaryCache, opts Opts, reg *metrics.Registry, log *slog.Logger) *Client {
	return newClient(gen, cache, opts, reg, log)
}

func newClient(gen Generator, cache *SummaryCache, opts Opts, reg *metrics.Registry, log *slog.Logger) *Client {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	retry := fn.DefaultRetry
	retry.MaxWait = 10 * time.Second
	retry.MaxAttempts = 2
	if opts.MaxAttempts > 0 {
		retry.MaxAttempts = opts.MaxAttempts
	}
	return &Client{
		gen:     gen,
		cache:   cache,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		limiter: resilience.NewLimiter(resilience.LimiterOpts{Rate: 1, Burst: 2}),
		retry:   retry,
		concurrency: concurrency,
		log:         log,
		calls:       reg.Counter("llm_calls_total", "Model calls attempted"),
		failures:    reg.Counter("llm_failures_total", "Model calls that failed or returned malformed output"),
	}
}

// Configured reports whether a generator is available.
func (c *Client) Configured() bool { return c.gen != nil }

func (c *Client) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	c.calls.Inc()
	var text string
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		return c.limiter.CallWait(ctx, func(ctx context.Context) error {
			var err error
			text, err = c.gen.Generate(ctx, prompt, schema)
			return err
		})
	})
	if err != nil {
		c.failures.Inc()
		return "", err
	}
	return text, nil
}

type relevanceVerdict struct {
	Relevant bool    `json:"relevant"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

// ScoreRelevance judges how relevant a signal is to current research. Any
// failure, including an unconfigured model, degrades to a neutral 0.5 so
// scoring never blocks the pipeline.
func (c *Client) ScoreRelevance(ctx context.Context, s *domain.Signal) float64 {
	if c.gen == nil {
		c.log.Warn("llm not available for relevance scoring")
		return 0.5
	}

	text, err := c.generate(ctx, relevancePrompt(s), relevanceSchema())
	if err != nil {
		c.log.Error("scoring signal relevance failed", "id", s.ID, "error", err)
		return 0.5
	}

	var verdict relevanceVerdict
	if err := json.Unmarshal([]byte(stripFences(text)), &verdict); err != nil {
		c.log.Error("parsing relevance verdict failed", "id", s.ID, "error", err)
		return 0.5
	}

	if !verdict.Relevant {
		return 0
	}
	if verdict.Score == 0 {
		return 0.5
	}
	c.log.Debug("scored signal relevance", "id", s.ID, "score", verdict.Score, "reason", verdict.Reason)
	return verdict.Score
}

type analysisResponse struct {
	Hook             string   `json:"hook"`
	WhyRead          string   `json:"whyRead"`
	Motivation       string   `json:"motivation"`
	Contribution     string   `json:"contribution"`
	Context          string   `json:"context"`
	KeyContributions []string `json:"keyContributions"`
	RelevanceScore   *float64 `json:"relevanceScore"`
}

// AnalyzePaper returns the structured summary for a paper, serving from the
// cache when possible. Malformed responses are retried with a stricter
// JSON-only instruction before giving up.
func (c *Client) AnalyzePaper(ctx context.Context, paper *domain.Paper) (*domain.PaperSummary, error) {
	if cached, err := c.cache.Get(paper.ID); err != nil {
		c.log.Warn("reading summary cache failed", "paper", paper.ID, "error", err)
	} else if cached != nil {
		c.log.Info("using cached summary", "paper", paper.ID)
		return cached, nil
	}

	if c.gen == nil {
		return nil, fmt.Errorf("analyzing paper %s: %w", paper.ID, domain.ErrNotConfigured)
	}

	c.log.Info("analyzing paper", "paper", paper.ID, "title", paper.Title)

	result := fn.Retry(ctx, c.retry, func(ctx context.Context, attempt int) fn.Result[*domain.PaperSummary] {
		strict := attempt > 0
		if strict {
			c.log.Warn("retrying paper analysis with strict prompt", "paper", paper.ID, "attempt", attempt)
		}
		text, err := c.generate(ctx, analysisPrompt(paper.Title, paper.Abstract, paper.Authors, strict), analysisSchema())
		if err != nil {
			return fn.Err[*domain.PaperSummary](err)
		}
		return fn.FromPair(parseAnalysis(text))
	})

	summary, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("analyzing paper %s: %w", paper.ID, err)
	}

	if err := c.cache.Set(paper.ID, summary); err != nil {
		c.log.Warn("writing summary cache failed", "paper", paper.ID, "error", err)
	}
	return summary, nil
}

// AnalyzeBatch analyzes papers in chunks of the configured concurrency,
// finishing each chunk before starting the next. Failed papers are logged
// and omitted from the result.
func (c *Client) AnalyzeBatch(ctx context.Context, papers []domain.Paper) map[string]*domain.PaperSummary {
	results := make(map[string]*domain.PaperSummary, len(papers))
	c.log.Info("analyzing papers", "count", len(papers), "concurrency", c.concurrency)

	for _, chunk := range fn.Chunk(papers, c.concurrency) {
		summaries := fn.ParMap(chunk, len(chunk), func(p domain.Paper) fn.Result[*domain.PaperSummary] {
			return fn.FromPair(c.AnalyzePaper(ctx, &p))
		})
		for i, res := range summaries {
			summary, err := res.Unwrap()
			if err != nil {
				c.log.Error("paper analysis failed", "paper", chunk[i].ID, "error", err)
				continue
			}
			results[chunk[i].ID] = summary
		}
	}
	return results
}

func parseAnalysis(text string) (*domain.PaperSummary, error) {
	var parsed analysisResponse
	if err := json.Unmarshal([]byte(stripFences(text)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if parsed.Hook == "" || parsed.WhyRead == "" || parsed.Motivation == "" ||
		parsed.Contribution == "" || parsed.Context == "" ||
		parsed.KeyContributions == nil || parsed.RelevanceScore == nil {
		return nil, fmt.Errorf("%w: missing required fields", domain.ErrMalformedResponse)
	}

	return &domain.PaperSummary{
		Hook:             parsed.Hook,
		Why:              parsed.WhyRead,
		What:             parsed.Contribution,
		HowItFits:        parsed.Context,
		Motivation:       parsed.Motivation,
		KeyContributions: parsed.KeyContributions,
		RelevanceScore:   *parsed.RelevanceScore,
	}, nil
}

// stripFences removes markdown code fences some models wrap around JSON.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
