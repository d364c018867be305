// Command fetch runs the full signal pipeline once: fetch from every source,
// score relevance, rank, and either print the processed signals as JSON or
// publish them to NATS for a running API server to merge.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/paperpulse/paperpulse/config"
	"github.com/paperpulse/paperpulse/engine/llm"
	sig "github.com/paperpulse/paperpulse/engine/signal"
	"github.com/paperpulse/paperpulse/engine/sources"
	"github.com/paperpulse/paperpulse/pkg/metrics"
	"github.com/paperpulse/paperpulse/pkg/natsutil"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to config file")
	natsURL := flag.String("nats", "", "NATS URL (if empty, output JSON to stdout)")
	subject := flag.String("subject", "paperpulse.signals.processed", "NATS subject to publish to")
	hoursBack := flag.Int("hours", 0, "lookback window in hours (0 = config default)")
	skipLLM := flag.Bool("skip-llm", false, "skip relevance scoring")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*configFile, *natsURL, *subject, *hoursBack, *skipLLM, logger); err != nil {
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile, natsURL, subject string, hoursBack int, skipLLM bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if hoursBack <= 0 {
		hoursBack = cfg.LookbackHours
	}

	reg := metrics.NewRegistry()
	client := sources.NewClient(5, 5, 15*time.Second)
	adapters := sig.Adapters{
		HackerNews: sources.NewHackerNews(client, logger),
		News:       sources.NewNewsAPI(client, cfg.NewsAPIKey, logger),
		Reddit:     sources.NewReddit(client, cfg.RedditClientID, cfg.RedditClientSecret, logger),
		Stack:      sources.NewStackExchange(client, logger),
		YouTube:    sources.NewYouTube(client, cfg.YouTubeAPIKey, logger),
		Twitter:    sources.NewTwitter(client, cfg.TwitterBearerToken, logger),
	}

	var scorer sig.Scorer
	if !skipLLM {
		llmClient, err := llm.New(ctx, llm.Opts{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			CacheDir:    cfg.CacheDir,
			Concurrency: cfg.LLMConcurrency,
		}, reg, logger)
		if err != nil {
			return fmt.Errorf("llm client: %w", err)
		}
		scorer = llmClient
	}

	filter := sig.NewFilter(sig.DefaultFilterConfig, logger)
	cache := sig.NewCache(cfg.SignalCacheFile)
	svc := sig.NewService(adapters, filter, cache, scorer, reg, logger)

	signals := svc.Fetch(ctx, hoursBack)
	processed := svc.Process(ctx, signals)
	logger.Info("pipeline complete", "fetched", len(signals), "processed", len(processed))

	if natsURL != "" {
		nc, err := nats.Connect(natsURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()

		if err := natsutil.Publish(ctx, nc, subject, processed); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		logger.Info("published signals", "subject", subject, "count", len(processed))
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(processed)
}
