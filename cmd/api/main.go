// Package main implements the paperpulse API server: arXiv papers with
// model-generated summaries plus ranked external discussion signals, served
// as JSON for the dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/paperpulse/paperpulse/config"
	"github.com/paperpulse/paperpulse/engine/arxiv"
	"github.com/paperpulse/paperpulse/engine/domain"
	"github.com/paperpulse/paperpulse/engine/llm"
	sig "github.com/paperpulse/paperpulse/engine/signal"
	"github.com/paperpulse/paperpulse/engine/sources"
	"github.com/paperpulse/paperpulse/engine/store"
	"github.com/paperpulse/paperpulse/pkg/metrics"
	"github.com/paperpulse/paperpulse/pkg/mid"
	"github.com/paperpulse/paperpulse/pkg/natsutil"
	"github.com/paperpulse/paperpulse/scheduler"
)

const signalsSubject = "paperpulse.signals.processed"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(envOr("CONFIG_FILE", "config.yaml"))
	if err != nil {
		logger.Error("loading config failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.Default

	// --- Source adapters ---
	client := sources.NewClient(5, 5, 15*time.Second)
	adapters := sig.Adapters{
		HackerNews: sources.NewHackerNews(client, logger),
		News:       sources.NewNewsAPI(client, cfg.NewsAPIKey, logger),
		Reddit:     sources.NewReddit(client, cfg.RedditClientID, cfg.RedditClientSecret, logger),
		Stack:      sources.NewStackExchange(client, logger),
		YouTube:    sources.NewYouTube(client, cfg.YouTubeAPIKey, logger),
		Twitter:    sources.NewTwitter(client, cfg.TwitterBearerToken, logger),
	}

	// --- LLM client ---
	llmClient, err := llm.New(ctx, llm.Opts{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.GeminiModel,
		CacheDir:    cfg.CacheDir,
		Concurrency: cfg.LLMConcurrency,
	}, reg, logger)
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}

	// --- Pipeline ---
	filter := sig.NewFilter(sig.DefaultFilterConfig, logger)
	cache := sig.NewCache(cfg.SignalCacheFile)
	signalSvc := sig.NewService(adapters, filter, cache, llmClient, reg, logger)
	arxivClient := arxiv.NewClient(cfg.ArxivBaseURL, cfg.ArxivCategories, logger)
	st := store.New()

	refreshPapers := func(ctx context.Context) error {
		papers, err := arxivClient.FetchPapers(ctx, cfg.ArxivMaxResults)
		if err != nil {
			return fmt.Errorf("fetching papers: %w", err)
		}
		summaries := llmClient.AnalyzeBatch(ctx, papers)
		for i := range papers {
			if summary, ok := summaries[papers[i].ID]; ok {
				papers[i].Summary = summary
			}
		}
		st.ReplacePapers(papers, time.Now())
		return nil
	}

	refreshSignals := func(ctx context.Context) {
		if cfg.IsDevelopment() {
			signals, err := signalSvc.FetchMinimal(ctx, cfg.LookbackHours)
			if err != nil {
				logger.Error("minimal signal refresh failed", "error", err)
				return
			}
			st.ReplaceSignals(signals, time.Now())
			return
		}
		signals := signalSvc.Fetch(ctx, cfg.LookbackHours)
		st.ReplaceSignals(signalSvc.Process(ctx, signals), time.Now())
	}

	// --- Scheduler ---
	sched := scheduler.New(cfg.FetchCronSchedule, func(ctx context.Context) {
		if err := refreshPapers(ctx); err != nil {
			logger.Error("scheduled paper refresh failed", "error", err)
		}
		refreshSignals(ctx)
	}, logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// --- Optional NATS signal merge ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()

		sub, err := natsutil.Subscribe(nc, signalsSubject, func(ctx context.Context, signals []domain.Signal) {
			logger.Info("merging externally processed signals", "count", len(signals))
			st.MergeSignals(signals, time.Now())
		})
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer sub.Unsubscribe()
		logger.Info("subscribed to processed signals", "subject", signalsSubject)
	}

	// --- HTTP server ---
	a := &api{
		store:       st,
		signals:     signalSvc,
		refresh:     refreshPapers,
		development: cfg.IsDevelopment(),
		log:         logger,
	}

	mux := http.NewServeMux()
	a.routes(mux)
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(envOr("CORS_ORIGIN", "*")),
		mid.OTel("paperpulse-api"),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "environment", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
