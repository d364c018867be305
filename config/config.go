// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all service settings.
type Config struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	NewsAPIKey         string `yaml:"newsapi_key"`
	TwitterBearerToken string `yaml:"twitter_bearer_token"`
	RedditClientID     string `yaml:"reddit_client_id"`
	RedditClientSecret string `yaml:"reddit_client_secret"`
	YouTubeAPIKey      string `yaml:"youtube_api_key"`

	CacheDir        string `yaml:"cache_dir"`
	SignalCacheFile string `yaml:"signal_cache_file"`

	ArxivBaseURL    string   `yaml:"arxiv_base_url"`
	ArxivCategories []string `yaml:"arxiv_categories"`
	ArxivMaxResults int      `yaml:"arxiv_max_results"`

	FetchCronSchedule string `yaml:"fetch_cron_schedule"`
	LookbackHours     int    `yaml:"lookback_hours"`
	LLMConcurrency    int    `yaml:"llm_concurrency"`

	NATSURL string `yaml:"nats_url"`
}

// Load reads the YAML file at path when it exists, fills defaults, and applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvironmentOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.5-flash"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./data/cache"
	}
	if c.SignalCacheFile == "" {
		c.SignalCacheFile = "./data/signals-cache.json"
	}
	if c.ArxivBaseURL == "" {
		c.ArxivBaseURL = "http://export.arxiv.org/api/query"
	}
	if len(c.ArxivCategories) == 0 {
		c.ArxivCategories = []string{"cs.LG", "cs.CV"}
	}
	if c.ArxivMaxResults == 0 {
		c.ArxivMaxResults = 30
	}
	if c.FetchCronSchedule == "" {
		c.FetchCronSchedule = "0 6 * * *"
	}
	if c.LookbackHours == 0 {
		c.LookbackHours = 24
	}
	if c.LLMConcurrency == 0 {
		c.LLMConcurrency = 1
	}
}

func (c *Config) applyEnvironmentOverrides() {
	setString(&c.Environment, "NODE_ENV", "ENVIRONMENT")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.NewsAPIKey, "NEWSAPI_KEY")
	setString(&c.TwitterBearerToken, "X_BEARER_TOKEN")
	setString(&c.RedditClientID, "REDDIT_CLIENT_ID")
	setString(&c.RedditClientSecret, "REDDIT_CLIENT_SECRET")
	setString(&c.YouTubeAPIKey, "YOUTUBE_API_KEY")
	setString(&c.CacheDir, "CACHE_DIR")
	setString(&c.SignalCacheFile, "SIGNAL_CACHE_FILE")
	setString(&c.ArxivBaseURL, "ARXIV_BASE_URL")
	setString(&c.FetchCronSchedule, "FETCH_CRON_SCHEDULE")
	setString(&c.NATSURL, "NATS_URL")

	setInt(&c.Port, "PORT")
	setInt(&c.ArxivMaxResults, "ARXIV_MAX_RESULTS")
	setInt(&c.LookbackHours, "LOOKBACK_HOURS")
	setInt(&c.LLMConcurrency, "LLM_CONCURRENCY")

	if v := os.Getenv("ARXIV_CATEGORIES"); v != "" {
		var cats []string
		for _, cat := range strings.Split(v, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				cats = append(cats, cat)
			}
		}
		if len(cats) > 0 {
			c.ArxivCategories = cats
		}
	}
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.LookbackHours < 1 {
		return fmt.Errorf("lookback_hours must be positive, got %d", c.LookbackHours)
	}
	if c.LLMConcurrency < 1 {
		return fmt.Errorf("llm_concurrency must be positive, got %d", c.LLMConcurrency)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode, where
// the signal endpoints serve the cheap cache-first path.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func setString(target *string, keys ...string) {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			*target = v
			return
		}
	}
}

func setInt(target *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*target = n
	}
}
