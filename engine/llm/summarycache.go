package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
)

// SummaryCache stores one JSON file per analyzed paper so summaries survive
// restarts and each paper costs at most one model call.
type SummaryCache struct {
	dir string
}

func NewSummaryCache(dir string) (*SummaryCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating summary cache dir: %w", err)
	}
	return &SummaryCache{dir: dir}, nil
}

type cacheEntry struct {
	PaperID  string               `json:"paperId"`
	Summary  *domain.PaperSummary `json:"summary"`
	CachedAt string               `json:"cachedAt"`
}

var filenameSanitizer = strings.NewReplacer(
	"/", "_", `\`, "_", "?", "_", "%", "_", "*", "_",
	":", "_", "|", "_", `"`, "_", "<", "_", ">", "_",
)

func (c *SummaryCache) path(paperID string) string {
	return filepath.Join(c.dir, filenameSanitizer.Replace(paperID)+".json")
}

// Get returns the cached summary, or (nil, nil) on a miss.
func (c *SummaryCache) Get(paperID string) (*domain.PaperSummary, error) {
	data, err := os.ReadFile(c.path(paperID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading summary cache: %w", err)
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parsing summary cache entry: %w", err)
	}
	return entry.Summary, nil
}

// Set writes the summary for the paper.
func (c *SummaryCache) Set(paperID string, summary *domain.PaperSummary) error {
	entry := cacheEntry{
		PaperID:  paperID,
		Summary:  summary,
		CachedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary cache entry: %w", err)
	}
	if err := os.WriteFile(c.path(paperID), data, 0o644); err != nil {
		return fmt.Errorf("writing summary cache: %w", err)
	}
	return nil
}

// Stats reports the number of cached entries and their total size in bytes.
func (c *SummaryCache) Stats() (count int, size int64) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if info, err := e.Info(); err == nil {
			count++
			size += info.Size()
		}
	}
	return count, size
}
