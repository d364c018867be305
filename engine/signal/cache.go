package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/paperpulse/paperpulse/engine/domain"
)

// Cache persists signals to a flat JSON file so the minimal fetch path can
// serve without hitting upstream APIs.
type Cache struct {
	path string
}

func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Load reads the cached signals. A missing file is not an error; it returns
// (nil, nil) so callers treat it as an empty cache.
func (c *Cache) Load() ([]domain.Signal, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading signal cache: %w", err)
	}

	var signals []domain.Signal
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, fmt.Errorf("parsing signal cache: %w", err)
	}
	return signals, nil
}

// Save writes the signals, creating parent directories as needed. The write
// goes through a temp file and rename so a crash never leaves a torn cache.
func (c *Cache) Save(signals []domain.Signal) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.MarshalIndent(signals, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding signal cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing signal cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing signal cache: %w", err)
	}
	return nil
}
