package signal

import (
	"path/filepath"
	"testing"

	"github.com/paperpulse/paperpulse/engine/domain"
)

func TestCacheMissingFileIsEmpty(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "missing.json"))
	signals, err := c.Load()
	if err != nil {
		t.Fatalf("missing cache file should not error: %v", err)
	}
	if signals != nil {
		t.Errorf("got %v, want nil", signals)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "nested", "signals.json"))

	in := []domain.Signal{
		{
			ID:    "abc",
			Type:  domain.SourceHackerNews,
			Title: "A cached signal",
			Engagement: domain.Engagement{
				Raw:        domain.EngagementRaw{"points": 10},
				Normalized: 0.07,
			},
			Tags: []string{"r/MachineLearning"},
		},
	}
	if err := c.Save(in); err != nil {
		t.Fatal(err)
	}

	out, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d signals, want 1", len(out))
	}
	if out[0].ID != "abc" || out[0].Engagement.Raw["points"] != 10 {
		t.Errorf("round trip mismatch: %+v", out[0])
	}
}
