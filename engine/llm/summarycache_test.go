package llm

import (
	"testing"

	"github.com/paperpulse/paperpulse/engine/domain"
)

func TestSummaryCacheRoundTrip(t *testing.T) {
	cache, err := NewSummaryCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if got, err := cache.Get("2401.00001"); err != nil || got != nil {
		t.Fatalf("miss = %v, %v", got, err)
	}

	want := &domain.PaperSummary{Hook: "h", RelevanceScore: 0.7}
	if err := cache.Set("2401.00001", want); err != nil {
		t.Fatal(err)
	}
	got, err := cache.Get("2401.00001")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hook != "h" || got.RelevanceScore != 0.7 {
		t.Errorf("got %+v", got)
	}
}

func TestSummaryCacheStats(t *testing.T) {
	cache, err := NewSummaryCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if count, size := cache.Stats(); count != 0 || size != 0 {
		t.Errorf("empty stats = %d, %d", count, size)
	}

	cache.Set("a", &domain.PaperSummary{Hook: "one"})
	cache.Set("b/c", &domain.PaperSummary{Hook: "two"})

	count, size := cache.Stats()
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if size == 0 {
		t.Error("size should be nonzero after writes")
	}
}

func TestSummaryCacheSanitizesIDs(t *testing.T) {
	cache, err := NewSummaryCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	id := `weird/id\with:chars?`
	if err := cache.Set(id, &domain.PaperSummary{Hook: "h"}); err != nil {
		t.Fatal(err)
	}
	got, err := cache.Get(id)
	if err != nil || got == nil {
		t.Fatalf("round trip through sanitized filename failed: %v", err)
	}
}
