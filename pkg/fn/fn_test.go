package fn

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestResult(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOk() || ok.IsErr() {
		t.Error("Ok result misreported")
	}
	if v, err := ok.Unwrap(); v != 42 || err != nil {
		t.Errorf("Unwrap = %v, %v", v, err)
	}

	boom := errors.New("boom")
	bad := Err[int](boom)
	if bad.IsOk() {
		t.Error("Err result misreported")
	}
	if got := bad.UnwrapOr(7); got != 7 {
		t.Errorf("UnwrapOr = %d", got)
	}

	if r := FromPair(1, error(nil)); r.IsErr() {
		t.Error("FromPair with nil error should be ok")
	}
	if r := FromPair(0, boom); r.IsOk() {
		t.Error("FromPair with error should be err")
	}
}

func TestCollect(t *testing.T) {
	all := Collect([]Result[int]{Ok(1), Ok(2)})
	vals, err := all.Unwrap()
	if err != nil || len(vals) != 2 {
		t.Errorf("Collect = %v, %v", vals, err)
	}

	boom := errors.New("boom")
	mixed := Collect([]Result[int]{Ok(1), Err[int](boom)})
	if !mixed.IsErr() {
		t.Error("Collect with a failure should be err")
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 3}, func(_ context.Context, attempt int) Result[string] {
		attempts++
		if attempt < 2 {
			return Errf[string]("attempt %d failed", attempt)
		}
		return Ok("done")
	})
	if v, err := r.Unwrap(); err != nil || v != "done" {
		t.Errorf("Unwrap = %q, %v", v, err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryExhausted(t *testing.T) {
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 2}, func(_ context.Context, _ int) Result[int] {
		return Errf[int]("always fails")
	})
	if r.IsOk() {
		t.Error("exhausted retry should be err")
	}
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := Retry(ctx, RetryOpts{MaxAttempts: 3, InitialWait: 1}, func(_ context.Context, _ int) Result[int] {
		return Errf[int]("fail")
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParMapPreservesOrder(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	var inFlight, peak atomic.Int32

	out := ParMap(in, 3, func(v int) int {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		defer inFlight.Add(-1)
		return v * 10
	})

	for i, v := range out {
		if v != in[i]*10 {
			t.Fatalf("out[%d] = %d", i, v)
		}
	}
	if peak.Load() > 3 {
		t.Errorf("concurrency peaked at %d, limit 3", peak.Load())
	}
}

func TestParMapResult(t *testing.T) {
	out := ParMapResult([]int{1, 2, 3}, 2, func(v int) Result[int] {
		if v == 2 {
			return Errf[int]("bad input %d", v)
		}
		return Ok(v * 10)
	})
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	if v, err := out[0].Unwrap(); err != nil || v != 10 {
		t.Errorf("out[0] = %v, %v", v, err)
	}
	if !out[1].IsErr() {
		t.Error("out[1] should carry the failure")
	}
}

func TestParMapEmpty(t *testing.T) {
	out := ParMap(nil, 4, func(v int) int { return v })
	if len(out) != 0 {
		t.Errorf("len = %d", len(out))
	}
}

func TestSliceHelpers(t *testing.T) {
	doubled := Map([]int{1, 2}, func(v int) int { return v * 2 })
	if doubled[0] != 2 || doubled[1] != 4 {
		t.Errorf("Map = %v", doubled)
	}

	evens := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(evens) != 2 {
		t.Errorf("Filter = %v", evens)
	}

	kept := FilterMap([]int{1, 2, 3}, func(v int) (string, bool) {
		if v > 1 {
			return "x", true
		}
		return "", false
	})
	if len(kept) != 2 {
		t.Errorf("FilterMap = %v", kept)
	}
}

func TestChunk(t *testing.T) {
	chunks := Chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(chunks) != 3 || len(chunks[2]) != 1 {
		t.Errorf("Chunk = %v", chunks)
	}
	if Chunk([]int{1}, 0) != nil {
		t.Error("Chunk with n<=0 should be nil")
	}
}

func TestUniqueBy(t *testing.T) {
	type item struct{ id string }
	in := []item{{"a"}, {"b"}, {"a"}, {"c"}, {"b"}}
	out := UniqueBy(in, func(i item) string { return i.id })
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[0].id != "a" || out[1].id != "b" || out[2].id != "c" {
		t.Errorf("order not preserved: %v", out)
	}
}
