package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }

	if err := b.Call(context.Background(), fail); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if b.State() != StateClosed {
		t.Error("breaker should stay closed below threshold")
	}

	b.Call(context.Background(), fail)
	if b.State() != StateOpen {
		t.Fatal("breaker should open at threshold")
	}

	if err := b.Call(context.Background(), fail); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker returned %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})
	now := time.Now()
	b.now = func() time.Time { return now }

	b.Call(context.Background(), func(context.Context) error { return errors.New("boom") })
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	// After the timeout one probe is allowed; success closes the breaker.
	now = now.Add(2 * time.Minute)
	if err := b.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after successful probe", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})
	now := time.Now()
	b.now = func() time.Time { return now }

	b.Call(context.Background(), func(context.Context) error { return errors.New("boom") })
	now = now.Add(2 * time.Minute)

	b.Call(context.Background(), func(context.Context) error { return errors.New("still down") })
	if b.State() != StateOpen {
		t.Errorf("state = %v, want reopened", b.State())
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	boom := errors.New("boom")

	b.Call(context.Background(), func(context.Context) error { return boom })
	b.Call(context.Background(), func(context.Context) error { return nil })
	b.Call(context.Background(), func(context.Context) error { return boom })

	if b.State() != StateClosed {
		t.Error("interleaved success should reset the failure streak")
	}
}

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 1, Burst: 2})
	now := time.Now()
	l.now = func() time.Time { return now }

	if !l.Allow() || !l.Allow() {
		t.Fatal("burst of 2 should allow two calls")
	}
	if l.Allow() {
		t.Fatal("third immediate call should be limited")
	}

	now = now.Add(time.Second)
	if !l.Allow() {
		t.Error("token should refill after a second")
	}
}

func TestLimiterWaitCancelled(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 1})
	l.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestCallWait(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 100, Burst: 1})
	called := false
	err := l.CallWait(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("CallWait err=%v called=%v", err, called)
	}
}
