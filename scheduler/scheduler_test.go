package scheduler

import (
	"context"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestStartStop(t *testing.T) {
	s := New("0 6 * * *", func(context.Context) {}, discardLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Second start is a no-op, not an error.
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	// Stopping an idle scheduler is safe.
	s.Stop()
}

func TestInvalidSchedule(t *testing.T) {
	s := New("not a schedule", func(context.Context) {}, discardLogger())
	if err := s.Start(context.Background()); err == nil {
		t.Error("invalid cron expression should fail to start")
		s.Stop()
	}
}
