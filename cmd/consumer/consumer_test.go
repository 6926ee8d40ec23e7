package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/trip-quoting/internal/events"
	"github.com/example/trip-quoting/internal/models"
)

// fakeSaver implements HistorySaver for tests
type fakeSaver struct {
	fail  int // number of times to fail before succeeding
	calls int
	last  models.TripRecord
}

func (f *fakeSaver) SaveTrip(ctx context.Context, sessionKey string, rec models.TripRecord) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("insert fail")
	}
	f.last = rec
	return nil
}

func testEvent() events.TripEvent {
	return events.TripEvent{
		SessionKey:  "s1",
		Origin:      "Plaza Venezuela",
		Destination: "Petare",
		VehicleType: "economy",
		Price:       28.00,
		Currency:    "USD",
		FinalizedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeSaver{fail: 2}
	start := time.Now()
	if err := saveWithRetry(context.Background(), f, testEvent(), 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.last.Origin != "Plaza Venezuela" || f.last.Price != 28.00 {
		t.Fatalf("record mapped wrong: %+v", f.last)
	}
}

func TestSaveWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeSaver{fail: 5}
	if err := saveWithRetry(context.Background(), f, testEvent(), 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
	if f.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", f.calls)
	}
}
