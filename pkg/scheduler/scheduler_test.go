package scheduler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/store"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustUUID() uuid.UUID {
	return uuid.New()
}

func TestComputeNextDaily(t *testing.T) {
	from := time.Date(2026, 7, 31, 14, 30, 0, 0, time.UTC)
	got := computeNext(store.FrequencyDaily, from)
	want := time.Date(2026, 8, 1, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeNextWeeklyLandsOnUpcomingSunday(t *testing.T) {
	// 2026-07-31 is a Friday.
	from := time.Date(2026, 7, 31, 14, 30, 0, 0, time.UTC)
	got := computeNext(store.FrequencyWeekly, from)
	want := time.Date(2026, 8, 2, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got.Weekday() != time.Sunday {
		t.Fatalf("expected Sunday, got %v", got.Weekday())
	}
}

func TestComputeNextWeeklyFromSundaySkipsToNextSunday(t *testing.T) {
	from := time.Date(2026, 8, 2, 3, 0, 0, 0, time.UTC) // a Sunday
	got := computeNext(store.FrequencyWeekly, from)
	want := time.Date(2026, 8, 9, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeNextMonthly(t *testing.T) {
	from := time.Date(2026, 7, 31, 14, 30, 0, 0, time.UTC)
	got := computeNext(store.FrequencyMonthly, from)
	want := time.Date(2026, 8, 1, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeNextQuarterly(t *testing.T) {
	from := time.Date(2026, 7, 31, 14, 30, 0, 0, time.UTC)
	got := computeNext(store.FrequencyQuarterly, from)
	want := time.Date(2026, 10, 1, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestArmSkipsInactiveOrUnscheduledRows(t *testing.T) {
	s := New(nil, nil, noopLogger())
	sch := store.Schedule{ID: mustUUID(), Active: false}
	s.arm(nil, sch)
	if len(s.timers) != 0 {
		t.Fatalf("expected no timer armed for inactive schedule, got %d", len(s.timers))
	}

	unscheduled := store.Schedule{ID: mustUUID(), Active: true}
	s.arm(nil, unscheduled)
	if len(s.timers) != 0 {
		t.Fatalf("expected no timer armed for schedule without nextRunAt, got %d", len(s.timers))
	}
}

func TestArmReplacesExistingTimerForSameID(t *testing.T) {
	s := New(nil, nil, noopLogger())
	id := mustUUID()
	future := time.Now().Add(time.Hour)
	sch := store.Schedule{ID: id, Active: true, NextRunAt: &future}

	s.arm(nil, sch)
	if len(s.timers) != 1 {
		t.Fatalf("expected one armed timer, got %d", len(s.timers))
	}
	s.arm(nil, sch)
	if len(s.timers) != 1 {
		t.Fatalf("expected re-arming to replace, not duplicate, timer count %d", len(s.timers))
	}
	s.stopAllTimers()
}
