package worker

import (
	"testing"

	"github.com/maes-platform/compliance-core/internal/store"
)

func TestIsTerminal(t *testing.T) {
	terminal := []store.AssessmentStatus{store.StatusCompleted, store.StatusFailed, store.StatusCancelled}
	for _, s := range terminal {
		if !isTerminal(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	nonTerminal := []store.AssessmentStatus{store.StatusPending, store.StatusRunning}
	for _, s := range nonTerminal {
		if isTerminal(s) {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}

func TestMustParseUUIDReturnsNilOnInvalid(t *testing.T) {
	if got := mustParseUUID("not-a-uuid"); got.String() != "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected nil uuid for invalid input, got %s", got)
	}
}
