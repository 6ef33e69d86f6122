package comparator

import (
	"testing"

	"github.com/maes-platform/compliance-core/internal/store"
)

func TestClassifyUnchangedWhenBothCompliant(t *testing.T) {
	b := store.ControlResult{Status: store.ResultCompliant}
	c := store.ControlResult{Status: store.ResultCompliant}
	if got := classify(true, b, true, c); got != ClassUnchanged {
		t.Fatalf("got %s, want unchanged", got)
	}
}

func TestClassifyDegradedWhenCompliantToNonCompliant(t *testing.T) {
	b := store.ControlResult{Status: store.ResultCompliant}
	c := store.ControlResult{Status: store.ResultNonCompliant}
	if got := classify(true, b, true, c); got != ClassDegraded {
		t.Fatalf("got %s, want degraded", got)
	}
}

func TestClassifyResolvedWhenNonCompliantToCompliant(t *testing.T) {
	b := store.ControlResult{Status: store.ResultNonCompliant}
	c := store.ControlResult{Status: store.ResultCompliant}
	if got := classify(true, b, true, c); got != ClassResolved {
		t.Fatalf("got %s, want resolved", got)
	}
}

func TestClassifyImprovedWhenNonCompliantScoreIncreases(t *testing.T) {
	b := store.ControlResult{Status: store.ResultNonCompliant, Score: 20}
	c := store.ControlResult{Status: store.ResultNonCompliant, Score: 50}
	if got := classify(true, b, true, c); got != ClassImproved {
		t.Fatalf("got %s, want improved", got)
	}
}

func TestClassifyDegradedWhenNonCompliantScoreDecreases(t *testing.T) {
	b := store.ControlResult{Status: store.ResultNonCompliant, Score: 50}
	c := store.ControlResult{Status: store.ResultNonCompliant, Score: 20}
	if got := classify(true, b, true, c); got != ClassDegraded {
		t.Fatalf("got %s, want degraded", got)
	}
}

func TestClassifyNewIssueWhenAbsentThenNonCompliant(t *testing.T) {
	c := store.ControlResult{Status: store.ResultNonCompliant}
	if got := classify(false, store.ControlResult{}, true, c); got != ClassNewIssue {
		t.Fatalf("got %s, want newIssues", got)
	}
}

func TestClassifyResolvedWhenNonCompliantThenAbsent(t *testing.T) {
	b := store.ControlResult{Status: store.ResultNonCompliant}
	if got := classify(true, b, false, store.ControlResult{}); got != ClassResolved {
		t.Fatalf("got %s, want resolved", got)
	}
}

func TestClassifyTrend(t *testing.T) {
	cases := []struct {
		change float64
		want   Trend
	}{
		{3, TrendImproving},
		{2, TrendStable},
		{-3, TrendDeclining},
		{-2, TrendStable},
		{0, TrendStable},
	}
	for _, tc := range cases {
		if got := classifyTrend(tc.change); got != tc.want {
			t.Errorf("classifyTrend(%v) = %s, want %s", tc.change, got, tc.want)
		}
	}
}

func TestClassifySignificance(t *testing.T) {
	cases := []struct {
		change float64
		want   Significance
	}{
		{10, SignificanceMajor},
		{-12, SignificanceMajor},
		{5, SignificanceModerate},
		{-7, SignificanceModerate},
		{4.9, SignificanceMinor},
		{0, SignificanceMinor},
	}
	for _, tc := range cases {
		if got := classifySignificance(tc.change); got != tc.want {
			t.Errorf("classifySignificance(%v) = %s, want %s", tc.change, got, tc.want)
		}
	}
}
