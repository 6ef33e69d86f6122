package assessment

import (
	"testing"

	"github.com/maes-platform/compliance-core/internal/store"
)

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{66.666, 66.67},
		{66.664, 66.66},
		{100, 100},
		{0, 0},
		{33.335, 33.34},
	}
	for _, tc := range cases {
		if got := roundHalfUp(tc.in); got != tc.want {
			t.Errorf("roundHalfUp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTallyInto(t *testing.T) {
	var totals store.Totals
	statuses := []store.ControlResultStatus{
		store.ResultCompliant, store.ResultCompliant, store.ResultNonCompliant,
		store.ResultManualReview, store.ResultNotApplicable, store.ResultError,
	}
	for _, s := range statuses {
		tallyInto(&totals, s)
	}
	if totals.Total != 6 {
		t.Fatalf("expected total 6, got %d", totals.Total)
	}
	if totals.Compliant != 2 || totals.NonCompliant != 1 || totals.ManualReview != 1 ||
		totals.NotApplicable != 1 || totals.Error != 1 {
		t.Fatalf("unexpected tally: %+v", totals)
	}
}

func TestComputeScoresExcludesNotApplicable(t *testing.T) {
	controls := []store.ControlDefinition{
		{ID: "1", Weight: 1.0, Severity: store.SeverityLevel1},
		{ID: "2", Weight: 1.0, Severity: store.SeverityLevel2},
		{ID: "3", Weight: 1.0, Severity: store.SeverityLevel1},
	}
	results := []store.ControlResult{
		{ControlDefinitionID: "1", Status: store.ResultCompliant, Score: 100},
		{ControlDefinitionID: "2", Status: store.ResultNonCompliant, Score: 0},
		{ControlDefinitionID: "3", Status: store.ResultNotApplicable, Score: 0},
	}

	overall, weighted := computeScores(controls, results)

	// evaluated = 2 (control 3 excluded); compliant = 1 => overall 50.
	if overall != 50 {
		t.Fatalf("expected overallScore 50, got %v", overall)
	}
	// weightSum = 1.0 + 1.5 = 2.5; weightedScoreSum = 1.0*1.0 + 0*1.5 = 1.0
	// weighted = 100 * 1.0 / 2.5 = 40
	if weighted != 40 {
		t.Fatalf("expected weightedScore 40, got %v", weighted)
	}
}

func TestComputeScoresAllNotApplicableYieldsZero(t *testing.T) {
	controls := []store.ControlDefinition{{ID: "1", Weight: 1.0}}
	results := []store.ControlResult{{ControlDefinitionID: "1", Status: store.ResultNotApplicable}}

	overall, weighted := computeScores(controls, results)
	if overall != 0 || weighted != 0 {
		t.Fatalf("expected 0/0 for an all-notApplicable run, got %v/%v", overall, weighted)
	}
}

func TestComputeScoresDefaultsMissingWeightToOne(t *testing.T) {
	// A result referencing a control id not in the catalog snapshot (e.g.
	// deactivated mid-run) must not panic or contribute a zero weight.
	controls := []store.ControlDefinition{{ID: "1", Weight: 1.0}}
	results := []store.ControlResult{
		{ControlDefinitionID: "1", Status: store.ResultCompliant, Score: 100},
		{ControlDefinitionID: "missing", Status: store.ResultCompliant, Score: 100},
	}

	overall, weighted := computeScores(controls, results)
	if overall != 100 {
		t.Fatalf("expected overallScore 100, got %v", overall)
	}
	if weighted != 100 {
		t.Fatalf("expected weightedScore 100, got %v", weighted)
	}
}
