// Package comparator implements Component G (spec §4.G): diffing two
// completed assessments of the same tenant control-by-control.
package comparator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/apperr"
	"github.com/maes-platform/compliance-core/internal/store"
)

// Class is the per-control classification assigned by comparing a baseline
// result against a current one (spec §4.G classification table).
type Class string

const (
	ClassUnchanged Class = "unchanged"
	ClassDegraded  Class = "degraded"
	ClassResolved  Class = "resolved"
	ClassImproved  Class = "improved"
	ClassNewIssue  Class = "newIssues"
)

// Trend summarizes the direction of scoreChange.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Significance buckets the magnitude of scoreChange.
type Significance string

const (
	SignificanceMajor    Significance = "major"
	SignificanceModerate Significance = "moderate"
	SignificanceMinor    Significance = "minor"
)

// ControlDiff is one control's classification across the two assessments.
type ControlDiff struct {
	ControlDefinitionID string                    `json:"controlDefinitionId"`
	BaselineStatus      store.ControlResultStatus `json:"baselineStatus,omitempty"`
	CurrentStatus       store.ControlResultStatus `json:"currentStatus,omitempty"`
	ScoreChange         float64                   `json:"scoreChange"`
	Class               Class                     `json:"class"`
}

// Diff is the comparator's full output (spec §4.G "compare(baselineId,
// currentId) → Diff").
type Diff struct {
	BaselineAssessmentID uuid.UUID     `json:"baselineAssessmentId"`
	CurrentAssessmentID  uuid.UUID     `json:"currentAssessmentId"`
	Controls             []ControlDiff `json:"controls"`
	Counts               map[Class]int `json:"counts"`
	ScoreChange          float64       `json:"scoreChange"`
	WeightedScoreChange  float64       `json:"weightedScoreChange"`
	Trend                Trend         `json:"trend"`
	Significance         Significance  `json:"significance"`
}

// Comparator compares two assessments' persisted control results.
type Comparator struct {
	store *store.Store
}

// New builds a Comparator.
func New(s *store.Store) *Comparator {
	return &Comparator{store: s}
}

// Compare diffs the baseline assessment against the current one, control by
// control (spec §4.G).
func (c *Comparator) Compare(ctx context.Context, baselineID, currentID uuid.UUID) (*Diff, error) {
	baseline, err := c.store.GetAssessment(ctx, baselineID)
	if err != nil {
		return nil, fmt.Errorf("loading baseline assessment: %w", err)
	}
	current, err := c.store.GetAssessment(ctx, currentID)
	if err != nil {
		return nil, fmt.Errorf("loading current assessment: %w", err)
	}
	if baseline.Status != store.StatusCompleted || current.Status != store.StatusCompleted {
		return nil, fmt.Errorf("%w: both assessments must be completed to compare", apperr.ErrNotReady)
	}

	baselineResults, err := c.store.GetControlResultsByDefinition(ctx, baselineID)
	if err != nil {
		return nil, fmt.Errorf("loading baseline results: %w", err)
	}
	currentResults, err := c.store.GetControlResultsByDefinition(ctx, currentID)
	if err != nil {
		return nil, fmt.Errorf("loading current results: %w", err)
	}

	controlIDs := make(map[string]struct{}, len(baselineResults)+len(currentResults))
	for id := range baselineResults {
		controlIDs[id] = struct{}{}
	}
	for id := range currentResults {
		controlIDs[id] = struct{}{}
	}

	diff := &Diff{
		BaselineAssessmentID: baselineID,
		CurrentAssessmentID:  currentID,
		Counts:               map[Class]int{},
	}

	for id := range controlIDs {
		b, hasBaseline := baselineResults[id]
		cur, hasCurrent := currentResults[id]

		cd := ControlDiff{ControlDefinitionID: id}
		if hasBaseline {
			cd.BaselineStatus = b.Status
		}
		if hasCurrent {
			cd.CurrentStatus = cur.Status
		}
		if hasBaseline && hasCurrent {
			cd.ScoreChange = cur.Score - b.Score
		}
		cd.Class = classify(hasBaseline, b, hasCurrent, cur)
		diff.Counts[cd.Class]++
		diff.Controls = append(diff.Controls, cd)
	}

	diff.ScoreChange = current.OverallScore - baseline.OverallScore
	diff.WeightedScoreChange = current.WeightedScore - baseline.WeightedScore
	diff.Trend = classifyTrend(diff.ScoreChange)
	diff.Significance = classifySignificance(diff.ScoreChange)

	return diff, nil
}

// classify implements the spec §4.G classification table.
func classify(hasBaseline bool, baseline store.ControlResult, hasCurrent bool, current store.ControlResult) Class {
	switch {
	case !hasBaseline && hasCurrent && current.Status == store.ResultNonCompliant:
		return ClassNewIssue
	case hasBaseline && !hasCurrent && baseline.Status == store.ResultNonCompliant:
		return ClassResolved
	case hasBaseline && hasCurrent && baseline.Status == store.ResultCompliant && current.Status == store.ResultCompliant:
		return ClassUnchanged
	case hasBaseline && hasCurrent && baseline.Status == store.ResultCompliant && current.Status == store.ResultNonCompliant:
		return ClassDegraded
	case hasBaseline && hasCurrent && baseline.Status == store.ResultNonCompliant && current.Status == store.ResultCompliant:
		return ClassResolved
	case hasBaseline && hasCurrent && baseline.Status == store.ResultNonCompliant && current.Status == store.ResultNonCompliant:
		switch {
		case current.Score-baseline.Score > 0:
			return ClassImproved
		case current.Score-baseline.Score < 0:
			return ClassDegraded
		default:
			return ClassUnchanged
		}
	default:
		return ClassUnchanged
	}
}

func classifyTrend(scoreChange float64) Trend {
	switch {
	case scoreChange > 2:
		return TrendImproving
	case scoreChange < -2:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func classifySignificance(scoreChange float64) Significance {
	abs := scoreChange
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 10:
		return SignificanceMajor
	case abs >= 5:
		return SignificanceModerate
	default:
		return SignificanceMinor
	}
}
