package report

import (
	"fmt"

	"github.com/maes-platform/compliance-core/internal/store"
)

// Recommendation is one deterministic, rule-derived action item.
type Recommendation struct {
	Priority string `json:"priority"`
	Title    string `json:"title"`
}

// recommendations implements the spec §4.H "Recommendations" rule set.
func recommendations(a store.Assessment, controls []store.ControlDefinition, results map[string]store.ControlResult) []Recommendation {
	var out []Recommendation

	criticalCount := 0
	for _, c := range controls {
		r, ok := results[c.ID]
		if ok && c.Severity == store.SeverityLevel2 && r.Status == store.ResultNonCompliant {
			criticalCount++
		}
	}
	if criticalCount > 0 {
		out = append(out, Recommendation{
			Priority: "critical",
			Title:    fmt.Sprintf("Address Critical Security Controls (%d items)", criticalCount),
		})
	}

	if a.Totals.ManualReview > 0 {
		out = append(out, Recommendation{Priority: "high", Title: "Complete Manual Reviews"})
	}

	if a.OverallScore < 70 {
		out = append(out, Recommendation{Priority: "high", Title: "Improve Overall Compliance Posture"})
	}

	return out
}

// criticalFindings returns up to the given limit of level2 non-compliant
// controls, ordered by control id (spec §4.H "critical findings (level2
// non-compliant, top 10)").
func criticalFindings(controls []store.ControlDefinition, results map[string]store.ControlResult, limit int) []entry {
	var out []entry
	for _, c := range controls {
		r, ok := results[c.ID]
		if !ok || c.Severity != store.SeverityLevel2 || r.Status != store.ResultNonCompliant {
			continue
		}
		out = append(out, toEntry(c, r, ok))
		if len(out) == limit {
			break
		}
	}
	return out
}
