package report

import (
	"encoding/json"
	"time"

	"github.com/maes-platform/compliance-core/internal/store"
)

// entry is one control's row in every rendered format (spec §4.H "per-control
// entries").
type entry struct {
	ControlID            string          `json:"id"`
	Section              string          `json:"section"`
	Title                string          `json:"title"`
	Severity             store.Severity  `json:"severity"`
	Weight               float64         `json:"weight"`
	Status               string          `json:"status"`
	Score                float64         `json:"score"`
	ActualResult         json.RawMessage `json:"actualResult,omitempty"`
	Evidence             json.RawMessage `json:"evidence,omitempty"`
	RemediationGuidance  string          `json:"remediationGuidance,omitempty"`
	ErrorMessage         string          `json:"errorMessage,omitempty"`
	CheckedAt            time.Time       `json:"checkedAt,omitempty"`
}

func toEntry(c store.ControlDefinition, r store.ControlResult, hasResult bool) entry {
	e := entry{
		ControlID: c.ID,
		Section:   c.Section,
		Title:     c.Title,
		Severity:  c.Severity,
		Weight:    c.Weight,
	}
	if hasResult {
		e.Status = string(r.Status)
		e.Score = r.Score
		e.ActualResult = r.ActualResult
		e.Evidence = r.Evidence
		e.RemediationGuidance = c.Remediation
		e.ErrorMessage = r.ErrorMessage
		e.CheckedAt = r.CheckedAt
	}
	return e
}

func entries(in renderInput) []entry {
	out := make([]entry, 0, len(in.controls))
	for _, c := range in.controls {
		r, ok := in.results[c.ID]
		out = append(out, toEntry(c, r, ok))
	}
	return out
}
