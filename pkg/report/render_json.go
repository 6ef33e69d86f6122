package report

import (
	"encoding/json"
	"time"

	"github.com/maes-platform/compliance-core/internal/store"
)

// jsonDocument is the canonical structured export (spec §4.H "JSON").
type jsonDocument struct {
	GeneratedAt     time.Time         `json:"generatedAt"`
	AssessmentID    string            `json:"assessmentId"`
	TenantName      string            `json:"tenantName"`
	BenchmarkKind   store.BenchmarkKind `json:"benchmarkKind"`
	Kind            store.ReportKind  `json:"reportKind"`
	OverallScore    float64           `json:"overallScore"`
	WeightedScore   float64           `json:"weightedScore"`
	Totals          store.Totals      `json:"totals"`
	Controls        []entry           `json:"controls,omitempty"`
	BySection       map[string]sectionStat `json:"bySection"`
	Recommendations []Recommendation  `json:"recommendations"`
}

type sectionStat struct {
	Total     int `json:"total"`
	Compliant int `json:"compliant"`
}

func renderJSON(in renderInput) ([]byte, error) {
	doc := jsonDocument{
		GeneratedAt:     in.generatedAt,
		AssessmentID:    in.assessment.ID.String(),
		TenantName:      in.tenantName,
		BenchmarkKind:   in.assessment.BenchmarkKind,
		Kind:            in.kind,
		OverallScore:    in.assessment.OverallScore,
		WeightedScore:   in.assessment.WeightedScore,
		Totals:          in.assessment.Totals,
		BySection:       bySection(in.controls, in.results),
		Recommendations: recommendations(in.assessment, in.controls, in.results),
	}
	if !in.opts.ExecutiveOnly {
		doc.Controls = entries(in)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func bySection(controls []store.ControlDefinition, results map[string]store.ControlResult) map[string]sectionStat {
	out := make(map[string]sectionStat)
	for _, c := range controls {
		stat := out[c.Section]
		stat.Total++
		if r, ok := results[c.ID]; ok && r.Status == store.ResultCompliant {
			stat.Compliant++
		}
		out[c.Section] = stat
	}
	return out
}
