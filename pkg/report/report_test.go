package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/maes-platform/compliance-core/internal/store"
)

func sampleInput() renderInput {
	controls := []store.ControlDefinition{
		{ID: "1.1.1", Section: "Identity", Title: "MFA for admins", Severity: store.SeverityLevel2, Weight: 10, Remediation: "Enable MFA"},
		{ID: "1.1.2", Section: "Identity", Title: "CA requires MFA", Severity: store.SeverityLevel1, Weight: 8},
		{ID: "1.2.1", Section: "Apps", Title: "App registration review", Severity: store.SeverityLevel1, Weight: 5},
	}
	results := map[string]store.ControlResult{
		"1.1.1": {Status: store.ResultNonCompliant, Score: 0, CheckedAt: time.Date(2026, 7, 30, 2, 0, 0, 0, time.UTC)},
		"1.1.2": {Status: store.ResultCompliant, Score: 100, CheckedAt: time.Date(2026, 7, 30, 2, 0, 1, 0, time.UTC)},
		"1.2.1": {Status: store.ResultManualReview, Score: 50, CheckedAt: time.Date(2026, 7, 30, 2, 0, 2, 0, time.UTC)},
	}
	return renderInput{
		assessment: store.Assessment{
			BenchmarkKind: store.BenchmarkCISv4,
			OverallScore:  66.67,
			WeightedScore: 60,
			Totals:        store.Totals{Total: 3, Compliant: 1, NonCompliant: 1, ManualReview: 1},
		},
		tenantName:  "Contoso",
		controls:    controls,
		results:     results,
		kind:        store.ReportFull,
		generatedAt: time.Date(2026, 7, 31, 3, 0, 0, 0, time.UTC),
	}
}

func TestRecommendationsIncludesCriticalWhenLevel2NonCompliant(t *testing.T) {
	in := sampleInput()
	recs := recommendations(in.assessment, in.controls, in.results)
	found := false
	for _, r := range recs {
		if r.Priority == "critical" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a critical recommendation, got %+v", recs)
	}
}

func TestRecommendationsIncludesManualReviewAndLowScore(t *testing.T) {
	in := sampleInput()
	recs := recommendations(in.assessment, in.controls, in.results)
	var titles []string
	for _, r := range recs {
		titles = append(titles, r.Title)
	}
	joined := strings.Join(titles, "|")
	if !strings.Contains(joined, "Manual Reviews") {
		t.Errorf("expected manual review recommendation, got %v", titles)
	}
	if !strings.Contains(joined, "Improve Overall Compliance Posture") {
		t.Errorf("expected low score recommendation, got %v", titles)
	}
}

func TestRecommendationsOmitsLowScoreWhenAboveThreshold(t *testing.T) {
	in := sampleInput()
	in.assessment.OverallScore = 95
	in.assessment.Totals.ManualReview = 0
	in.results["1.1.1"] = store.ControlResult{Status: store.ResultCompliant, Score: 100}
	recs := recommendations(in.assessment, in.controls, in.results)
	for _, r := range recs {
		if strings.Contains(r.Title, "Improve Overall") {
			t.Fatalf("did not expect low-score recommendation, got %+v", recs)
		}
	}
}

func TestCriticalFindingsRespectsLimitAndSeverity(t *testing.T) {
	in := sampleInput()
	findings := criticalFindings(in.controls, in.results, 10)
	if len(findings) != 1 || findings[0].ControlID != "1.1.1" {
		t.Fatalf("expected exactly control 1.1.1, got %+v", findings)
	}
}

func TestBySectionAggregatesCompliantCounts(t *testing.T) {
	in := sampleInput()
	stats := bySection(in.controls, in.results)
	if stats["Identity"].Total != 2 || stats["Identity"].Compliant != 1 {
		t.Fatalf("unexpected Identity stats: %+v", stats["Identity"])
	}
	if stats["Apps"].Total != 1 || stats["Apps"].Compliant != 0 {
		t.Fatalf("unexpected Apps stats: %+v", stats["Apps"])
	}
}

func TestRenderJSONProducesValidDocument(t *testing.T) {
	in := sampleInput()
	raw, err := renderJSON(in)
	if err != nil {
		t.Fatalf("renderJSON: %v", err)
	}
	var doc jsonDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshalling rendered json: %v", err)
	}
	if len(doc.Controls) != 3 {
		t.Fatalf("expected 3 controls, got %d", len(doc.Controls))
	}
}

func TestRenderJSONExecutiveOnlyOmitsControls(t *testing.T) {
	in := sampleInput()
	in.opts.ExecutiveOnly = true
	raw, err := renderJSON(in)
	if err != nil {
		t.Fatalf("renderJSON: %v", err)
	}
	var doc jsonDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshalling: %v", err)
	}
	if len(doc.Controls) != 0 {
		t.Fatalf("expected no control rows in executive mode, got %d", len(doc.Controls))
	}
}

func TestRenderCSVHasFixedHeaderAndRowPerControl(t *testing.T) {
	in := sampleInput()
	raw, err := renderCSV(in)
	if err != nil {
		t.Fatalf("renderCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 4 { // header + 3 controls
		t.Fatalf("expected 4 lines, got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "Control ID,Section,Title,Severity,Weight,Status,Score,Remediation,Error,CheckedAt") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
}

func TestRenderHTMLIsSelfContained(t *testing.T) {
	in := sampleInput()
	htmlDoc := renderHTML(in)
	if !strings.Contains(htmlDoc, "<style>") {
		t.Fatalf("expected inline styles in html output")
	}
	if strings.Contains(htmlDoc, "<link") || strings.Contains(htmlDoc, "<script src") {
		t.Fatalf("expected no external asset references")
	}
	if !strings.Contains(htmlDoc, "Contoso") {
		t.Fatalf("expected tenant name in output")
	}
}

func TestExtensionForKnownFormats(t *testing.T) {
	cases := map[store.ReportFormat]string{
		store.ReportJSON: "json",
		store.ReportCSV:  "csv",
		store.ReportHTML: "html",
		store.ReportPDF:  "pdf",
	}
	for format, want := range cases {
		if got := extensionFor(format); got != want {
			t.Errorf("extensionFor(%s) = %s, want %s", format, got, want)
		}
	}
}
