package report

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// renderHTML builds a single self-contained document: inline styles, no
// external assets, so the artifact is viewable standalone from disk or
// passed straight to a headless browser for PDF rendering (spec §4.H
// "HTML").
func renderHTML(in renderInput) string {
	var b strings.Builder

	b.WriteString("<!doctype html><html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>Compliance Report — %s</title>", html.EscapeString(in.tenantName))
	b.WriteString(htmlStyles)
	b.WriteString("</head><body>")

	writeHeader(&b, in)
	writeSummaryCards(&b, in)
	writeCriticalFindings(&b, in)
	writeSectionBars(&b, in)
	if !in.opts.ExecutiveOnly {
		writeResultsTable(&b, in)
	}
	writeRecommendations(&b, in)

	b.WriteString("</body></html>")
	return b.String()
}

const htmlStyles = `<style>
body{font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif;margin:2rem;color:#1a1a1a}
h1,h2{border-bottom:1px solid #ddd;padding-bottom:.3rem}
.cards{display:flex;gap:1rem;flex-wrap:wrap;margin:1rem 0}
.card{border:1px solid #ddd;border-radius:8px;padding:1rem;min-width:140px}
.card .value{font-size:1.8rem;font-weight:700}
table{border-collapse:collapse;width:100%;margin:1rem 0}
th,td{border:1px solid #ddd;padding:.4rem .6rem;text-align:left;font-size:.85rem}
th{background:#f4f4f4}
.status-compliant{color:#1a7f37}
.status-nonCompliant{color:#cf222e}
.status-manualReview{color:#9a6700}
.status-notApplicable{color:#6e7781}
.status-error{color:#cf222e;font-weight:700}
.bar{background:#eee;border-radius:4px;height:10px;width:100%;overflow:hidden}
.bar-fill{background:#1a7f37;height:100%}
.badge-critical{background:#cf222e;color:#fff;padding:.1rem .5rem;border-radius:4px}
.badge-high{background:#9a6700;color:#fff;padding:.1rem .5rem;border-radius:4px}
</style>`

func writeHeader(b *strings.Builder, in renderInput) {
	fmt.Fprintf(b, "<h1>Compliance Assessment Report</h1>")
	fmt.Fprintf(b, "<p><strong>Tenant:</strong> %s<br>", html.EscapeString(in.tenantName))
	fmt.Fprintf(b, "<strong>Benchmark:</strong> %s<br>", html.EscapeString(string(in.assessment.BenchmarkKind)))
	fmt.Fprintf(b, "<strong>Generated:</strong> %s</p>", in.generatedAt.Format("2006-01-02 15:04:05 UTC"))
}

func writeSummaryCards(b *strings.Builder, in renderInput) {
	t := in.assessment.Totals
	b.WriteString(`<div class="cards">`)
	card := func(label string, value string) {
		fmt.Fprintf(b, `<div class="card"><div>%s</div><div class="value">%s</div></div>`, html.EscapeString(label), html.EscapeString(value))
	}
	card("Overall Score", fmt.Sprintf("%.2f", in.assessment.OverallScore))
	card("Weighted Score", fmt.Sprintf("%.2f", in.assessment.WeightedScore))
	card("Total Controls", fmt.Sprintf("%d", t.Total))
	card("Compliant", fmt.Sprintf("%d", t.Compliant))
	card("Non-Compliant", fmt.Sprintf("%d", t.NonCompliant))
	card("Manual Review", fmt.Sprintf("%d", t.ManualReview))
	card("Not Applicable", fmt.Sprintf("%d", t.NotApplicable))
	b.WriteString("</div>")
}

func writeCriticalFindings(b *strings.Builder, in renderInput) {
	findings := criticalFindings(in.controls, in.results, 10)
	b.WriteString("<h2>Critical Findings</h2>")
	if len(findings) == 0 {
		b.WriteString("<p>None.</p>")
		return
	}
	b.WriteString("<table><tr><th>Control</th><th>Section</th><th>Title</th></tr>")
	for _, f := range findings {
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(f.ControlID), html.EscapeString(f.Section), html.EscapeString(f.Title))
	}
	b.WriteString("</table>")
}

func writeSectionBars(b *strings.Builder, in renderInput) {
	b.WriteString("<h2>Compliance by Section</h2>")
	stats := bySection(in.controls, in.results)
	sections := make([]string, 0, len(stats))
	for s := range stats {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	for _, s := range sections {
		stat := stats[s]
		pct := 0.0
		if stat.Total > 0 {
			pct = 100 * float64(stat.Compliant) / float64(stat.Total)
		}
		fmt.Fprintf(b, `<p>%s (%d/%d)</p><div class="bar"><div class="bar-fill" style="width:%.0f%%"></div></div>`,
			html.EscapeString(s), stat.Compliant, stat.Total, pct)
	}
}

func writeResultsTable(b *strings.Builder, in renderInput) {
	b.WriteString("<h2>Full Results</h2>")
	b.WriteString("<table><tr><th>Control</th><th>Section</th><th>Title</th><th>Severity</th><th>Status</th><th>Score</th></tr>")
	for _, e := range entries(in) {
		fmt.Fprintf(b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class="status-%s">%s</td><td>%.2f</td></tr>`,
			html.EscapeString(e.ControlID), html.EscapeString(e.Section), html.EscapeString(e.Title),
			html.EscapeString(string(e.Severity)), html.EscapeString(e.Status), html.EscapeString(e.Status), e.Score)
	}
	b.WriteString("</table>")
}

func writeRecommendations(b *strings.Builder, in renderInput) {
	recs := recommendations(in.assessment, in.controls, in.results)
	b.WriteString("<h2>Recommendations</h2>")
	if len(recs) == 0 {
		b.WriteString("<p>No outstanding recommendations.</p>")
		return
	}
	b.WriteString("<ul>")
	for _, r := range recs {
		badge := "badge-high"
		if r.Priority == "critical" {
			badge = "badge-critical"
		}
		fmt.Fprintf(b, `<li><span class="%s">%s</span> %s</li>`, badge, html.EscapeString(r.Priority), html.EscapeString(r.Title))
	}
	b.WriteString("</ul>")
}
