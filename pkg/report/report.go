// Package report implements Component H (spec §4.H): rendering a completed
// assessment into a durable artifact (JSON/CSV/HTML/PDF) on disk.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/apperr"
	"github.com/maes-platform/compliance-core/internal/store"
)

// Options tunes report rendering. ExecutiveOnly omits the per-control rows:
// the full results table in HTML/PDF and the controls array in JSON. CSV
// output is unaffected.
type Options struct {
	ExecutiveOnly bool
}

// Generator renders Assessment + ControlResult rows into artifact files and
// records their catalog entries.
type Generator struct {
	store      *store.Store
	reportsDir string
	chromeURL  string
	log        *slog.Logger
}

// New builds a Generator. chromeRemoteURL may be empty, in which case PDF
// rendering launches a local headless Chrome; if rendering fails, PDF
// requests fall back to HTML (spec §4.H "If unavailable, fall back to HTML").
func New(s *store.Store, reportsDir, chromeRemoteURL string, log *slog.Logger) *Generator {
	return &Generator{store: s, reportsDir: reportsDir, chromeURL: chromeRemoteURL, log: log}
}

// renderInput bundles everything every format renderer needs.
type renderInput struct {
	assessment store.Assessment
	tenantName string
	controls   []store.ControlDefinition
	results    map[string]store.ControlResult
	kind       store.ReportKind
	opts       Options
	generatedAt time.Time
}

// Generate renders assessmentId into the requested format and persists the
// artifact (spec §4.H "generate(assessmentId, format, kind, options) →
// ReportArtifact").
func (g *Generator) Generate(ctx context.Context, assessmentID uuid.UUID, format store.ReportFormat, kind store.ReportKind, opts Options) (*store.Report, error) {
	a, err := g.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("loading assessment: %w", err)
	}
	if a.Status != store.StatusCompleted {
		return nil, fmt.Errorf("%w: assessment is not completed", apperr.ErrNotReady)
	}

	tenant, err := g.store.GetTenant(ctx, a.TenantID)
	if err != nil {
		return nil, fmt.Errorf("loading tenant: %w", err)
	}

	controls, err := g.store.ListActiveControls(ctx, a.BenchmarkKind)
	if err != nil {
		return nil, fmt.Errorf("loading control catalog: %w", err)
	}
	sort.Slice(controls, func(i, j int) bool { return controls[i].ID < controls[j].ID })

	results, err := g.store.GetControlResultsByDefinition(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("loading control results: %w", err)
	}

	in := renderInput{
		assessment:  *a,
		tenantName:  tenant.DisplayName,
		controls:    controls,
		results:     results,
		kind:        kind,
		opts:        opts,
		generatedAt: time.Now().UTC(),
	}

	effectiveFormat := format
	var payload []byte
	var note string
	switch format {
	case store.ReportJSON:
		payload, err = renderJSON(in)
	case store.ReportCSV:
		payload, err = renderCSV(in)
	case store.ReportHTML:
		payload, err = []byte(renderHTML(in)), nil
	case store.ReportPDF:
		payload, note, err = g.renderPDFWithFallback(ctx, in)
	default:
		return nil, fmt.Errorf("%w: unsupported report format %q", apperr.ErrValidation, format)
	}
	if err != nil {
		return nil, fmt.Errorf("rendering %s report: %w", format, err)
	}
	_ = note // recorded via logging only; ReportArtifact has no dedicated note column

	ext := extensionFor(format)
	if format == store.ReportPDF && note != "" {
		ext = extensionFor(store.ReportHTML)
	}
	fileName := fmt.Sprintf("%s_%d.%s", assessmentID, in.generatedAt.UnixMilli(), ext)

	if err := os.MkdirAll(g.reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports directory: %w", err)
	}
	artifactPath := filepath.Join(g.reportsDir, fileName)
	if err := writeAtomic(artifactPath, payload); err != nil {
		return nil, fmt.Errorf("writing report artifact: %w", err)
	}

	r := &store.Report{
		AssessmentID: assessmentID,
		Format:       effectiveFormat,
		Kind:         kind,
		ArtifactPath: artifactPath,
		FileName:     fileName,
		SizeBytes:    int64(len(payload)),
	}
	if err := g.store.CreateReport(ctx, r); err != nil {
		return nil, fmt.Errorf("recording report: %w", err)
	}
	return r, nil
}

// Cleanup removes artifacts (file + catalog row) older than maxAge (spec
// §4.H "cleanup(maxAgeMs) → deletedCount").
func (g *Generator) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	stale, err := g.store.ListReportsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing stale reports: %w", err)
	}

	deleted := 0
	for _, r := range stale {
		if err := os.Remove(r.ArtifactPath); err != nil && !os.IsNotExist(err) {
			g.log.Warn("removing stale report file", "path", r.ArtifactPath, "err", err)
			continue
		}
		if err := g.store.DeleteReport(ctx, r.ID); err != nil {
			g.log.Warn("deleting stale report row", "id", r.ID, "err", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

func extensionFor(format store.ReportFormat) string {
	switch format {
	case store.ReportJSON:
		return "json"
	case store.ReportCSV:
		return "csv"
	case store.ReportHTML:
		return "html"
	case store.ReportPDF:
		return "pdf"
	default:
		return "bin"
	}
}

// writeAtomic writes to a temp file in the same directory and renames over
// the destination, so a crash mid-write never leaves a partial artifact.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
