// Package assessment implements Component C (spec §4.C): the Assessment
// Engine that drives one benchmark run against one tenant.
package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/apperr"
	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/catalog"
	"github.com/maes-platform/compliance-core/pkg/checker"
	"github.com/maes-platform/compliance-core/pkg/graphclient"
)

// ProgressFunc receives a progress callback (0..100) during a run, used by
// the Worker Pool to relay updates to the Job Queue (spec §4.E).
type ProgressFunc func(ctx context.Context, progress int)

// Options parameterizes one run.
type Options struct {
	Name        string
	TriggeredBy string
	OnProgress  ProgressFunc
}

// Summary is the terminal outcome of a run.
type Summary struct {
	Assessment store.Assessment
	Results    []store.ControlResult
}

// Engine runs benchmarks against tenants (spec §4.C "Contract").
type Engine struct {
	store   *store.Store
	catalog *catalog.Catalog
	graph   *graphclient.Factory
	log     *slog.Logger
}

// New builds an Engine.
func New(s *store.Store, c *catalog.Catalog, graph *graphclient.Factory, log *slog.Logger) *Engine {
	return &Engine{store: s, catalog: c, graph: graph, log: log}
}

// Run executes steps 1-7 of spec §4.C's algorithm. cancel is checked before
// each control; observing it done transitions the assessment to cancelled
// and returns the partial summary without an error.
//
// assessmentID is the idempotence key (spec §4.D "Idempotence key is the
// assessment ID"): if it already names a terminal assessment (completed,
// failed, or cancelled), Run returns that prior outcome unchanged instead
// of re-running the benchmark, so an at-least-once queue redelivery after
// a worker crash near the end of a run cannot corrupt totals by re-scoring
// under a brand-new id. A zero id mints a fresh one.
func (e *Engine) Run(ctx context.Context, assessmentID uuid.UUID, tenant store.Tenant, benchmarkKind store.BenchmarkKind, opts Options) (*Summary, error) {
	if assessmentID == uuid.Nil {
		assessmentID = uuid.New()
	}

	if existing, err := e.store.GetAssessment(ctx, assessmentID); err == nil && isTerminal(existing.Status) {
		results, rerr := e.store.ListControlResults(ctx, assessmentID)
		if rerr != nil {
			return nil, fmt.Errorf("loading prior control results: %w", rerr)
		}
		e.log.Info("assessment already terminal, returning prior outcome", "assessmentId", assessmentID, "status", existing.Status)
		return &Summary{Assessment: *existing, Results: results}, nil
	}

	now := time.Now().UTC()
	a := &store.Assessment{
		ID:            assessmentID,
		TenantID:      tenant.ID,
		BenchmarkKind: benchmarkKind,
		Name:          opts.Name,
		TriggeredBy:   opts.TriggeredBy,
		Status:        store.StatusPending,
	}
	if err := e.store.CreateAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("creating assessment: %w", err)
	}
	e.log.Info("assessment created", "assessmentId", a.ID, "tenantId", tenant.ID, "benchmarkKind", benchmarkKind)

	if err := e.store.UpdateAssessmentStatus(ctx, a.ID, store.StatusRunning, 5, &now, nil, ""); err != nil {
		return nil, fmt.Errorf("transitioning assessment to running: %w", err)
	}
	a.Status = store.StatusRunning
	a.Progress = 5
	a.StartedAt = &now

	client, probeReport, capErr := e.acquireClient(ctx, tenant)
	if capErr != nil {
		// AuthError from the Factory fails the enclosing assessment (spec §7).
		return e.fail(ctx, a, capErr)
	}
	e.recordCapabilityProbe(ctx, a, probeReport)

	controls, err := e.catalog.ActiveControls(ctx, benchmarkKind)
	if err != nil {
		return e.fail(ctx, a, fmt.Errorf("loading catalog: %w", err))
	}
	if len(controls) == 0 {
		return e.fail(ctx, a, apperr.ErrEmptyBenchmark)
	}

	totals := store.Totals{}
	results := make([]store.ControlResult, 0, len(controls))
	var lastProgressEmit time.Time

	for i, control := range controls {
		select {
		case <-ctx.Done():
			return e.cancel(ctx, a, totals, results)
		default:
		}

		res := e.evaluate(ctx, client, control)
		cr := store.ControlResult{
			ID:                  uuid.New(),
			AssessmentID:        a.ID,
			ControlDefinitionID: control.ID,
			BenchmarkKind:       benchmarkKind,
			Status:              res.Status,
			Score:               res.Score,
			RemediationGuidance: res.RemediationGuidance,
			ErrorMessage:        res.ErrorMessage,
			CheckedAt:           time.Now().UTC(),
		}
		cr.ActualResult = marshalOrNil(res.ActualResult)
		cr.Evidence = store.BoundEvidence(marshalOrNil(res.Evidence))

		if err := e.store.UpsertControlResult(ctx, &cr); err != nil {
			e.log.Error("persisting control result", "assessmentId", a.ID, "controlId", control.ID, "err", err)
		}
		results = append(results, cr)
		tallyInto(&totals, res.Status)

		progress := 5 + int(math.Floor(float64(i+1)/float64(len(controls))*90))
		if progress > 95 {
			progress = 95
		}
		if opts.OnProgress != nil && time.Since(lastProgressEmit) >= time.Second {
			opts.OnProgress(ctx, progress)
			lastProgressEmit = time.Now()
		}
		if err := e.store.UpdateAssessmentProgress(ctx, a.ID, progress); err != nil {
			e.log.Warn("updating assessment progress", "assessmentId", a.ID, "err", err)
		}
	}

	overallScore, weightedScore := computeScores(controls, results)
	completedAt := time.Now().UTC()
	a.Totals = totals
	a.OverallScore = overallScore
	a.WeightedScore = weightedScore
	a.Status = store.StatusCompleted
	a.Progress = 100
	a.CompletedAt = &completedAt

	if err := e.store.FinalizeAssessment(ctx, a.ID, totals, overallScore, weightedScore, completedAt); err != nil {
		return nil, fmt.Errorf("finalizing assessment: %w", err)
	}
	if opts.OnProgress != nil {
		opts.OnProgress(ctx, 100)
	}

	return &Summary{Assessment: *a, Results: results}, nil
}

func (e *Engine) evaluate(ctx context.Context, client *graphclient.Client, control store.ControlDefinition) checker.Result {
	chk, ok := e.catalog.CheckerFor(control.CheckerKey)
	if !ok {
		return checker.NoCheckerResult()
	}

	// A panic inside a checker must not take down the worker; record it as
	// a per-control error and keep going (spec §4.C step 7).
	resultCh := make(chan checker.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- checker.Result{
					Status:       store.ResultError,
					ErrorMessage: fmt.Sprintf("checker panic: %v", r),
				}
			}
		}()
		resultCh <- chk.Check(ctx, client, control)
	}()
	return <-resultCh
}

func (e *Engine) acquireClient(ctx context.Context, tenant store.Tenant) (*graphclient.Client, graphclient.CapabilityReport, error) {
	client, err := e.graph.ForTenant(ctx, tenant.ID.String(), tenant.DirectoryTenantID, tenant.Credentials)
	if err != nil {
		return nil, graphclient.CapabilityReport{}, fmt.Errorf("%w: %v", apperr.ErrAuth, err)
	}
	report := graphclient.ProbeCapabilities(ctx, client)
	return client, report, nil
}

func (e *Engine) recordCapabilityProbe(ctx context.Context, a *store.Assessment, report graphclient.CapabilityReport) {
	params, err := json.Marshal(map[string]any{"capabilityProbe": report})
	if err != nil {
		return
	}
	if err := e.store.SetAssessmentParameters(ctx, a.ID, params); err != nil {
		e.log.Warn("recording capability probe", "assessmentId", a.ID, "err", err)
	}
}

func (e *Engine) fail(ctx context.Context, a *store.Assessment, cause error) (*Summary, error) {
	now := time.Now().UTC()
	msg := cause.Error()
	if err := e.store.UpdateAssessmentStatus(ctx, a.ID, store.StatusFailed, a.Progress, nil, &now, msg); err != nil {
		return nil, fmt.Errorf("marking assessment failed: %w", err)
	}
	a.Status = store.StatusFailed
	a.ErrorMessage = msg
	a.CompletedAt = &now
	return &Summary{Assessment: *a}, nil
}

func (e *Engine) cancel(ctx context.Context, a *store.Assessment, totals store.Totals, results []store.ControlResult) (*Summary, error) {
	now := time.Now().UTC()
	if err := e.store.UpdateAssessmentStatus(ctx, a.ID, store.StatusCancelled, a.Progress, nil, &now, ""); err != nil {
		return nil, fmt.Errorf("marking assessment cancelled: %w", err)
	}
	a.Status = store.StatusCancelled
	a.Totals = totals
	a.CompletedAt = &now
	return &Summary{Assessment: *a, Results: results}, nil
}

func isTerminal(s store.AssessmentStatus) bool {
	switch s {
	case store.StatusCompleted, store.StatusFailed, store.StatusCancelled:
		return true
	default:
		return false
	}
}

func tallyInto(t *store.Totals, status store.ControlResultStatus) {
	t.Total++
	switch status {
	case store.ResultCompliant:
		t.Compliant++
	case store.ResultNonCompliant:
		t.NonCompliant++
	case store.ResultManualReview:
		t.ManualReview++
	case store.ResultNotApplicable:
		t.NotApplicable++
	case store.ResultError:
		t.Error++
	}
}

// computeScores implements spec §4.C's scoring formulas, rounded half-up
// to 0.01.
func computeScores(controls []store.ControlDefinition, results []store.ControlResult) (overall, weighted float64) {
	weightByID := make(map[string]float64, len(controls))
	for _, c := range controls {
		weightByID[c.ID] = c.EffectiveWeight()
	}

	var evaluated, compliant int
	var weightSum, weightedScoreSum float64
	for _, r := range results {
		if r.Status == store.ResultNotApplicable {
			continue
		}
		evaluated++
		if r.Status == store.ResultCompliant {
			compliant++
		}
		w := weightByID[r.ControlDefinitionID]
		if w <= 0 {
			w = 1.0
		}
		weightSum += w
		weightedScoreSum += (r.Score / 100) * w
	}

	if evaluated > 0 {
		overall = roundHalfUp(100 * float64(compliant) / float64(evaluated))
	}
	if weightSum > 0 {
		weighted = roundHalfUp(100 * weightedScoreSum / weightSum)
	}
	return overall, weighted
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func marshalOrNil(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
