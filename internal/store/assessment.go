package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maes-platform/compliance-core/internal/apperr"
)

// CreateAssessment inserts a pending Assessment row (spec §4.C step 1).
// ON CONFLICT DO NOTHING makes this safe to call again with the same id:
// a worker resuming a job after a crash (spec §4.D idempotence) re-enters
// Run with the assessment id it already created and must not fail here.
func (s *Store) CreateAssessment(ctx context.Context, a *Assessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO maes.assessments
			(id, tenant_id, benchmark_kind, name, triggered_by, status, progress, parameters)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, a.TenantID, a.BenchmarkKind, a.Name, a.TriggeredBy, a.Status, a.Progress, a.Parameters)
	if err != nil {
		return fmt.Errorf("creating assessment: %w", err)
	}
	return nil
}

// GetAssessment loads an assessment by id.
func (s *Store) GetAssessment(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, benchmark_kind, name, triggered_by, status, progress,
		       total, compliant, non_compliant, manual_review, not_applicable, error_count,
		       overall_score, weighted_score, started_at, completed_at, duration_seconds,
		       error_message, parameters, created_at, updated_at
		FROM maes.assessments WHERE id = $1`, id)
	return scanAssessment(row)
}

// UpdateAssessmentStatus performs a state-machine transition (spec §4.C).
// progress and timestamps are supplied by the caller per-transition;
// GREATEST in the SET clause keeps progress from ever decreasing (spec §9).
func (s *Store) UpdateAssessmentStatus(ctx context.Context, id uuid.UUID, status AssessmentStatus, progress int, startedAt, completedAt *time.Time, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE maes.assessments SET
			status = $2,
			progress = GREATEST(progress, $3),
			started_at = COALESCE($4, started_at),
			completed_at = COALESCE($5, completed_at),
			duration_seconds = CASE WHEN $5::timestamptz IS NOT NULL AND started_at IS NOT NULL
				THEN EXTRACT(EPOCH FROM ($5::timestamptz - started_at))::int ELSE duration_seconds END,
			error_message = NULLIF($6, ''),
			updated_at = now()
		WHERE id = $1`,
		id, status, progress, startedAt, completedAt, errMsg)
	if err != nil {
		return fmt.Errorf("updating assessment status: %w", err)
	}
	return nil
}

// UpdateAssessmentProgress performs a compare-and-set progress update: the
// write only takes effect if the new value is greater than the stored one
// (spec §9 "Progress updates under concurrent readers").
func (s *Store) UpdateAssessmentProgress(ctx context.Context, id uuid.UUID, progress int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE maes.assessments SET progress = $2, updated_at = now()
		WHERE id = $1 AND $2 > progress`, id, progress)
	if err != nil {
		return fmt.Errorf("updating assessment progress: %w", err)
	}
	return nil
}

// FinalizeAssessment writes totals and scores on completion (spec §4.C step 6).
func (s *Store) FinalizeAssessment(ctx context.Context, id uuid.UUID, totals Totals, overallScore, weightedScore float64, completedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE maes.assessments SET
			status = $2,
			progress = 100,
			total = $3, compliant = $4, non_compliant = $5, manual_review = $6,
			not_applicable = $7, error_count = $8,
			overall_score = $9, weighted_score = $10,
			completed_at = $11,
			duration_seconds = CASE WHEN started_at IS NOT NULL
				THEN EXTRACT(EPOCH FROM ($11::timestamptz - started_at))::int ELSE 0 END,
			updated_at = now()
		WHERE id = $1`,
		id, StatusCompleted, totals.Total, totals.Compliant, totals.NonCompliant,
		totals.ManualReview, totals.NotApplicable, totals.Error,
		overallScore, weightedScore, completedAt)
	if err != nil {
		return fmt.Errorf("finalizing assessment: %w", err)
	}
	return nil
}

// SetAssessmentParameters overwrites the parameters column, used to record
// the capability probe outcome from the Graph Client Factory (spec §4.C
// step 3: "non-fatal if degraded").
func (s *Store) SetAssessmentParameters(ctx context.Context, id uuid.UUID, params []byte) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE maes.assessments SET parameters = $2, updated_at = now() WHERE id = $1`, id, params)
	if err != nil {
		return fmt.Errorf("setting assessment parameters: %w", err)
	}
	return nil
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	var a Assessment
	if err := row.Scan(&a.ID, &a.TenantID, &a.BenchmarkKind, &a.Name, &a.TriggeredBy, &a.Status,
		&a.Progress, &a.Totals.Total, &a.Totals.Compliant, &a.Totals.NonCompliant,
		&a.Totals.ManualReview, &a.Totals.NotApplicable, &a.Totals.Error,
		&a.OverallScore, &a.WeightedScore, &a.StartedAt, &a.CompletedAt, &a.DurationSeconds,
		&a.ErrorMessage, &a.Parameters, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("scanning assessment: %w", err)
	}
	return &a, nil
}
