package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UpsertControlResult writes a ControlResult. Invariant: at most one result
// per (assessmentId, controlDefinitionId) — enforced via ON CONFLICT, which
// also makes the engine idempotent when a worker retries a partially-run
// assessment after a crash (spec §9).
func (s *Store) UpsertControlResult(ctx context.Context, r *ControlResult) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO maes.control_results
			(id, assessment_id, control_definition_id, benchmark_kind, status, score,
			 actual_result, evidence, remediation_guidance, error_message, checked_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (assessment_id, control_definition_id) DO UPDATE SET
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			actual_result = EXCLUDED.actual_result,
			evidence = EXCLUDED.evidence,
			remediation_guidance = EXCLUDED.remediation_guidance,
			error_message = EXCLUDED.error_message,
			checked_at = EXCLUDED.checked_at`,
		r.ID, r.AssessmentID, r.ControlDefinitionID, r.BenchmarkKind, r.Status, r.Score,
		r.ActualResult, BoundEvidence(r.Evidence), r.RemediationGuidance, r.ErrorMessage, r.CheckedAt)
	if err != nil {
		return fmt.Errorf("upserting control result: %w", err)
	}
	return nil
}

// ListControlResults returns every result for an assessment, ordered by
// control id for deterministic report rendering.
func (s *Store) ListControlResults(ctx context.Context, assessmentID uuid.UUID) ([]ControlResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, assessment_id, control_definition_id, benchmark_kind, status, score,
		       actual_result, evidence, remediation_guidance, error_message, checked_at
		FROM maes.control_results
		WHERE assessment_id = $1
		ORDER BY control_definition_id ASC`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("listing control results: %w", err)
	}
	defer rows.Close()

	var out []ControlResult
	for rows.Next() {
		var r ControlResult
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.ControlDefinitionID, &r.BenchmarkKind,
			&r.Status, &r.Score, &r.ActualResult, &r.Evidence, &r.RemediationGuidance,
			&r.ErrorMessage, &r.CheckedAt); err != nil {
			return nil, fmt.Errorf("scanning control result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetControlResultsByDefinition indexes an assessment's results by control id,
// used by the Comparator to diff two assessments.
func (s *Store) GetControlResultsByDefinition(ctx context.Context, assessmentID uuid.UUID) (map[string]ControlResult, error) {
	results, err := s.ListControlResults(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ControlResult, len(results))
	for _, r := range results {
		out[r.ControlDefinitionID] = r
	}
	return out, nil
}
