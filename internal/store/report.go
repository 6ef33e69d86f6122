package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maes-platform/compliance-core/internal/apperr"
)

// CreateReport records a generated report artifact (spec §3).
func (s *Store) CreateReport(ctx context.Context, r *Report) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO maes.reports (id, assessment_id, format, kind, artifact_path, file_name, size_bytes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.AssessmentID, r.Format, r.Kind, r.ArtifactPath, r.FileName, r.SizeBytes)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	return nil
}

// ListReports returns every report artifact generated for an assessment.
func (s *Store) ListReports(ctx context.Context, assessmentID uuid.UUID) ([]Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, assessment_id, format, kind, artifact_path, file_name, size_bytes, created_at
		FROM maes.reports WHERE assessment_id = $1 ORDER BY created_at DESC`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.Format, &r.Kind, &r.ArtifactPath,
			&r.FileName, &r.SizeBytes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetReportByFileName loads a single report by assessment id + file name,
// used by the download endpoint.
func (s *Store) GetReportByFileName(ctx context.Context, assessmentID uuid.UUID, fileName string) (*Report, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, assessment_id, format, kind, artifact_path, file_name, size_bytes, created_at
		FROM maes.reports WHERE assessment_id = $1 AND file_name = $2`, assessmentID, fileName)

	var r Report
	if err := row.Scan(&r.ID, &r.AssessmentID, &r.Format, &r.Kind, &r.ArtifactPath,
		&r.FileName, &r.SizeBytes, &r.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("scanning report: %w", err)
	}
	return &r, nil
}

// ListReportsOlderThan returns reports created before the cutoff, for cleanup.
func (s *Store) ListReportsOlderThan(ctx context.Context, cutoffUnixMillis int64) ([]Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, assessment_id, format, kind, artifact_path, file_name, size_bytes, created_at
		FROM maes.reports WHERE EXTRACT(EPOCH FROM created_at) * 1000 < $1`, cutoffUnixMillis)
	if err != nil {
		return nil, fmt.Errorf("listing stale reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.Format, &r.Kind, &r.ArtifactPath,
			&r.FileName, &r.SizeBytes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteReport removes a report's catalog row (the caller removes the file).
func (s *Store) DeleteReport(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM maes.reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}
