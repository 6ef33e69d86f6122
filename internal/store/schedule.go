package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maes-platform/compliance-core/internal/apperr"
)

// CreateSchedule inserts a new schedule. Invariant: active ⇒ nextRunAt is set
// and in the future at the moment of activation (spec §3).
func (s *Store) CreateSchedule(ctx context.Context, sch *Schedule) error {
	if sch.ID == uuid.Nil {
		sch.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO maes.schedules
			(id, tenant_id, name, benchmark_kind, frequency, active, next_run_at, parameters, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sch.ID, sch.TenantID, sch.Name, sch.BenchmarkKind, sch.Frequency, sch.Active,
		sch.NextRunAt, sch.Parameters, sch.CreatedBy)
	if err != nil {
		return fmt.Errorf("creating schedule: %w", err)
	}
	return nil
}

// GetSchedule loads a schedule by id.
func (s *Store) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, benchmark_kind, frequency, active, next_run_at,
		       last_run_at, last_assessment_id, parameters, created_by, created_at, updated_at
		FROM maes.schedules WHERE id = $1`, id)
	return scanSchedule(row)
}

// ListSchedules returns every schedule for a tenant.
func (s *Store) ListSchedules(ctx context.Context, tenantID uuid.UUID) ([]Schedule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, benchmark_kind, frequency, active, next_run_at,
		       last_run_at, last_assessment_id, parameters, created_by, created_at, updated_at
		FROM maes.schedules WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sch)
	}
	return out, rows.Err()
}

// ListActiveSchedules loads every active schedule, used to arm timers on boot.
func (s *Store) ListActiveSchedules(ctx context.Context) ([]Schedule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, benchmark_kind, frequency, active, next_run_at,
		       last_run_at, last_assessment_id, parameters, created_by, created_at, updated_at
		FROM maes.schedules WHERE active = true ORDER BY next_run_at`)
	if err != nil {
		return nil, fmt.Errorf("listing active schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sch)
	}
	return out, rows.Err()
}

// ListOverdueSchedules selects schedules with active=true AND nextRunAt < now,
// for the Scheduler's hourly recovery sweep (spec §4.F).
func (s *Store) ListOverdueSchedules(ctx context.Context, now time.Time) ([]Schedule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, benchmark_kind, frequency, active, next_run_at,
		       last_run_at, last_assessment_id, parameters, created_by, created_at, updated_at
		FROM maes.schedules WHERE active = true AND next_run_at < $1 ORDER BY next_run_at`, now)
	if err != nil {
		return nil, fmt.Errorf("listing overdue schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sch)
	}
	return out, rows.Err()
}

// UpdateSchedule updates mutable fields of a schedule.
func (s *Store) UpdateSchedule(ctx context.Context, sch *Schedule) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE maes.schedules SET
			name = $2, benchmark_kind = $3, frequency = $4, active = $5,
			next_run_at = $6, parameters = $7, updated_at = now()
		WHERE id = $1`,
		sch.ID, sch.Name, sch.BenchmarkKind, sch.Frequency, sch.Active, sch.NextRunAt, sch.Parameters)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// AdvanceSchedule records a fire: lastRunAt=fireTime, nextRunAt=next, and
// optionally the resulting assessment id (spec §4.F).
func (s *Store) AdvanceSchedule(ctx context.Context, id uuid.UUID, fireTime, next time.Time, assessmentID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE maes.schedules SET
			last_run_at = $2, next_run_at = $3, last_assessment_id = $4, updated_at = now()
		WHERE id = $1`, id, fireTime, next, assessmentID)
	if err != nil {
		return fmt.Errorf("advancing schedule: %w", err)
	}
	return nil
}

// DeleteSchedule removes a schedule row.
func (s *Store) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM maes.schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting schedule: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func scanSchedule(row rowScanner) (*Schedule, error) {
	var sch Schedule
	if err := row.Scan(&sch.ID, &sch.TenantID, &sch.Name, &sch.BenchmarkKind, &sch.Frequency,
		&sch.Active, &sch.NextRunAt, &sch.LastRunAt, &sch.LastAssessmentID, &sch.Parameters,
		&sch.CreatedBy, &sch.CreatedAt, &sch.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("scanning schedule: %w", err)
	}
	return &sch, nil
}
