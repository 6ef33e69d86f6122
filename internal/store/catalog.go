package store

import (
	"context"
	"fmt"
)

// ListActiveControls returns active controls for a benchmark, ordered
// lexicographically by id — the Catalog's deterministic iteration order
// (spec §4.B).
func (s *Store) ListActiveControls(ctx context.Context, kind BenchmarkKind) ([]ControlDefinition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, benchmark_kind, section, title, description, rationale, remediation,
		       severity, weight, expected_result, checker_key, active
		FROM maes.control_definitions
		WHERE benchmark_kind = $1 AND active = true
		ORDER BY id ASC`, kind)
	if err != nil {
		return nil, fmt.Errorf("listing active controls: %w", err)
	}
	defer rows.Close()

	var out []ControlDefinition
	for rows.Next() {
		var c ControlDefinition
		if err := rows.Scan(&c.ID, &c.BenchmarkKind, &c.Section, &c.Title, &c.Description,
			&c.Rationale, &c.Remediation, &c.Severity, &c.Weight, &c.ExpectedResult,
			&c.CheckerKey, &c.Active); err != nil {
			return nil, fmt.Errorf("scanning control definition: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertControl inserts or updates a control definition. Invariant:
// (benchmarkKind, id) unique.
func (s *Store) UpsertControl(ctx context.Context, c ControlDefinition) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO maes.control_definitions
			(id, benchmark_kind, section, title, description, rationale, remediation,
			 severity, weight, expected_result, checker_key, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (benchmark_kind, id) DO UPDATE SET
			section = EXCLUDED.section,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			rationale = EXCLUDED.rationale,
			remediation = EXCLUDED.remediation,
			severity = EXCLUDED.severity,
			weight = EXCLUDED.weight,
			expected_result = EXCLUDED.expected_result,
			checker_key = EXCLUDED.checker_key,
			active = EXCLUDED.active`,
		c.ID, c.BenchmarkKind, c.Section, c.Title, c.Description, c.Rationale,
		c.Remediation, c.Severity, c.Weight, c.ExpectedResult, c.CheckerKey, c.Active)
	if err != nil {
		return fmt.Errorf("upserting control definition %s/%s: %w", c.BenchmarkKind, c.ID, err)
	}
	return nil
}

// DeactivateControl flips a control's active flag to false. ControlDefinitions
// are shared and never cascade-deleted (spec §3); they are deactivated instead.
func (s *Store) DeactivateControl(ctx context.Context, kind BenchmarkKind, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE maes.control_definitions SET active = false
		WHERE benchmark_kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return fmt.Errorf("deactivating control %s/%s: %w", kind, id, err)
	}
	return nil
}
