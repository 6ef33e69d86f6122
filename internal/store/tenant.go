package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maes-platform/compliance-core/internal/apperr"
)

// GetTenant loads a tenant by id.
func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, display_name, directory_tenant_id, domain_fqdn, credentials, active, created_at, updated_at
		FROM maes.tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// ListActiveTenants returns every tenant with active=true, ordered by
// display name.
func (s *Store) ListActiveTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, display_name, directory_tenant_id, domain_fqdn, credentials, active, created_at, updated_at
		FROM maes.tenants WHERE active = true ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("listing active tenants: %w", err)
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// CreateTenant inserts a new tenant. Invariant: (directoryTenantId, active=true)
// unique is enforced by a partial unique index in the migration.
func (s *Store) CreateTenant(ctx context.Context, t *Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	creds, err := json.Marshal(t.Credentials)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO maes.tenants (id, display_name, directory_tenant_id, domain_fqdn, credentials, active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.DisplayName, t.DirectoryTenantID, t.DomainFQDN, creds, t.Active)
	if err != nil {
		return fmt.Errorf("%w: inserting tenant: %v", apperr.ErrInternal, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*Tenant, error) {
	var t Tenant
	var creds []byte
	if err := row.Scan(&t.ID, &t.DisplayName, &t.DirectoryTenantID, &t.DomainFQDN, &creds, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}
	if len(creds) > 0 {
		if err := json.Unmarshal(creds, &t.Credentials); err != nil {
			return nil, fmt.Errorf("unmarshaling credentials: %w", err)
		}
	}
	return &t, nil
}
