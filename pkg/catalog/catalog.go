// Package catalog implements Component B (spec §4.B): a read-mostly
// registry of control definitions with checkers bound by checkerKey.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/checker"
)

// Catalog holds the seeded built-in controls plus checker bindings, and
// defers custom/overridden control definitions to the store.
type Catalog struct {
	store *store.Store

	mu       sync.RWMutex
	checkers map[string]checker.Checker
}

// New builds a Catalog backed by s for custom/seeded control persistence.
func New(s *store.Store) *Catalog {
	c := &Catalog{
		store:    s,
		checkers: make(map[string]checker.Checker),
	}
	c.registerBuiltins()
	return c
}

// Register binds a checker to a checkerKey. Registering the same key twice
// replaces the previous binding; this is used only at startup.
func (c *Catalog) Register(checkerKey string, chk checker.Checker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkers[checkerKey] = chk
}

func (c *Catalog) registerBuiltins() {
	c.Register(checker.KeyMFAForAdmins, checker.MFAForAdmins{})
	c.Register(checker.KeyConditionalAccessMFA, checker.ConditionalAccessRequiresMFA{})
	c.Register(checker.KeyLimitedGlobalAdmins, checker.LimitedGlobalAdmins{})
	c.Register(checker.KeyAppRegistrationReview, checker.AppRegistrationReview{})
}

// CheckerFor resolves the checker bound to a control's checkerKey. The
// second return value is false when no checker is registered; callers must
// treat that as a manualReview outcome (spec §4.B), never as an error.
func (c *Catalog) CheckerFor(checkerKey string) (checker.Checker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	chk, ok := c.checkers[checkerKey]
	return chk, ok
}

// ActiveControls returns the active controls for a benchmark kind, ordered
// lexicographically by control id so runs are deterministic (spec §4.B).
func (c *Catalog) ActiveControls(ctx context.Context, kind store.BenchmarkKind) ([]store.ControlDefinition, error) {
	defs, err := c.store.ListActiveControls(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("loading active controls: %w", err)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// Seed upserts the built-in CIS Microsoft 365 Foundations control subset
// into the store. Safe to call repeatedly; existing rows are updated
// in place via ON CONFLICT, never duplicated.
func (c *Catalog) Seed(ctx context.Context) error {
	for _, def := range seedControls {
		if err := c.store.UpsertControl(ctx, def); err != nil {
			return fmt.Errorf("seeding control %s/%s: %w", def.BenchmarkKind, def.ID, err)
		}
	}
	return nil
}
