package catalog

import (
	"testing"

	"github.com/maes-platform/compliance-core/pkg/checker"
)

func TestRegisterAndCheckerFor(t *testing.T) {
	c := &Catalog{checkers: make(map[string]checker.Checker)}
	c.Register(checker.KeyMFAForAdmins, checker.MFAForAdmins{})

	got, ok := c.CheckerFor(checker.KeyMFAForAdmins)
	if !ok {
		t.Fatal("expected checker to be registered")
	}
	if _, isMFA := got.(checker.MFAForAdmins); !isMFA {
		t.Fatalf("expected MFAForAdmins, got %T", got)
	}
}

func TestCheckerForMissingKeyReturnsFalse(t *testing.T) {
	c := &Catalog{checkers: make(map[string]checker.Checker)}
	if _, ok := c.CheckerFor("nonexistent-key"); ok {
		t.Fatal("expected missing checker key to report false, not a default checker")
	}
}

func TestRegisterBuiltinsCoversSeedControlKeys(t *testing.T) {
	c := &Catalog{checkers: make(map[string]checker.Checker)}
	c.registerBuiltins()

	seenKeys := make(map[string]bool)
	for _, def := range seedControls {
		seenKeys[def.CheckerKey] = true
	}
	for key := range seenKeys {
		if _, ok := c.CheckerFor(key); !ok {
			t.Errorf("seed control references checkerKey %q with no built-in binding", key)
		}
	}
}
