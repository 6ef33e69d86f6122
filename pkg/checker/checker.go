// Package checker implements the built-in, automated control checkers
// invoked by the Assessment Engine (spec §4.C "Checker contract").
//
// A Checker is deterministic and side-effect-free apart from Graph reads.
// It must return manualReview, never error, when the underlying data is
// ambiguous, and notApplicable when its precondition set is empty.
package checker

import (
	"context"
	"math"

	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/graphclient"
)

// Result is what a Checker returns for one control against one tenant.
type Result struct {
	Status              store.ControlResultStatus
	Score               float64
	ActualResult        any
	Evidence            any
	RemediationGuidance string
	ErrorMessage        string
}

// Checker evaluates one ControlDefinition against a tenant's Graph client.
type Checker interface {
	Check(ctx context.Context, client *graphclient.Client, control store.ControlDefinition) Result
}

// Checker keys bound to ControlDefinition.CheckerKey (spec §4.B).
const (
	KeyMFAForAdmins          = "mfa-for-admins"
	KeyConditionalAccessMFA  = "conditional-access-requires-mfa"
	KeyLimitedGlobalAdmins   = "limited-global-admins"
	KeyAppRegistrationReview = "app-registration-review"
)

// NoCheckerResult is the standard result when a control names a checkerKey
// the catalog has no binding for (spec §4.B).
func NoCheckerResult() Result {
	return Result{
		Status:              store.ResultManualReview,
		Score:               0,
		RemediationGuidance: "no automated checker is bound to this control; review manually",
	}
}

// roundHalfUp matches the Assessment Engine's own rounding (spec §4.C),
// used here so a checker's proportional score lands on the same 0.01
// grid the engine's scoring formulas do.
func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
