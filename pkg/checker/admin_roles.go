package checker

import (
	"context"
	"fmt"

	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/graphclient"
)

// maxRecommendedGlobalAdmins is the CIS-recommended ceiling; exceeding it
// degrades an otherwise compliant result to nonCompliant.
const maxRecommendedGlobalAdmins = 4

// LimitedGlobalAdmins checks that the Global Administrator role has a
// bounded membership (CIS recommends between 2 and 4).
type LimitedGlobalAdmins struct{}

func (LimitedGlobalAdmins) Check(ctx context.Context, client *graphclient.Client, control store.ControlDefinition) Result {
	roles, err := client.ListDirectoryRoles(ctx)
	if err != nil {
		return Result{Status: store.ResultError, ErrorMessage: fmt.Sprintf("listing directory roles: %v", err)}
	}

	var globalAdminRoleID string
	for _, r := range roles.Value {
		if r.DisplayName == "Global Administrator" {
			globalAdminRoleID = r.ID
			break
		}
	}
	if globalAdminRoleID == "" {
		// The role isn't activated in this tenant; nothing to evaluate.
		return Result{Status: store.ResultNotApplicable}
	}

	members, err := client.ListDirectoryRoleMembers(ctx, globalAdminRoleID)
	if err != nil {
		return Result{Status: store.ResultError, ErrorMessage: fmt.Sprintf("listing Global Administrator members: %v", err)}
	}

	count := len(members.Value)
	evidence := map[string]any{"globalAdminCount": count}

	switch {
	case count == 0:
		return Result{Status: store.ResultManualReview, ActualResult: evidence,
			RemediationGuidance: "no Global Administrators found; verify the break-glass account is in place"}
	case count < 2:
		return Result{Status: store.ResultNonCompliant, Score: 50, ActualResult: evidence,
			RemediationGuidance: "maintain at least 2 Global Administrators for redundancy"}
	case count <= maxRecommendedGlobalAdmins:
		return Result{Status: store.ResultCompliant, Score: 100, ActualResult: evidence}
	default:
		return Result{Status: store.ResultNonCompliant, Score: 0, ActualResult: evidence,
			RemediationGuidance: fmt.Sprintf("reduce Global Administrator membership to at most %d accounts", maxRecommendedGlobalAdmins)}
	}
}
