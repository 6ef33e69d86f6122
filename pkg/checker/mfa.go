package checker

import (
	"context"
	"fmt"

	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/graphclient"
)

// strongAuthMethodTypes are Graph @odata.type values considered a strong
// (MFA-capable) authentication method.
var strongAuthMethodTypes = map[string]bool{
	"#microsoft.graph.phoneAuthenticationMethod":               true,
	"#microsoft.graph.microsoftAuthenticatorAuthenticationMethod": true,
	"#microsoft.graph.fido2AuthenticationMethod":               true,
	"#microsoft.graph.softwareOathAuthenticationMethod":        true,
	"#microsoft.graph.windowsHelloForBusinessAuthenticationMethod": true,
}

// MFAForAdmins checks that every member of privileged directory roles has
// at least one strong authentication method registered.
type MFAForAdmins struct{}

func (MFAForAdmins) Check(ctx context.Context, client *graphclient.Client, control store.ControlDefinition) Result {
	roles, err := client.ListDirectoryRoles(ctx)
	if err != nil {
		return Result{Status: store.ResultError, ErrorMessage: fmt.Sprintf("listing directory roles: %v", err)}
	}

	var admins []graphclient.User
	seen := make(map[string]bool)
	for _, role := range roles.Value {
		if !isPrivilegedRole(role.DisplayName) {
			continue
		}
		members, err := client.ListDirectoryRoleMembers(ctx, role.ID)
		if err != nil {
			return Result{Status: store.ResultError, ErrorMessage: fmt.Sprintf("listing members of %s: %v", role.DisplayName, err)}
		}
		for _, m := range members.Value {
			if !seen[m.ID] {
				seen[m.ID] = true
				admins = append(admins, m)
			}
		}
	}

	if len(admins) == 0 {
		return Result{
			Status:       store.ResultNotApplicable,
			ActualResult: map[string]any{"adminCount": 0},
		}
	}

	var withoutMFA []string
	for _, admin := range admins {
		methods, err := client.GetUserAuthenticationMethods(ctx, admin.ID)
		if err != nil {
			withoutMFA = append(withoutMFA, admin.UserPrincipalName+" (lookup failed)")
			continue
		}
		if !hasStrongMethod(methods.Value) {
			withoutMFA = append(withoutMFA, admin.UserPrincipalName)
		}
	}

	evidence := map[string]any{
		"adminCount":    len(admins),
		"withoutMFA":    withoutMFA,
		"withoutMFACount": len(withoutMFA),
	}

	status, score := mfaCoverageScore(len(admins), len(withoutMFA))
	if status == store.ResultCompliant {
		return Result{Status: status, Score: score, ActualResult: evidence}
	}
	return Result{
		Status:              status,
		Score:               score,
		ActualResult:        evidence,
		RemediationGuidance: "register a strong authentication method for every privileged-role member",
	}
}

// mfaCoverageScore scores proportionally to the fraction of admins with a
// strong method registered rather than collapsing any gap to 0 (spec §8
// scenario 2: 3 admins, 2 with MFA → nonCompliant, score 66.67).
func mfaCoverageScore(adminCount, withoutMFACount int) (store.ControlResultStatus, float64) {
	if withoutMFACount == 0 {
		return store.ResultCompliant, 100
	}
	score := roundHalfUp(100 * float64(adminCount-withoutMFACount) / float64(adminCount))
	return store.ResultNonCompliant, score
}

func hasStrongMethod(methods []graphclient.AuthenticationMethod) bool {
	for _, m := range methods {
		if strongAuthMethodTypes[m.ODataType] {
			return true
		}
	}
	return false
}

func isPrivilegedRole(displayName string) bool {
	switch displayName {
	case "Global Administrator", "Privileged Role Administrator", "Security Administrator",
		"Exchange Administrator", "SharePoint Administrator":
		return true
	default:
		return false
	}
}
