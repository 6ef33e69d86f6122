package checker

import (
	"encoding/json"
	"fmt"

	"context"

	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/graphclient"
)

// ConditionalAccessRequiresMFA checks for at least one enabled conditional
// access policy whose grant controls require MFA.
type ConditionalAccessRequiresMFA struct{}

func (ConditionalAccessRequiresMFA) Check(ctx context.Context, client *graphclient.Client, control store.ControlDefinition) Result {
	policies, err := client.ListConditionalAccessPolicies(ctx)
	if err != nil {
		return Result{Status: store.ResultError, ErrorMessage: fmt.Sprintf("listing conditional access policies: %v", err)}
	}

	if len(policies.Value) == 0 {
		return Result{
			Status:              store.ResultNonCompliant,
			Score:               0,
			RemediationGuidance: "create a conditional access policy that requires MFA for all users",
		}
	}

	var matchingPolicies []string
	for _, p := range policies.Value {
		if p.State != "enabled" {
			continue
		}
		if grantControlsRequireMFA(p.GrantControls) {
			matchingPolicies = append(matchingPolicies, p.DisplayName)
		}
	}

	evidence := map[string]any{
		"policyCount":       len(policies.Value),
		"enforcingPolicies": matchingPolicies,
	}

	if len(matchingPolicies) > 0 {
		return Result{Status: store.ResultCompliant, Score: 100, ActualResult: evidence}
	}
	return Result{
		Status:              store.ResultNonCompliant,
		Score:               0,
		ActualResult:        evidence,
		RemediationGuidance: "enable a conditional access policy with builtInControls containing \"mfa\"",
	}
}

func grantControlsRequireMFA(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var grant struct {
		BuiltInControls []string `json:"builtInControls"`
	}
	if err := json.Unmarshal(raw, &grant); err != nil {
		return false
	}
	for _, c := range grant.BuiltInControls {
		if c == "mfa" {
			return true
		}
	}
	return false
}
