package checker

import (
	"testing"

	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/graphclient"
)

func TestGrantControlsRequireMFA(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"requires mfa", `{"builtInControls":["mfa"]}`, true},
		{"requires block", `{"builtInControls":["block"]}`, false},
		{"empty", `{}`, false},
		{"malformed", `not json`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := grantControlsRequireMFA([]byte(tc.raw)); got != tc.want {
				t.Fatalf("grantControlsRequireMFA(%s) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestHasStrongMethod(t *testing.T) {
	strong := []graphclient.AuthenticationMethod{{ODataType: "#microsoft.graph.fido2AuthenticationMethod"}}
	if !hasStrongMethod(strong) {
		t.Fatal("expected fido2 to count as a strong method")
	}

	weak := []graphclient.AuthenticationMethod{{ODataType: "#microsoft.graph.emailAuthenticationMethod"}}
	if hasStrongMethod(weak) {
		t.Fatal("did not expect email method to count as strong")
	}

	if hasStrongMethod(nil) {
		t.Fatal("expected no methods to be non-strong")
	}
}

func TestIsPrivilegedRole(t *testing.T) {
	if !isPrivilegedRole("Global Administrator") {
		t.Fatal("expected Global Administrator to be privileged")
	}
	if isPrivilegedRole("Guest Inviter") {
		t.Fatal("did not expect Guest Inviter to be privileged")
	}
}

func TestMFACoverageScorePartialCompliance(t *testing.T) {
	// spec §8 scenario 2: 3 global admins, 2 with MFA -> nonCompliant, 66.67.
	status, score := mfaCoverageScore(3, 1)
	if status != store.ResultNonCompliant {
		t.Fatalf("expected nonCompliant, got %s", status)
	}
	if score != 66.67 {
		t.Fatalf("expected score 66.67, got %v", score)
	}
}

func TestMFACoverageScoreFullCompliance(t *testing.T) {
	status, score := mfaCoverageScore(3, 0)
	if status != store.ResultCompliant {
		t.Fatalf("expected compliant, got %s", status)
	}
	if score != 100 {
		t.Fatalf("expected score 100, got %v", score)
	}
}

func TestMFACoverageScoreNoneCovered(t *testing.T) {
	status, score := mfaCoverageScore(2, 2)
	if status != store.ResultNonCompliant {
		t.Fatalf("expected nonCompliant, got %s", status)
	}
	if score != 0 {
		t.Fatalf("expected score 0, got %v", score)
	}
}

func TestNoCheckerResultIsManualReview(t *testing.T) {
	res := NoCheckerResult()
	if res.Status != store.ResultManualReview {
		t.Fatalf("expected manualReview, got %s", res.Status)
	}
	if res.RemediationGuidance == "" {
		t.Fatal("expected non-empty remediation guidance")
	}
}
