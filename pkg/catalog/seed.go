package catalog

import (
	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/checker"
)

// seedControls is a representative subset of the CIS Microsoft 365
// Foundations Benchmark (v3 identity & access management controls, carried
// over to v4 with the same stable ids). The full benchmark runs to several
// hundred controls; operators extend this set via the store without a
// redeploy (spec §4.B).
var seedControls = []store.ControlDefinition{
	{
		ID:            "1.1.1",
		BenchmarkKind: store.BenchmarkCISv3,
		Section:       "1.1 Identity and Access Management",
		Title:         "Ensure multifactor authentication is enabled for all privileged users",
		Description:   "Privileged roles (Global Administrator, Security Administrator, etc.) must require MFA.",
		Rationale:     "Privileged accounts are the highest-value target for credential compromise.",
		Remediation:   "Enable a Conditional Access or per-user MFA policy covering all privileged role members.",
		Severity:      store.SeverityLevel1,
		Weight:        1.0,
		CheckerKey:    checker.KeyMFAForAdmins,
		Active:        true,
	},
	{
		ID:            "1.1.2",
		BenchmarkKind: store.BenchmarkCISv3,
		Section:       "1.1 Identity and Access Management",
		Title:         "Ensure a conditional access policy requires MFA for all users",
		Description:   "At least one enabled Conditional Access policy must enforce MFA tenant-wide.",
		Rationale:     "Per-user MFA alone is easy to misconfigure and leaves gaps for new accounts.",
		Remediation:   "Create a Conditional Access policy with builtInControls containing \"mfa\" and an \"All users\" assignment.",
		Severity:      store.SeverityLevel1,
		Weight:        1.0,
		CheckerKey:    checker.KeyConditionalAccessMFA,
		Active:        true,
	},
	{
		ID:            "1.1.3",
		BenchmarkKind: store.BenchmarkCISv3,
		Section:       "1.1 Identity and Access Management",
		Title:         "Ensure the number of Global Administrators is limited and monitored",
		Description:   "Maintain between 2 and 4 Global Administrator accounts.",
		Rationale:     "Too few risks lockout; too many widens the blast radius of a single compromised account.",
		Remediation:   "Remove unnecessary Global Administrator assignments and use scoped administrator roles instead.",
		Severity:      store.SeverityLevel2,
		Weight:        1.0,
		CheckerKey:    checker.KeyLimitedGlobalAdmins,
		Active:        true,
	},
	{
		ID:            "1.2.1",
		BenchmarkKind: store.BenchmarkCISv3,
		Section:       "1.2 Application Registrations",
		Title:         "Ensure application registrations are reviewed periodically",
		Description:   "App registrations older than one year should be reviewed for continued need.",
		Rationale:     "Stale app registrations accumulate unused permission grants over time.",
		Remediation:   "Review app registrations older than one year; remove or re-consent as appropriate.",
		Severity:      store.SeverityLevel1,
		Weight:        0.5,
		CheckerKey:    checker.KeyAppRegistrationReview,
		Active:        true,
	},
	// cisV4 carries the same stable control ids forward; sections 1.1-1.2
	// are unchanged between v3 and v4 for this subset.
	{
		ID:            "1.1.1",
		BenchmarkKind: store.BenchmarkCISv4,
		Section:       "1.1 Identity and Access Management",
		Title:         "Ensure multifactor authentication is enabled for all privileged users",
		Description:   "Privileged roles (Global Administrator, Security Administrator, etc.) must require MFA.",
		Rationale:     "Privileged accounts are the highest-value target for credential compromise.",
		Remediation:   "Enable a Conditional Access or per-user MFA policy covering all privileged role members.",
		Severity:      store.SeverityLevel1,
		Weight:        1.0,
		CheckerKey:    checker.KeyMFAForAdmins,
		Active:        true,
	},
	{
		ID:            "1.1.2",
		BenchmarkKind: store.BenchmarkCISv4,
		Section:       "1.1 Identity and Access Management",
		Title:         "Ensure a conditional access policy requires MFA for all users",
		Description:   "At least one enabled Conditional Access policy must enforce MFA tenant-wide.",
		Rationale:     "Per-user MFA alone is easy to misconfigure and leaves gaps for new accounts.",
		Remediation:   "Create a Conditional Access policy with builtInControls containing \"mfa\" and an \"All users\" assignment.",
		Severity:      store.SeverityLevel1,
		Weight:        1.0,
		CheckerKey:    checker.KeyConditionalAccessMFA,
		Active:        true,
	},
	{
		ID:            "1.1.3",
		BenchmarkKind: store.BenchmarkCISv4,
		Section:       "1.1 Identity and Access Management",
		Title:         "Ensure the number of Global Administrators is limited and monitored",
		Description:   "Maintain between 2 and 4 Global Administrator accounts.",
		Rationale:     "Too few risks lockout; too many widens the blast radius of a single compromised account.",
		Remediation:   "Remove unnecessary Global Administrator assignments and use scoped administrator roles instead.",
		Severity:      store.SeverityLevel2,
		Weight:        1.0,
		CheckerKey:    checker.KeyLimitedGlobalAdmins,
		Active:        true,
	},
	{
		ID:            "1.2.1",
		BenchmarkKind: store.BenchmarkCISv4,
		Section:       "1.2 Application Registrations",
		Title:         "Ensure application registrations are reviewed periodically",
		Description:   "App registrations older than one year should be reviewed for continued need.",
		Rationale:     "Stale app registrations accumulate unused permission grants over time.",
		Remediation:   "Review app registrations older than one year; remove or re-consent as appropriate.",
		Severity:      store.SeverityLevel1,
		Weight:        0.5,
		CheckerKey:    checker.KeyAppRegistrationReview,
		Active:        true,
	},
}
