package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/graphclient"
)

// staleAppRegistrationAge flags app registrations that have gone unreviewed
// for a long time as manual-review candidates.
const staleAppRegistrationAge = 365 * 24 * time.Hour

// AppRegistrationReview surfaces application registrations old enough to
// warrant a manual permissions review. The check never fails on its own:
// old registrations yield manualReview, since "is this app still needed" is
// a human judgment call, and with none older than staleAppRegistrationAge
// it reports compliant.
type AppRegistrationReview struct{}

func (AppRegistrationReview) Check(ctx context.Context, client *graphclient.Client, control store.ControlDefinition) Result {
	apps, err := client.ListApplications(ctx)
	if err != nil {
		return Result{Status: store.ResultError, ErrorMessage: fmt.Sprintf("listing applications: %v", err)}
	}

	if len(apps.Value) == 0 {
		return Result{Status: store.ResultNotApplicable}
	}

	cutoff := time.Now().Add(-staleAppRegistrationAge)
	var stale []string
	for _, app := range apps.Value {
		if !app.CreatedDateTime.IsZero() && app.CreatedDateTime.Before(cutoff) {
			stale = append(stale, app.DisplayName)
		}
	}

	evidence := map[string]any{
		"applicationCount": len(apps.Value),
		"staleCount":       len(stale),
		"stale":            stale,
	}

	if len(stale) == 0 {
		return Result{Status: store.ResultCompliant, Score: 100, ActualResult: evidence}
	}
	return Result{
		Status:              store.ResultManualReview,
		ActualResult:        evidence,
		RemediationGuidance: "review app registrations older than one year and revoke unused ones",
	}
}
