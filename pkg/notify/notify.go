// Package notify sends best-effort operational notifications about
// assessment outcomes. It is a single outbound channel, unlike the
// teacher's bidirectional Slack integration: this system has no slash
// commands or Events API to answer, only results to report.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"

	"github.com/maes-platform/compliance-core/internal/store"
)

// Notifier posts assessment-outcome messages to a single Slack channel.
type Notifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// New builds a Notifier. If botToken is empty, the notifier is a noop
// (logging only) — Slack is an optional operational aid, never required
// for correctness (spec §4.I "Operational notifications").
func New(botToken, channel string, logger *slog.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{client: client, channel: channel, logger: logger}
}

func (n *Notifier) enabled() bool {
	return n.client != nil && n.channel != ""
}

// NotifyAssessmentFailed posts a best-effort alert when an assessment ends
// in status=failed.
func (n *Notifier) NotifyAssessmentFailed(ctx context.Context, tenantName string, a store.Assessment) {
	text := fmt.Sprintf(":red_circle: Assessment failed for *%s* (%s): %s", tenantName, a.BenchmarkKind, a.ErrorMessage)
	n.post(ctx, a.ID.String(), text)
}

// NotifyLowScore posts a best-effort alert when a completed assessment's
// overallScore falls below the configured threshold.
func (n *Notifier) NotifyLowScore(ctx context.Context, tenantName string, a store.Assessment) {
	text := fmt.Sprintf(":warning: Compliance score for *%s* (%s) is %.2f — below threshold", tenantName, a.BenchmarkKind, a.OverallScore)
	n.post(ctx, a.ID.String(), text)
}

func (n *Notifier) post(ctx context.Context, assessmentID, text string) {
	if !n.enabled() {
		n.logger.Debug("notifier disabled, skipping message", "assessmentId", assessmentID)
		return
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channel, goslack.MsgOptionText(text, false))
	if err != nil {
		n.logger.Warn("posting slack notification", "assessmentId", assessmentID, "err", err)
	}
}
