// Package worker implements Component E (spec §4.E): a bounded-concurrency
// pool that dequeues jobs, drives the Assessment Engine, and reports
// progress back to the Job Queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/assessment"
	"github.com/maes-platform/compliance-core/pkg/notify"
	"github.com/maes-platform/compliance-core/pkg/queue"
)

// DefaultConcurrency is the default number of assessments run in parallel
// per worker process (spec §4.E "Fixed concurrency N (default 2)").
const DefaultConcurrency = 2

// pollInterval is how often an idle worker re-checks the queue for a job.
const pollInterval = 500 * time.Millisecond

// Pool drives N goroutines, each looping dequeue→engine→ack.
type Pool struct {
	queue    *queue.Queue
	store    *store.Store
	engine   *assessment.Engine
	notifier *notify.Notifier
	log      *slog.Logger

	concurrency int
	scoreThreshold float64
}

// New builds a worker Pool.
func New(q *queue.Queue, s *store.Store, e *assessment.Engine, n *notify.Notifier, log *slog.Logger, concurrency int, scoreThreshold float64) *Pool {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pool{
		queue:          q,
		store:          s,
		engine:         e,
		notifier:       n,
		log:            log,
		concurrency:    concurrency,
		scoreThreshold: scoreThreshold,
	}
}

// Run blocks until ctx is cancelled. A semaphore of size `concurrency`
// bounds how many assessments run in parallel; a ticker drives dequeue
// attempts whenever a slot is free (spec §4.E "Fixed concurrency N").
func (p *Pool) Run(ctx context.Context) {
	p.log.Info("worker pool started", "concurrency", p.concurrency)

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("worker pool shutting down")
			wg.Wait()
			return
		case <-ticker.C:
			select {
			case sem <- struct{}{}:
			default:
				continue // all slots busy
			}
			job, err := p.queue.Dequeue(ctx)
			if err != nil {
				p.log.Error("dequeuing job", "err", err)
				<-sem
				continue
			}
			if job == nil {
				<-sem
				continue
			}
			wg.Add(1)
			go func(j *queue.Job) {
				defer wg.Done()
				defer func() { <-sem }()
				p.process(ctx, j)
			}(job)
		}
	}
}

func (p *Pool) process(ctx context.Context, job *queue.Job) {
	log := p.log.With("jobId", job.ID, "tenantId", job.TenantID)

	if job.AssessmentID != "" {
		existing, err := p.store.GetAssessment(ctx, mustParseUUID(job.AssessmentID))
		if err == nil && isTerminal(existing.Status) {
			// Already-terminal assessment: idempotent no-op, ack success
			// (spec §4.D "a worker that observes an already-terminal
			// assessment must return success without re-running").
			log.Info("assessment already terminal, acking without rerun", "status", existing.Status)
			p.ack(ctx, job.ID, existing)
			return
		}
	}

	tenant, err := p.store.GetTenant(ctx, mustParseUUID(job.TenantID))
	if err != nil {
		log.Error("loading tenant", "err", err)
		_ = p.queue.Fail(ctx, job.ID, fmt.Sprintf("loading tenant: %v", err))
		return
	}

	onProgress := func(ctx context.Context, progress int) {
		if err := p.queue.UpdateProgress(ctx, job.ID, progress); err != nil {
			log.Warn("propagating progress to queue", "err", err)
		}
	}

	summary, err := p.engine.Run(ctx, mustParseUUID(job.AssessmentID), *tenant, store.BenchmarkKind(job.BenchmarkKind), assessment.Options{
		Name:        job.Name,
		TriggeredBy: job.TriggeredBy,
		OnProgress:  onProgress,
	})
	if err != nil {
		// Queue-level exception (DB down, etc): fail the job for queue retry.
		log.Error("engine run failed", "err", err)
		_ = p.queue.Fail(ctx, job.ID, err.Error())
		return
	}

	p.ack(ctx, job.ID, &summary.Assessment)
	p.notifyOutcome(ctx, tenant.DisplayName, &summary.Assessment)
}

func (p *Pool) ack(ctx context.Context, jobID string, a *store.Assessment) {
	if a.Status == store.StatusFailed {
		_ = p.queue.Fail(ctx, jobID, a.ErrorMessage)
		return
	}
	_ = p.queue.Complete(ctx, jobID)
}

func (p *Pool) notifyOutcome(ctx context.Context, tenantName string, a *store.Assessment) {
	if p.notifier == nil {
		return
	}
	switch {
	case a.Status == store.StatusFailed:
		p.notifier.NotifyAssessmentFailed(ctx, tenantName, *a)
	case a.Status == store.StatusCompleted && a.OverallScore < p.scoreThreshold:
		p.notifier.NotifyLowScore(ctx, tenantName, *a)
	}
}

func isTerminal(s store.AssessmentStatus) bool {
	switch s {
	case store.StatusCompleted, store.StatusFailed, store.StatusCancelled:
		return true
	default:
		return false
	}
}

func mustParseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
