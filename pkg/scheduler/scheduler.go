// Package scheduler implements Component F (spec §4.F): recurring
// schedules that materialize cron-like frequencies into assessment jobs,
// recover missed runs after downtime, and expose lifecycle CRUD.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/apperr"
	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/pkg/queue"
)

// schedulePriority is the fixed job priority assigned to schedule-fired
// assessments (spec §4.F "enqueues a job with priority 5").
const schedulePriority = 5

// sweepInterval is the hourly recovery sweep cadence (spec §4.F "Recovery").
const sweepInterval = time.Hour

// Scheduler arms one timer per active schedule and runs an hourly recovery
// sweep for missed runs.
type Scheduler struct {
	store *store.Store
	queue *queue.Queue
	log   *slog.Logger

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

// New builds a Scheduler.
func New(s *store.Store, q *queue.Queue, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:  s,
		queue:  q,
		log:    log,
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

// Run arms every active schedule on boot, then blocks running the hourly
// recovery sweep until ctx is cancelled (spec §4.F "Activation").
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.armAll(ctx); err != nil {
		return fmt.Errorf("arming schedules on boot: %w", err)
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopAllTimers()
			return nil
		case <-ticker.C:
			if err := s.recoverOverdue(ctx); err != nil {
				s.log.Error("recovery sweep failed", "err", err)
			}
		}
	}
}

func (s *Scheduler) armAll(ctx context.Context) error {
	schedules, err := s.store.ListActiveSchedules(ctx)
	if err != nil {
		return fmt.Errorf("listing active schedules: %w", err)
	}
	for _, sch := range schedules {
		s.arm(ctx, sch)
	}
	s.log.Info("schedules armed on boot", "count", len(schedules))
	return nil
}

// arm schedules a single timer that fires at nextRunAt. Invariant: at most
// one armed timer per schedule id (spec §4.F "Invariants").
func (s *Scheduler) arm(ctx context.Context, sch store.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[sch.ID]; ok {
		existing.Stop()
		delete(s.timers, sch.ID)
	}
	if !sch.Active || sch.NextRunAt == nil {
		return
	}

	delay := time.Until(*sch.NextRunAt)
	if delay < 0 {
		delay = 0
	}
	s.timers[sch.ID] = time.AfterFunc(delay, func() {
		s.fire(ctx, sch.ID)
	})
}

// fire enqueues an assessment job for a schedule and advances its pointer.
func (s *Scheduler) fire(ctx context.Context, scheduleID uuid.UUID) {
	sch, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		s.log.Error("loading schedule to fire", "scheduleId", scheduleID, "err", err)
		return
	}
	if !sch.Active {
		return
	}

	now := time.Now().UTC()
	jobName := fmt.Sprintf("%s - %s", sch.Name, now.Format(time.RFC3339))

	// Mint the assessment id here, before enqueue, so it can be threaded
	// through the job as the idempotence key (spec §4.D "Idempotence key
	// is the assessment ID") and recorded as the schedule's traceable
	// lastAssessmentId rather than the queue's internal job id.
	assessmentID := uuid.New()

	jobID, err := s.queue.Enqueue(ctx, queue.Job{
		AssessmentID:  assessmentID.String(),
		TenantID:      sch.TenantID.String(),
		BenchmarkKind: string(sch.BenchmarkKind),
		Name:          jobName,
		TriggeredBy:   sch.ID.String(),
		Priority:      schedulePriority,
		Scheduled:     true,
		Parameters:    sch.Parameters,
	})
	if err != nil {
		s.log.Error("enqueuing scheduled assessment", "scheduleId", scheduleID, "err", err)
		return
	}

	next := computeNext(sch.Frequency, now)
	if err := s.store.AdvanceSchedule(ctx, sch.ID, now, next, assessmentID); err != nil {
		s.log.Error("advancing schedule", "scheduleId", scheduleID, "err", err)
		return
	}

	sch.NextRunAt = &next
	s.arm(ctx, *sch)
	s.log.Info("schedule fired", "scheduleId", scheduleID, "jobId", jobID, "nextRunAt", next)
}

// recoverOverdue fires every schedule whose nextRunAt has already passed,
// exactly once per sweep (spec §4.F "Recovery").
func (s *Scheduler) recoverOverdue(ctx context.Context) error {
	overdue, err := s.store.ListOverdueSchedules(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("listing overdue schedules: %w", err)
	}
	for _, sch := range overdue {
		s.fire(ctx, sch.ID)
	}
	if len(overdue) > 0 {
		s.log.Info("recovery sweep fired overdue schedules", "count", len(overdue))
	}
	return nil
}

func (s *Scheduler) stopAllTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// CreateSchedule builds a new schedule, computes its initial nextRunAt, and
// arms its timer immediately.
func (s *Scheduler) CreateSchedule(ctx context.Context, sch store.Schedule) (*store.Schedule, error) {
	now := time.Now().UTC()
	next := computeNext(sch.Frequency, now)
	sch.NextRunAt = &next
	sch.Active = true

	if err := s.store.CreateSchedule(ctx, &sch); err != nil {
		return nil, fmt.Errorf("creating schedule: %w", err)
	}
	s.arm(ctx, sch)
	return &sch, nil
}

// UpdateSchedule persists changes and re-arms (or disarms) the timer.
func (s *Scheduler) UpdateSchedule(ctx context.Context, sch store.Schedule) (*store.Schedule, error) {
	if err := s.store.UpdateSchedule(ctx, &sch); err != nil {
		return nil, err
	}
	s.arm(ctx, sch)
	return &sch, nil
}

// DeleteSchedule cancels the timer synchronously before removing the row
// (spec §4.F "Deleting or deactivating cancels the timer synchronously").
func (s *Scheduler) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	return s.store.DeleteSchedule(ctx, id)
}

// ListSchedules returns a tenant's schedules.
func (s *Scheduler) ListSchedules(ctx context.Context, tenantID uuid.UUID) ([]store.Schedule, error) {
	return s.store.ListSchedules(ctx, tenantID)
}

// Stats is the live counter set exposed by GET /scheduler/stats.
type Stats struct {
	ArmedTimers int         `json:"armedTimers"`
	Queue       queue.Stats `json:"queue"`
}

// Stats reports live counters (spec §4.F "stats()").
func (s *Scheduler) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	armed := len(s.timers)
	s.mu.Unlock()

	qStats, err := s.queue.QueueStats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return Stats{ArmedTimers: armed, Queue: qStats}, nil
}
