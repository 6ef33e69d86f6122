// Package queue implements Component D (spec §4.D): a durable, priority
// FIFO job queue backed by Redis. Per-priority sorted sets give FIFO-within-
// priority ordering (score = enqueue time), a hash per job carries mutable
// state, and list-based ledgers retain completed/failed jobs for a bounded
// window (spec §4.D "retention").
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "maes:queue:"
	priorityZSetFmt = keyPrefix + "priority:%d"
	jobHashFmt      = keyPrefix + "job:%s"
	inFlightSetKey  = keyPrefix + "inflight"
	completedListKey = keyPrefix + "completed"
	failedListKey    = keyPrefix + "failed"
	idempotencyFmt   = keyPrefix + "idempotency:%s"

	completedRetention = 24 * time.Hour
	failedRetention     = 7 * 24 * time.Hour
	maxCompletedEntries = 100
	maxFailedEntries    = 50

	defaultMaxAttempts = 3
	baseBackoff         = 5 * time.Second
	scheduledBaseBackoff = 10 * time.Second
	backoffFactor        = 2
)

// priorityBands are scanned low-number-first (lower priority value wins),
// per spec §4.D "FIFO within equal priority; lower numeric priority wins".
var priorityBands = []int{1, 2, 3, 4, 5, 6, 7, 8, 9}

// JobStatus is a queue-level lifecycle state, distinct from AssessmentStatus.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is one unit of work: "run this benchmark against this tenant".
type Job struct {
	ID            string          `json:"id"`
	AssessmentID  string          `json:"assessmentId,omitempty"`
	TenantID      string          `json:"tenantId"`
	BenchmarkKind string          `json:"benchmarkKind"`
	Name          string          `json:"name"`
	TriggeredBy   string          `json:"triggeredBy"`
	Priority      int             `json:"priority"`
	Status        JobStatus       `json:"status"`
	Progress      int             `json:"progress"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"maxAttempts"`
	Scheduled     bool            `json:"scheduled"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	EnqueuedAt    time.Time       `json:"enqueuedAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Parameters    json.RawMessage `json:"parameters,omitempty"`
}

// Queue is the Redis-backed job queue.
type Queue struct {
	rdb *redis.Client
}

// New builds a Queue over an existing Redis client.
func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Enqueue pushes a new job, guarding against duplicate enqueue of the same
// assessment id via SETNX (spec §4.D "workers must be idempotent by
// (assessment id) key").
func (q *Queue) Enqueue(ctx context.Context, job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = defaultMaxAttempts
	}
	job.Status = JobQueued
	now := time.Now().UTC()
	job.EnqueuedAt = now
	job.UpdatedAt = now

	if job.AssessmentID != "" {
		idemKey := fmt.Sprintf(idempotencyFmt, job.AssessmentID)
		ok, err := q.rdb.SetNX(ctx, idemKey, job.ID, completedRetention).Result()
		if err != nil {
			return "", fmt.Errorf("checking idempotency guard: %w", err)
		}
		if !ok {
			existing, err := q.rdb.Get(ctx, idemKey).Result()
			if err != nil {
				return "", fmt.Errorf("reading idempotency guard: %w", err)
			}
			return existing, nil
		}
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshalling job: %w", err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.HSet(ctx, fmt.Sprintf(jobHashFmt, job.ID), "data", payload)
	pipe.ZAdd(ctx, fmt.Sprintf(priorityZSetFmt, job.Priority), redis.Z{
		Score:  float64(now.UnixNano()),
		Member: job.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueuing job: %w", err)
	}

	return job.ID, nil
}

// Dequeue pops the oldest job from the lowest non-empty priority band and
// marks it running. Returns (nil, nil) when every band is empty.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	for _, p := range priorityBands {
		zkey := fmt.Sprintf(priorityZSetFmt, p)
		members, err := q.rdb.ZPopMin(ctx, zkey, 1).Result()
		if err != nil {
			return nil, fmt.Errorf("popping priority band %d: %w", p, err)
		}
		if len(members) == 0 {
			continue
		}
		jobID, _ := members[0].Member.(string)
		job, err := q.getJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job == nil {
			continue
		}

		job.Status = JobRunning
		job.Attempts++
		job.UpdatedAt = time.Now().UTC()
		if err := q.saveJob(ctx, job); err != nil {
			return nil, err
		}
		q.rdb.SAdd(ctx, inFlightSetKey, job.ID)
		return job, nil
	}
	return nil, nil
}

// UpdateProgress writes a job's progress without altering its status.
func (q *Queue) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	job, err := q.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC()
	return q.saveJob(ctx, job)
}

// Complete marks a job completed and appends it to the bounded completed
// ledger (spec §4.D "completed ≥ 24h, bounded counts").
func (q *Queue) Complete(ctx context.Context, jobID string) error {
	job, err := q.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}
	job.Status = JobCompleted
	job.Progress = 100
	job.UpdatedAt = time.Now().UTC()
	if err := q.saveJob(ctx, job); err != nil {
		return err
	}
	q.rdb.SRem(ctx, inFlightSetKey, jobID)
	return q.retain(ctx, completedListKey, jobID, maxCompletedEntries, completedRetention)
}

// Fail marks a job failed. If attempts remain, the job goes back into its
// priority band with a score of now plus retryDelay, which places it behind
// jobs already waiting there; Dequeue pops the lowest score without
// comparing it to the current time, so the delay orders the job but does
// not hold it back from an otherwise empty band. When no attempts remain,
// the job is retained on the failed (dead-letter) list.
func (q *Queue) Fail(ctx context.Context, jobID string, cause string) error {
	job, err := q.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}
	job.ErrorMessage = cause
	job.UpdatedAt = time.Now().UTC()

	if job.Attempts < job.MaxAttempts {
		job.Status = JobQueued
		if err := q.saveJob(ctx, job); err != nil {
			return err
		}
		q.rdb.SRem(ctx, inFlightSetKey, jobID)
		delay := retryDelay(job.Attempts, job.Scheduled)
		return q.rdb.ZAdd(ctx, fmt.Sprintf(priorityZSetFmt, job.Priority), redis.Z{
			Score:  float64(time.Now().Add(delay).UnixNano()),
			Member: jobID,
		}).Err()
	}

	job.Status = JobFailed
	if err := q.saveJob(ctx, job); err != nil {
		return err
	}
	q.rdb.SRem(ctx, inFlightSetKey, jobID)
	return q.retain(ctx, failedListKey, jobID, maxFailedEntries, failedRetention)
}

// retryDelay computes the exponential backoff for the next attempt.
func retryDelay(attempts int, scheduled bool) time.Duration {
	base := baseBackoff
	if scheduled {
		base = scheduledBaseBackoff
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= backoffFactor
	}
	return delay
}

// Get loads a job by id without mutating it.
func (q *Queue) Get(ctx context.Context, jobID string) (*Job, error) {
	return q.getJob(ctx, jobID)
}

func (q *Queue) getJob(ctx context.Context, jobID string) (*Job, error) {
	raw, err := q.rdb.HGet(ctx, fmt.Sprintf(jobHashFmt, jobID), "data").Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", jobID, err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decoding job %s: %w", jobID, err)
	}
	return &job, nil
}

func (q *Queue) saveJob(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshalling job: %w", err)
	}
	return q.rdb.HSet(ctx, fmt.Sprintf(jobHashFmt, job.ID), "data", payload).Err()
}

// retain appends a job id to a ledger list (completed or failed), trims it to maxEntries,
// and sets an expiry matching the retention window on the list key itself.
func (q *Queue) retain(ctx context.Context, listKey, jobID string, maxEntries int, retention time.Duration) error {
	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, listKey, jobID)
	pipe.LTrim(ctx, listKey, 0, int64(maxEntries-1))
	pipe.Expire(ctx, listKey, retention)
	_, err := pipe.Exec(ctx)
	return err
}

// Stats reports live counters for the scheduler/API's /scheduler/stats and
// general observability needs.
type Stats struct {
	Queued    int64 `json:"queued"`
	InFlight  int64 `json:"inFlight"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// QueueStats aggregates counts across all priority bands plus the ledgers.
func (q *Queue) QueueStats(ctx context.Context) (Stats, error) {
	var queued int64
	for _, p := range priorityBands {
		n, err := q.rdb.ZCard(ctx, fmt.Sprintf(priorityZSetFmt, p)).Result()
		if err != nil {
			return Stats{}, fmt.Errorf("counting priority band %d: %w", p, err)
		}
		queued += n
	}
	inFlight, err := q.rdb.SCard(ctx, inFlightSetKey).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("counting in-flight jobs: %w", err)
	}
	completed, err := q.rdb.LLen(ctx, completedListKey).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("counting completed ledger: %w", err)
	}
	failed, err := q.rdb.LLen(ctx, failedListKey).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("counting failed ledger: %w", err)
	}
	return Stats{Queued: queued, InFlight: inFlight, Completed: completed, Failed: failed}, nil
}
