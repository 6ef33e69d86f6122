package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb)
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, Job{TenantID: "tenant-1", BenchmarkKind: "cisV4", Priority: 5})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty job id")
	}

	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job == nil {
		t.Fatal("expected a job, got nil")
	}
	if job.ID != id {
		t.Fatalf("expected job id %s, got %s", id, job.ID)
	}
	if job.Status != JobRunning {
		t.Fatalf("expected status running after dequeue, got %s", job.Status)
	}
	if job.Attempts != 1 {
		t.Fatalf("expected attempts=1 after first dequeue, got %d", job.Attempts)
	}
}

func TestDequeueEmptyQueueReturnsNil(t *testing.T) {
	q := newTestQueue(t)
	job, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job on empty queue, got %+v", job)
	}
}

func TestDequeuePrefersLowerPriorityNumber(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	lowPriorityID, err := q.Enqueue(ctx, Job{TenantID: "t", Priority: 5})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	highPriorityID, err := q.Enqueue(ctx, Job{TenantID: "t", Priority: 1})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job.ID != highPriorityID {
		t.Fatalf("expected the priority-1 job (%s) to dequeue first, got %s", highPriorityID, job.ID)
	}
	_ = lowPriorityID
}

func TestEnqueueIsIdempotentByAssessmentID(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Job{AssessmentID: "assessment-1", TenantID: "t", Priority: 5})
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	second, err := q.Enqueue(ctx, Job{AssessmentID: "assessment-1", TenantID: "t", Priority: 5})
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if first != second {
		t.Fatalf("expected idempotent enqueue to return the same job id, got %s and %s", first, second)
	}
}

func TestCompleteRetainsJobOnLedger(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, _ := q.Enqueue(ctx, Job{TenantID: "t", Priority: 5})
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := q.Complete(ctx, id); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stats, err := q.QueueStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Completed != 1 {
		t.Fatalf("expected 1 completed job, got %d", stats.Completed)
	}
	if stats.InFlight != 0 {
		t.Fatalf("expected 0 in-flight after completion, got %d", stats.InFlight)
	}
}

func TestFailReschedulesUntilAttemptsExhausted(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, Job{TenantID: "t", Priority: 5, MaxAttempts: 2})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// First attempt: dequeue, fail -> rescheduled (attempts=1 < max=2).
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := q.Fail(ctx, id, "graph auth failed"); err != nil {
		t.Fatalf("fail (1st): %v", err)
	}
	job, err := q.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != JobQueued {
		t.Fatalf("expected job requeued after first failure, got %s", job.Status)
	}

	// Second attempt: dequeue, fail -> exhausted (attempts=2 == max=2) -> dead-lettered.
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := q.Fail(ctx, id, "graph auth failed again"); err != nil {
		t.Fatalf("fail (2nd): %v", err)
	}
	job, err = q.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != JobFailed {
		t.Fatalf("expected job failed after exhausting attempts, got %s", job.Status)
	}

	stats, err := q.QueueStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected 1 failed job on the dead-letter ledger, got %d", stats.Failed)
	}
}

func TestRetryDelayGrowsExponentially(t *testing.T) {
	d1 := retryDelay(1, false)
	d2 := retryDelay(2, false)
	d3 := retryDelay(3, false)
	if d2 != d1*backoffFactor {
		t.Fatalf("expected delay to double: d1=%v d2=%v", d1, d2)
	}
	if d3 != d2*backoffFactor {
		t.Fatalf("expected delay to double again: d2=%v d3=%v", d2, d3)
	}
	if scheduled := retryDelay(1, true); scheduled != scheduledBaseBackoff {
		t.Fatalf("expected scheduled base backoff %v, got %v", scheduledBaseBackoff, scheduled)
	}
}
