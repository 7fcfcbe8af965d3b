package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-marketplace-auth/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

func TestMessageMappingRoundTrip(t *testing.T) {
	original := &core.JobExecutionMessage{
		JobID:          JobIDSessionSweep,
		Parameters:     map[string]any{"tenant_hint": "tenant_1"},
		IdempotencyKey: "idem-sweep",
	}

	converted := ToExecutionMessage(original)
	if converted == nil {
		t.Fatalf("expected converted message")
	}
	roundTrip := FromExecutionMessage(converted)
	if roundTrip.JobID != original.JobID {
		t.Fatalf("expected job id %q, got %q", original.JobID, roundTrip.JobID)
	}
	if roundTrip.IdempotencyKey != original.IdempotencyKey {
		t.Fatalf("expected idempotency key %q, got %q", original.IdempotencyKey, roundTrip.IdempotencyKey)
	}
	if roundTrip.Parameters["tenant_hint"] != "tenant_1" {
		t.Fatalf("expected parameters to survive mapping")
	}
}

func TestNewSessionSweepMessageBucketsByHour(t *testing.T) {
	first := NewSessionSweepMessage(time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC))
	second := NewSessionSweepMessage(time.Date(2026, 3, 1, 12, 55, 0, 0, time.UTC))
	third := NewSessionSweepMessage(time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC))

	if first.JobID != JobIDSessionSweep {
		t.Fatalf("unexpected job id %q", first.JobID)
	}
	if first.IdempotencyKey != second.IdempotencyKey {
		t.Fatalf("expected same-hour enqueues to share an idempotency key")
	}
	if first.IdempotencyKey == third.IdempotencyKey {
		t.Fatalf("expected distinct keys across hours")
	}
}

func TestEnqueueAndDequeueAdapters(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	enqueueAdapter := NewEnqueuerAdapter(enqueuer)

	if err := enqueueAdapter.Enqueue(ctx, NewSessionSweepMessage(time.Now())); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDSessionSweep {
		t.Fatalf("expected mapped go-job message")
	}

	dequeuer := &stubQueueDequeuer{delivery: &stubQueueDelivery{msg: enqueuer.last}}
	dequeueAdapter := NewDequeuerAdapter(dequeuer, RetryPolicy{})
	delivery, err := dequeueAdapter.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	got := delivery.Message()
	if got == nil || got.JobID != JobIDSessionSweep {
		t.Fatalf("expected mapped core message")
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !dequeuer.delivery.(*stubQueueDelivery).acked {
		t.Fatalf("expected ack on underlying delivery")
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{JobID: JobIDSessionSweep},
	}
	adapter := NewDeliveryAdapter(rawDelivery, RetryPolicy{
		MaxAttempts:     3,
		MaxDelay:        10 * time.Second,
		DeadLetterOnMax: true,
	})

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   30 * time.Second,
		Requeue: true,
		Reason:  "transient",
	}, 1); err != nil {
		t.Fatalf("nack attempt 1: %v", err)
	}
	if rawDelivery.nackOpts.Delay != 10*time.Second {
		t.Fatalf("expected delay to be bounded, got %s", rawDelivery.nackOpts.Delay)
	}
	if !rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected message to be requeued before max attempts")
	}

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   time.Second,
		Requeue: true,
		Reason:  "still failing",
	}, 3); err != nil {
		t.Fatalf("nack max attempt: %v", err)
	}
	if rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected no requeue once max attempts is reached")
	}
	if !rawDelivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter on max attempts")
	}
}

func TestProcessSessionSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("success acks", func(t *testing.T) {
		raw := &stubQueueDelivery{msg: ToExecutionMessage(NewSessionSweepMessage(time.Now()))}
		delivery := NewDeliveryAdapter(raw, RetryPolicy{})
		sweeper := stubSweeper{cleared: 4}
		cleared, err := ProcessSessionSweep(ctx, sweeper, delivery, 1)
		if err != nil {
			t.Fatalf("process sweep: %v", err)
		}
		if cleared != 4 {
			t.Fatalf("expected 4 cleared, got %d", cleared)
		}
		if !raw.acked {
			t.Fatalf("expected ack after sweep")
		}
	})

	t.Run("failure nacks for retry", func(t *testing.T) {
		raw := &stubQueueDelivery{msg: ToExecutionMessage(NewSessionSweepMessage(time.Now()))}
		delivery := NewDeliveryAdapter(raw, RetryPolicy{MaxAttempts: 5})
		sweeper := stubSweeper{err: errors.New("db down")}
		if _, err := ProcessSessionSweep(ctx, sweeper, delivery, 1); err == nil {
			t.Fatalf("expected sweep failure to surface")
		}
		if raw.acked {
			t.Fatalf("expected no ack on failure")
		}
		if !raw.nackOpts.Requeue {
			t.Fatalf("expected requeue on transient failure")
		}
	})

	t.Run("unknown job dead letters", func(t *testing.T) {
		raw := &stubQueueDelivery{msg: &job.ExecutionMessage{JobID: "marketplace_auth.unknown"}}
		delivery := NewDeliveryAdapter(raw, RetryPolicy{})
		if _, err := ProcessSessionSweep(ctx, stubSweeper{}, delivery, 1); err == nil {
			t.Fatalf("expected unknown job error")
		}
		if !raw.nackOpts.DeadLetter {
			t.Fatalf("expected dead letter for unknown job")
		}
	})
}

type stubSweeper struct {
	cleared int
	err     error
}

func (s stubSweeper) SweepExpiredSessions(context.Context) (int, error) {
	return s.cleared, s.err
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}
