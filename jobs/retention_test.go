package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-tally/adapters/gojob"
	"github.com/goliatone/go-tally/core"
)

type stubDelivery struct {
	msg      *core.JobExecutionMessage
	acked    bool
	nacked   bool
	lastNack core.JobNackOptions
	ackErr   error
}

func (d *stubDelivery) Message() *core.JobExecutionMessage { return d.msg }

func (d *stubDelivery) Ack(context.Context) error {
	d.acked = true
	return d.ackErr
}

func (d *stubDelivery) Nack(_ context.Context, opts core.JobNackOptions) error {
	d.nacked = true
	d.lastNack = opts
	return nil
}

type failingMarkerStore struct {
	err error
}

func (s *failingMarkerStore) Seen(context.Context, string) (bool, error) { return false, s.err }

func (s *failingMarkerStore) MarkIfNew(context.Context, string, time.Duration) (bool, error) {
	return false, s.err
}

func (s *failingMarkerStore) PurgeExpired(context.Context) (int, error) { return 0, s.err }

type capturingEnqueuer struct {
	last *core.JobExecutionMessage
}

func (e *capturingEnqueuer) Enqueue(_ context.Context, msg *core.JobExecutionMessage) error {
	e.last = msg
	return nil
}

func sweepDelivery() *stubDelivery {
	return &stubDelivery{msg: &core.JobExecutionMessage{JobID: gojob.JobIDPurgeMarkers}}
}

func TestProcessDeliveryPurgesAndAcks(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	markers := core.NewMemoryMarkerStore(time.Hour)
	markers.Now = func() time.Time { return now }
	if _, err := markers.MarkIfNew(ctx, "evt_old", time.Minute); err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	if _, err := markers.MarkIfNew(ctx, "evt_live", time.Hour); err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	markers.Now = func() time.Time { return now.Add(30 * time.Minute) }

	sweeper, err := NewRetentionSweeper(markers)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	delivery := sweepDelivery()
	stats, err := sweeper.ProcessDelivery(ctx, delivery, 0)
	if err != nil {
		t.Fatalf("process delivery: %v", err)
	}
	if stats.Purged != 1 {
		t.Fatalf("expected one expired marker purged, got %d", stats.Purged)
	}
	if !delivery.acked || delivery.nacked {
		t.Fatalf("expected delivery acked, got ack=%v nack=%v", delivery.acked, delivery.nacked)
	}

	seen, err := markers.Seen(ctx, "evt_live")
	if err != nil || !seen {
		t.Fatalf("live marker must survive sweep, seen=%v err=%v", seen, err)
	}
}

func TestProcessDeliveryDeadLettersForeignJob(t *testing.T) {
	sweeper, err := NewRetentionSweeper(core.NewMemoryMarkerStore(0))
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	delivery := &stubDelivery{msg: &core.JobExecutionMessage{JobID: "tally.other"}}
	if _, err := sweeper.ProcessDelivery(context.Background(), delivery, 0); err != nil {
		t.Fatalf("process delivery: %v", err)
	}
	if delivery.acked {
		t.Fatalf("foreign job must not be acked")
	}
	if !delivery.nacked || !delivery.lastNack.DeadLetter || delivery.lastNack.Requeue {
		t.Fatalf("expected dead-letter nack, got %+v", delivery.lastNack)
	}
}

func TestProcessDeliveryRequeuesTransientFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	sweeper, err := NewRetentionSweeper(
		&failingMarkerStore{err: storeErr},
		WithRetentionConfig(RetentionConfig{MaxAttempts: 3, RetryDelay: 10 * time.Second}),
	)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	delivery := sweepDelivery()
	if _, err := sweeper.ProcessDelivery(context.Background(), delivery, 0); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to bubble, got %v", err)
	}
	if !delivery.nacked || !delivery.lastNack.Requeue || delivery.lastNack.DeadLetter {
		t.Fatalf("expected requeue nack, got %+v", delivery.lastNack)
	}
	if delivery.lastNack.Delay != 10*time.Second {
		t.Fatalf("expected retry delay, got %v", delivery.lastNack.Delay)
	}
}

func TestProcessDeliveryDeadLettersAtMaxAttempts(t *testing.T) {
	sweeper, err := NewRetentionSweeper(
		&failingMarkerStore{err: errors.New("down")},
		WithRetentionConfig(RetentionConfig{MaxAttempts: 3}),
	)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	delivery := sweepDelivery()
	if _, err := sweeper.ProcessDelivery(context.Background(), delivery, 2); err == nil {
		t.Fatalf("expected failure at final attempt")
	}
	if delivery.lastNack.Requeue || !delivery.lastNack.DeadLetter {
		t.Fatalf("expected dead-letter at max attempts, got %+v", delivery.lastNack)
	}
}

func TestEnqueueSweepDerivesDailyIdempotencyKey(t *testing.T) {
	enqueuer := &capturingEnqueuer{}
	at := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)

	if err := EnqueueSweep(context.Background(), enqueuer, at); err != nil {
		t.Fatalf("enqueue sweep: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != gojob.JobIDPurgeMarkers {
		t.Fatalf("expected purge job enqueued, got %+v", enqueuer.last)
	}
	if enqueuer.last.IdempotencyKey != gojob.JobIDPurgeMarkers+":2026-03-14" {
		t.Fatalf("unexpected idempotency key %q", enqueuer.last.IdempotencyKey)
	}

	if err := EnqueueSweep(context.Background(), nil, at); err == nil {
		t.Fatalf("expected missing enqueuer error")
	}
}
