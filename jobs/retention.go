// Package jobs runs the background maintenance work the ledger needs: a
// periodic sweep that purges expired dedup markers so marker tables stay
// bounded between sender retry horizons.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-tally/adapters/gojob"
	"github.com/goliatone/go-tally/core"
)

// RetentionConfig bounds the sweep worker's retry behavior.
type RetentionConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		MaxAttempts: 5,
		RetryDelay:  30 * time.Second,
	}
}

// RetentionStats reports the outcome of a sweep run.
type RetentionStats struct {
	Purged int
	Acked  bool
}

// RetentionSweeper consumes purge jobs from a queue and removes expired
// markers from the configured store.
type RetentionSweeper struct {
	markers core.MarkerStore
	config  RetentionConfig
	logger  glog.Logger
	now     func() time.Time
}

type RetentionOption func(*RetentionSweeper)

func WithRetentionConfig(config RetentionConfig) RetentionOption {
	return func(s *RetentionSweeper) {
		if config.MaxAttempts > 0 {
			s.config.MaxAttempts = config.MaxAttempts
		}
		if config.RetryDelay > 0 {
			s.config.RetryDelay = config.RetryDelay
		}
	}
}

func WithRetentionLogger(logger glog.Logger) RetentionOption {
	return func(s *RetentionSweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewRetentionSweeper(markers core.MarkerStore, opts ...RetentionOption) (*RetentionSweeper, error) {
	if markers == nil {
		return nil, fmt.Errorf("jobs: marker store is required")
	}
	sweeper := &RetentionSweeper{
		markers: markers,
		config:  DefaultRetentionConfig(),
		logger:  glog.Nop(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sweeper)
		}
	}
	return sweeper, nil
}

// EnqueueSweep schedules a purge run. The idempotency key is derived from the
// sweep date so a rescheduled trigger for the same day collapses to one job.
func EnqueueSweep(ctx context.Context, enqueuer core.JobEnqueuer, at time.Time) error {
	if enqueuer == nil {
		return fmt.Errorf("jobs: enqueuer is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return enqueuer.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          gojob.JobIDPurgeMarkers,
		IdempotencyKey: fmt.Sprintf("%s:%s", gojob.JobIDPurgeMarkers, at.UTC().Format("2006-01-02")),
		DedupPolicy:    "drop",
	})
}

// ProcessDelivery handles a single queue delivery: purge on a matching job id,
// dead-letter anything the sweeper does not own, and requeue transient store
// failures with a delay until attempts are exhausted.
func (s *RetentionSweeper) ProcessDelivery(ctx context.Context, delivery core.JobDelivery, attempt int) (RetentionStats, error) {
	if s == nil || s.markers == nil {
		return RetentionStats{}, fmt.Errorf("jobs: retention sweeper is not configured")
	}
	if delivery == nil {
		return RetentionStats{}, fmt.Errorf("jobs: delivery is required")
	}

	msg := delivery.Message()
	if msg == nil || strings.TrimSpace(msg.JobID) != gojob.JobIDPurgeMarkers {
		jobID := ""
		if msg != nil {
			jobID = msg.JobID
		}
		s.logger.Warn("retention sweep received foreign job", "job_id", jobID)
		if err := delivery.Nack(ctx, core.JobNackOptions{
			Requeue:    false,
			DeadLetter: true,
			Reason:     "unexpected job id",
		}); err != nil {
			return RetentionStats{}, err
		}
		return RetentionStats{}, nil
	}

	purged, err := s.markers.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("retention sweep failed", "error", err, "attempt", attempt)
		nack := core.JobNackOptions{
			Delay:   s.config.RetryDelay,
			Requeue: true,
			Reason:  err.Error(),
		}
		if s.config.MaxAttempts > 0 && attempt+1 >= s.config.MaxAttempts {
			nack.Requeue = false
			nack.DeadLetter = true
		}
		if nackErr := delivery.Nack(ctx, nack); nackErr != nil {
			return RetentionStats{}, fmt.Errorf("jobs: nack after sweep failure: %w", nackErr)
		}
		return RetentionStats{}, err
	}

	if err := delivery.Ack(ctx); err != nil {
		return RetentionStats{Purged: purged}, fmt.Errorf("jobs: ack sweep delivery: %w", err)
	}
	s.logger.Info("retention sweep completed", "purged", purged)
	return RetentionStats{Purged: purged, Acked: true}, nil
}

// Run consumes deliveries until the context is canceled or the dequeuer
// reports a terminal error. Sweep failures are logged and retried through the
// queue; they do not stop the loop.
func (s *RetentionSweeper) Run(ctx context.Context, dequeuer core.JobDequeuer) error {
	if s == nil || s.markers == nil {
		return fmt.Errorf("jobs: retention sweeper is not configured")
	}
	if dequeuer == nil {
		return fmt.Errorf("jobs: dequeuer is required")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivery, err := dequeuer.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("jobs: dequeue sweep job: %w", err)
		}
		if delivery == nil {
			continue
		}
		if _, err := s.ProcessDelivery(ctx, delivery, 0); err != nil {
			s.logger.Warn("retention sweep delivery failed", "error", err)
		}
	}
}
