package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// MarkerStore tracks which event ids have already been applied. Markers are
// never mutated; they expire after the sender's retry horizon.
type MarkerStore interface {
	// Seen reports whether a live marker exists for the event id.
	Seen(ctx context.Context, eventID string) (bool, error)
	// MarkIfNew writes a marker with the given TTL if none exists. The write
	// must be an atomic insert-if-absent: two concurrent calls for the same
	// id must not both return true.
	MarkIfNew(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// PurgeExpired removes markers past their expiry and returns the count.
	// Stores with native TTL expiry may return 0 without scanning.
	PurgeExpired(ctx context.Context) (int, error)
}

// LedgerStore holds the running total and the latest-payment slot. The total
// never decreases; AddAmount rejects negative deltas.
type LedgerStore interface {
	AddAmount(ctx context.Context, deltaMinorUnits int64) (int64, error)
	ReadTotal(ctx context.Context) (int64, error)
	RecordLatestPayment(ctx context.Context, payment LatestPayment) error
	ReadLatestPayment(ctx context.Context) (*LatestPayment, error)
}

// StoreProvider bundles the persistent stores a backend exposes.
type StoreProvider interface {
	LedgerStore() LedgerStore
	MarkerStore() MarkerStore
}

// Verifier authenticates the raw webhook payload against its signature
// header. Implementations must operate on the exact bytes received.
type Verifier interface {
	Verify(ctx context.Context, body []byte, signatureHeader string) error
}

// EventDecoder parses a verified payload into the closed InboundEvent shape.
type EventDecoder interface {
	Decode(body []byte) (InboundEvent, error)
}

// Classifier decides how a decoded event affects the ledger.
type Classifier interface {
	Classify(event InboundEvent) Classification
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// JobExecutionMessage is the queue-backend-agnostic job contract used by the
// retention sweep; adapters/gojob maps it onto go-job.
type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}
