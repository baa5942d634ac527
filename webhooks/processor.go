package webhooks

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-tally/core"
)

// Processor runs the ingestion state machine for one delivery:
//
//	verify -> decode -> duplicate check -> classify -> apply -> mark
//
// Deliveries are at-least-once, so duplicates are normal traffic: they get a
// 200 with deduped metadata, never an error. The marker write is last; see
// the package comment for the crash-ordering rationale.
type Processor struct {
	verifier   core.Verifier
	decoder    core.EventDecoder
	classifier core.Classifier
	markers    core.MarkerStore
	applier    *LedgerApplier
	logger     core.Logger

	markerTTL  time.Duration
	failClosed bool
}

type ProcessorOption func(*Processor)

// WithProcessorLogger replaces the no-op logger.
func WithProcessorLogger(logger core.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMarkerTTL sets how long dedup markers outlive their event. It should
// comfortably exceed the sender's redelivery horizon.
func WithMarkerTTL(ttl time.Duration) ProcessorOption {
	return func(p *Processor) {
		if ttl > 0 {
			p.markerTTL = ttl
		}
	}
}

// WithFailClosedDedup rejects deliveries when the duplicate pre-check itself
// fails. The default is fail-open: an unreachable marker store degrades to a
// possible duplicate add instead of dropping payments on the floor.
func WithFailClosedDedup(failClosed bool) ProcessorOption {
	return func(p *Processor) {
		p.failClosed = failClosed
	}
}

func NewProcessor(
	verifier core.Verifier,
	decoder core.EventDecoder,
	classifier core.Classifier,
	markers core.MarkerStore,
	ledger core.LedgerStore,
	options ...ProcessorOption,
) *Processor {
	p := &Processor{
		verifier:   verifier,
		decoder:    decoder,
		classifier: classifier,
		markers:    markers,
		applier:    NewLedgerApplier(ledger),
		logger:     glog.Nop(),
		markerTTL:  defaultProcessorMarkerTTL,
	}
	for _, option := range options {
		if option != nil {
			option(p)
		}
	}
	return p
}

const defaultProcessorMarkerTTL = 14 * 24 * time.Hour

// Process handles one delivery end to end. The returned result always has a
// usable status code, including on error.
func (p *Processor) Process(ctx context.Context, req core.IngestRequest) (core.IngestResult, error) {
	if p == nil || p.verifier == nil || p.decoder == nil || p.classifier == nil ||
		p.markers == nil || p.applier == nil {
		err := core.StorageError(nil, "webhooks: processor is not fully configured", nil)
		return errorResult(err, nil), err
	}

	metadata := cloneMetadata(req.Metadata)

	if err := p.verifier.Verify(ctx, req.Body, req.SignatureHeader); err != nil {
		return errorResult(err, metadata), err
	}

	event, err := p.decoder.Decode(req.Body)
	if err != nil {
		return errorResult(err, metadata), err
	}
	metadata["event_id"] = event.ID
	metadata["event_type"] = event.Type

	seen, err := p.markers.Seen(ctx, event.ID)
	if err != nil {
		if p.failClosed {
			storageErr := core.StorageError(err, "webhooks: duplicate check failed", map[string]any{
				"event_id": event.ID,
			})
			return errorResult(storageErr, metadata), storageErr
		}
		p.logger.Warn("duplicate check degraded, continuing fail-open",
			"event_id", event.ID,
			"error", err,
		)
		seen = false
	}
	if seen {
		metadata["deduped"] = true
		return core.IngestResult{
			Outcome:    core.OutcomeDuplicate,
			StatusCode: http.StatusOK,
			Metadata:   metadata,
		}, nil
	}

	classification := p.classifier.Classify(event)
	metadata["event_kind"] = string(classification.Kind)

	if classification.Kind == core.EventKindIgnored {
		// Ignored events still get a marker so redeliveries short-circuit,
		// but a marker failure here has nothing to protect; acknowledge anyway.
		if _, err := p.markers.MarkIfNew(ctx, event.ID, p.markerTTL); err != nil {
			p.logger.Warn("marker write failed for ignored event",
				"event_id", event.ID,
				"error", err,
			)
		}
		return core.IngestResult{
			Outcome:    core.OutcomeIgnored,
			StatusCode: http.StatusOK,
			Metadata:   metadata,
		}, nil
	}

	outcome, newTotal, err := p.applier.Apply(ctx, classification)
	if err != nil {
		return errorResult(err, metadata), err
	}

	fresh, err := p.markers.MarkIfNew(ctx, event.ID, p.markerTTL)
	if err != nil {
		// The mutation is in but the marker is not; acknowledging now would
		// make a redelivery double count with no trace. Surface a retryable
		// failure and let the dedup pre-check absorb the redelivery once the
		// store recovers.
		storageErr := core.StorageError(err, "webhooks: marker write failed after apply", map[string]any{
			"event_id": event.ID,
		})
		return errorResult(storageErr, metadata), storageErr
	}
	if !fresh {
		// A concurrent delivery of the same event won the marker race after
		// our pre-check. Both mutations landed; flag it for reconciliation.
		metadata["marker_race"] = true
		p.logger.Warn("concurrent duplicate delivery applied",
			"event_id", event.ID,
		)
	}

	return core.IngestResult{
		Outcome:         outcome,
		StatusCode:      http.StatusOK,
		TotalMinorUnits: newTotal,
		Metadata:        metadata,
	}, nil
}

func errorResult(err error, metadata map[string]any) core.IngestResult {
	mapped := core.MapError(err)
	status := http.StatusInternalServerError
	if mapped != nil && mapped.Code > 0 {
		status = mapped.Code
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["rejected"] = true
	if mapped != nil {
		metadata["error_code"] = mapped.TextCode
	}
	return core.IngestResult{
		StatusCode: status,
		Metadata:   metadata,
	}
}

func cloneMetadata(metadata map[string]any) map[string]any {
	cloned := make(map[string]any, len(metadata)+4)
	for key, value := range metadata {
		cloned[key] = value
	}
	return cloned
}
