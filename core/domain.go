package core

import (
	"strings"
	"time"
)

// Recognized notification types emitted by the payment processor. Anything
// else decodes into an ignored classification rather than an error.
const (
	EventTypeChargeSucceeded          = "charge.succeeded"
	EventTypePaymentIntentSucceeded   = "payment_intent.succeeded"
	EventTypeCheckoutSessionCompleted = "checkout.session.completed"
)

type EventKind string

const (
	// EventKindContributing events increment the ledger total and record the
	// latest payment. Only the authoritative settlement event qualifies.
	EventKindContributing EventKind = "contributing"
	// EventKindRecordOnly events update the latest-payment slot without
	// touching the total; the processor emits them alongside the settlement
	// event for the same purchase, so counting both would double count.
	EventKindRecordOnly EventKind = "record_only"
	EventKindIgnored    EventKind = "ignored"
)

// MinorUnitsPerMajor is the minor-unit denomination used for display
// rounding. The stored total is always minor units.
const MinorUnitsPerMajor int64 = 100

// InboundEvent is the decoded, transient form of one processor notification.
type InboundEvent struct {
	ID               string
	Type             string
	Currency         string
	AmountMinorUnits int64
	PayerName        string
	OccurredAt       time.Time
}

// Classification is the applier's instruction set for one verified event.
type Classification struct {
	EventID          string
	Kind             EventKind
	AddToTotal       bool
	AmountMinorUnits int64
	Currency         string
	PayerName        string
	OccurredAt       time.Time
}

// LatestPayment is the informational "most recent payment" snapshot. It is
// last-write-wins and independent of whether the event contributed to the
// total.
type LatestPayment struct {
	PayerName        string    `json:"payer_name"`
	AmountMinorUnits int64     `json:"amount_minor_units"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Ledger is the read-model returned to the presentation layer.
type Ledger struct {
	TotalMinorUnits int64          `json:"total_minor_units"`
	LatestPayment   *LatestPayment `json:"latest_payment,omitempty"`
}

type IngestRequest struct {
	Body            []byte
	SignatureHeader string
	Metadata        map[string]any
}

type IngestOutcome string

const (
	OutcomeApplied   IngestOutcome = "applied"
	OutcomeRecorded  IngestOutcome = "recorded"
	OutcomeIgnored   IngestOutcome = "ignored"
	OutcomeDuplicate IngestOutcome = "duplicate"
)

type IngestResult struct {
	Outcome         IngestOutcome
	StatusCode      int
	TotalMinorUnits int64
	Metadata        map[string]any
}

// DisplayMajorUnits rounds a minor-unit total half-up to whole major units.
// Display only; the stored value is never rounded.
func DisplayMajorUnits(totalMinorUnits int64) int64 {
	if totalMinorUnits <= 0 {
		return 0
	}
	return (totalMinorUnits + MinorUnitsPerMajor/2) / MinorUnitsPerMajor
}

// SameCurrency compares ISO currency codes case-insensitively.
func SameCurrency(a string, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
