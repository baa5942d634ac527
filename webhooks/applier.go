package webhooks

import (
	"context"
	"time"

	"github.com/goliatone/go-tally/core"
)

// LedgerApplier translates a classification into ledger writes. The total
// increment happens before the latest-payment write because the total is the
// record of truth and the latest payment is informational.
type LedgerApplier struct {
	Ledger core.LedgerStore
	Now    func() time.Time
}

func NewLedgerApplier(ledger core.LedgerStore) *LedgerApplier {
	return &LedgerApplier{
		Ledger: ledger,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Apply mutates the ledger per the classification and reports the outcome.
// The returned total is only meaningful when the outcome is OutcomeApplied.
func (a *LedgerApplier) Apply(ctx context.Context, c core.Classification) (core.IngestOutcome, int64, error) {
	if a == nil || a.Ledger == nil {
		return core.OutcomeIgnored, 0, core.StorageError(nil, "webhooks: ledger store is not configured", nil)
	}
	if c.Kind == core.EventKindIgnored {
		return core.OutcomeIgnored, 0, nil
	}

	var newTotal int64
	outcome := core.OutcomeRecorded
	if c.AddToTotal {
		total, err := a.Ledger.AddAmount(ctx, c.AmountMinorUnits)
		if err != nil {
			return outcome, 0, core.StorageError(err, "webhooks: ledger increment failed", map[string]any{
				"event_id": c.EventID,
			})
		}
		newTotal = total
		outcome = core.OutcomeApplied
	}

	occurredAt := c.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = a.now()
	}
	payment := core.LatestPayment{
		PayerName:        c.PayerName,
		AmountMinorUnits: c.AmountMinorUnits,
		OccurredAt:       occurredAt,
	}
	if err := a.Ledger.RecordLatestPayment(ctx, payment); err != nil {
		if outcome == core.OutcomeApplied {
			// The total already moved; reporting failure here would trigger a
			// redelivery that the marker has not absorbed yet. The increment
			// is the contract, the snapshot is best effort.
			return outcome, newTotal, nil
		}
		return outcome, 0, core.StorageError(err, "webhooks: latest payment write failed", map[string]any{
			"event_id": c.EventID,
		})
	}

	return outcome, newTotal, nil
}

func (a *LedgerApplier) now() time.Time {
	if a != nil && a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}
