package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// Singleton row identifiers. The ledger keeps exactly one total row and one
// latest-payment row; the fixed ids make the CAS predicate trivial.
const (
	ledgerTotalSingletonID   = "00000000-0000-0000-0000-000000000001"
	latestPaymentSingletonID = "00000000-0000-0000-0000-000000000002"
)

type ledgerTotalRecord struct {
	bun.BaseModel `bun:"table:tally_ledger_totals,alias:tlt"`

	ID              string    `bun:"id,pk"`
	TotalMinorUnits int64     `bun:"total_minor_units,notnull"`
	Version         int64     `bun:"version,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type processedEventRecord struct {
	bun.BaseModel `bun:"table:tally_processed_events,alias:tpe"`

	EventID   string    `bun:"event_id,pk"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type latestPaymentRecord struct {
	bun.BaseModel `bun:"table:tally_latest_payments,alias:tlp"`

	ID               string    `bun:"id,pk"`
	PayerName        string    `bun:"payer_name"`
	AmountMinorUnits int64     `bun:"amount_minor_units,notnull"`
	OccurredAt       time.Time `bun:"occurred_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
