package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-tally/core"
	"github.com/uptrace/bun"
)

const defaultCASMaxAttempts = 5

// LedgerStore persists the running total as a single versioned row. AddAmount
// uses compare-and-swap on the version column instead of read-modify-write,
// so concurrent ingestors can race freely and every increment lands exactly
// once.
type LedgerStore struct {
	db          *bun.DB
	repo        repository.Repository[*ledgerTotalRecord]
	paymentRepo repository.Repository[*latestPaymentRecord]

	initialTotal int64
	maxAttempts  int
	now          func() time.Time
}

type LedgerStoreOption func(*LedgerStore)

// WithInitialTotal seeds the total row on first write. Covers the historical
// balance accumulated before this subsystem came online.
func WithInitialTotal(totalMinorUnits int64) LedgerStoreOption {
	return func(s *LedgerStore) {
		if totalMinorUnits >= 0 {
			s.initialTotal = totalMinorUnits
		}
	}
}

// WithCASMaxAttempts bounds the compare-and-swap retry loop.
func WithCASMaxAttempts(attempts int) LedgerStoreOption {
	return func(s *LedgerStore) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

func NewLedgerStore(db *bun.DB, options ...LedgerStoreOption) (*LedgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*ledgerTotalRecord](db, ledgerTotalHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid ledger total repository wiring: %w", err)
		}
	}
	paymentRepo := repository.NewRepository[*latestPaymentRecord](db, latestPaymentHandlers())
	if validator, ok := paymentRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid latest payment repository wiring: %w", err)
		}
	}
	store := &LedgerStore{
		db:          db,
		repo:        repo,
		paymentRepo: paymentRepo,
		maxAttempts: defaultCASMaxAttempts,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, option := range options {
		if option != nil {
			option(store)
		}
	}
	return store, nil
}

func (s *LedgerStore) AddAmount(ctx context.Context, deltaMinorUnits int64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: ledger store is not configured")
	}
	if deltaMinorUnits < 0 {
		return 0, fmt.Errorf("sqlstore: ledger total is monotonic, negative delta %d rejected", deltaMinorUnits)
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		record := &ledgerTotalRecord{}
		err := s.db.NewSelect().
			Model(record).
			Where("?TableAlias.id = ?", ledgerTotalSingletonID).
			Limit(1).
			Scan(ctx)
		if err == sql.ErrNoRows {
			seeded, total, seedErr := s.seedTotal(ctx, deltaMinorUnits)
			if seedErr != nil {
				return 0, seedErr
			}
			if seeded {
				return total, nil
			}
			// Lost the seed race; re-read and CAS against the winner's row.
			continue
		}
		if err != nil {
			return 0, err
		}

		newTotal := record.TotalMinorUnits + deltaMinorUnits
		result, err := s.db.NewUpdate().
			Model((*ledgerTotalRecord)(nil)).
			Set("total_minor_units = ?", newTotal).
			Set("version = ?", record.Version+1).
			Set("updated_at = ?", s.now()).
			Where("id = ?", ledgerTotalSingletonID).
			Where("version = ?", record.Version).
			Exec(ctx)
		if err != nil {
			return 0, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 1 {
			return newTotal, nil
		}
		// Another writer advanced the version between read and write.
	}
	return 0, fmt.Errorf("sqlstore: ledger update contention persisted after %d attempts", s.maxAttempts)
}

func (s *LedgerStore) seedTotal(ctx context.Context, deltaMinorUnits int64) (bool, int64, error) {
	record := &ledgerTotalRecord{
		ID:              ledgerTotalSingletonID,
		TotalMinorUnits: s.initialTotal + deltaMinorUnits,
		Version:         1,
		UpdatedAt:       s.now(),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, record.TotalMinorUnits, nil
}

func (s *LedgerStore) ReadTotal(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: ledger store is not configured")
	}
	record := &ledgerTotalRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", ledgerTotalSingletonID).
		Limit(1).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return s.initialTotal, nil
	}
	if err != nil {
		return 0, err
	}
	return record.TotalMinorUnits, nil
}

func (s *LedgerStore) RecordLatestPayment(ctx context.Context, payment core.LatestPayment) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: ledger store is not configured")
	}
	now := s.now()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findLatestPaymentTx(ctx, tx)
		if err != nil {
			return err
		}
		if record == nil {
			record = &latestPaymentRecord{
				ID:               latestPaymentSingletonID,
				PayerName:        payment.PayerName,
				AmountMinorUnits: payment.AmountMinorUnits,
				OccurredAt:       payment.OccurredAt.UTC(),
				UpdatedAt:        now,
			}
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				if !isUniqueViolation(insertErr) {
					return insertErr
				}
				record, err = findLatestPaymentTx(ctx, tx)
				if err != nil {
					return err
				}
				if record == nil {
					return insertErr
				}
			} else {
				return nil
			}
		}

		record.PayerName = payment.PayerName
		record.AmountMinorUnits = payment.AmountMinorUnits
		record.OccurredAt = payment.OccurredAt.UTC()
		record.UpdatedAt = now
		_, updateErr := tx.NewUpdate().
			Model(record).
			Where("id = ?", record.ID).
			Exec(ctx)
		return updateErr
	})
}

func (s *LedgerStore) ReadLatestPayment(ctx context.Context) (*core.LatestPayment, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: ledger store is not configured")
	}
	record := &latestPaymentRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", latestPaymentSingletonID).
		Limit(1).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &core.LatestPayment{
		PayerName:        record.PayerName,
		AmountMinorUnits: record.AmountMinorUnits,
		OccurredAt:       record.OccurredAt.UTC(),
	}, nil
}

func findLatestPaymentTx(ctx context.Context, tx bun.Tx) (*latestPaymentRecord, error) {
	record := &latestPaymentRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", latestPaymentSingletonID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
