package sqlstore

import (
	"context"
	"fmt"
	"sync/atomic"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-tally/core"
)

const (
	ledgerTotalCacheKey   = "go-tally::ledger_total::v1"
	latestPaymentCacheKey = "go-tally::latest_payment::v1"
)

// CachedLedgerStore fronts ledger reads with a cache service. The display
// endpoint reads far more often than payments arrive; writes invalidate so
// the next read refetches from the base store. The last total observed from
// the base store is retained so reads keep serving a value when the base
// store is briefly unavailable.
type CachedLedgerStore struct {
	base  core.LedgerStore
	cache repositorycache.CacheService

	lastTotal    atomic.Int64
	hasLastTotal atomic.Bool
}

func NewCachedLedgerStore(base core.LedgerStore, cacheService repositorycache.CacheService) (*CachedLedgerStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base ledger store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: ledger cache service is required")
	}
	return &CachedLedgerStore{base: base, cache: cacheService}, nil
}

func (s *CachedLedgerStore) AddAmount(ctx context.Context, deltaMinorUnits int64) (int64, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("sqlstore: cached ledger store is not configured")
	}
	total, err := s.base.AddAmount(ctx, deltaMinorUnits)
	if err != nil {
		return 0, err
	}
	s.rememberTotal(total)
	if err := s.cache.Delete(ctx, ledgerTotalCacheKey); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *CachedLedgerStore) ReadTotal(ctx context.Context) (int64, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("sqlstore: cached ledger store is not configured")
	}
	total, err := repositorycache.GetOrFetch(ctx, s.cache, ledgerTotalCacheKey, func(ctx context.Context) (int64, error) {
		return s.base.ReadTotal(ctx)
	})
	if err != nil {
		if s.hasLastTotal.Load() {
			return s.lastTotal.Load(), nil
		}
		return 0, err
	}
	s.rememberTotal(total)
	return total, nil
}

func (s *CachedLedgerStore) rememberTotal(total int64) {
	s.lastTotal.Store(total)
	s.hasLastTotal.Store(true)
}

func (s *CachedLedgerStore) RecordLatestPayment(ctx context.Context, payment core.LatestPayment) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached ledger store is not configured")
	}
	if err := s.base.RecordLatestPayment(ctx, payment); err != nil {
		return err
	}
	return s.cache.Delete(ctx, latestPaymentCacheKey)
}

func (s *CachedLedgerStore) ReadLatestPayment(ctx context.Context) (*core.LatestPayment, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached ledger store is not configured")
	}
	cached, err := repositorycache.GetOrFetch(ctx, s.cache, latestPaymentCacheKey, func(ctx context.Context) (core.LatestPayment, error) {
		latest, fetchErr := s.base.ReadLatestPayment(ctx)
		if fetchErr != nil {
			return core.LatestPayment{}, fetchErr
		}
		if latest == nil {
			return core.LatestPayment{}, nil
		}
		return *latest, nil
	})
	if err != nil {
		return nil, err
	}
	if cached == (core.LatestPayment{}) {
		return nil, nil
	}
	copied := cached
	return &copied, nil
}

var _ core.LedgerStore = (*CachedLedgerStore)(nil)
