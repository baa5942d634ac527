package core

import (
	"context"
	"fmt"
	"sync"
)

// MemoryLedgerStore keeps the running total and latest payment in process.
// Mutations are serialized by a single mutex, so AddAmount is atomic here;
// the persistent stores reproduce that with CAS or native increments.
type MemoryLedgerStore struct {
	mu           sync.Mutex
	initialized  bool
	initialTotal int64
	total        int64
	latest       *LatestPayment
}

func NewMemoryLedgerStore(initialTotalMinorUnits int64) *MemoryLedgerStore {
	if initialTotalMinorUnits < 0 {
		initialTotalMinorUnits = 0
	}
	return &MemoryLedgerStore{initialTotal: initialTotalMinorUnits}
}

func (s *MemoryLedgerStore) AddAmount(_ context.Context, deltaMinorUnits int64) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("core: ledger store is not configured")
	}
	if deltaMinorUnits < 0 {
		return 0, fmt.Errorf("core: ledger total is monotonic, negative delta %d rejected", deltaMinorUnits)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.total = s.initialTotal
		s.initialized = true
	}
	s.total += deltaMinorUnits
	return s.total, nil
}

func (s *MemoryLedgerStore) ReadTotal(_ context.Context) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("core: ledger store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return s.initialTotal, nil
	}
	return s.total, nil
}

func (s *MemoryLedgerStore) RecordLatestPayment(_ context.Context, payment LatestPayment) error {
	if s == nil {
		return fmt.Errorf("core: ledger store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := payment
	s.latest = &copied
	return nil
}

func (s *MemoryLedgerStore) ReadLatestPayment(_ context.Context) (*LatestPayment, error) {
	if s == nil {
		return nil, fmt.Errorf("core: ledger store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil, nil
	}
	copied := *s.latest
	return &copied, nil
}

var _ LedgerStore = (*MemoryLedgerStore)(nil)
