package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultMarkerTTL = 14 * 24 * time.Hour
const defaultMarkerMaxEntries = 8192

// MemoryMarkerStore is the in-process MarkerStore used by tests and
// single-instance deployments. Shared state across instances requires one of
// the persistent stores.
type MemoryMarkerStore struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	maxEntries int
	entries    map[string]time.Time
	Now        func() time.Time
}

func NewMemoryMarkerStore(defaultTTL time.Duration) *MemoryMarkerStore {
	return NewMemoryMarkerStoreWithLimits(defaultTTL, defaultMarkerMaxEntries)
}

func NewMemoryMarkerStoreWithLimits(defaultTTL time.Duration, maxEntries int) *MemoryMarkerStore {
	if defaultTTL <= 0 {
		defaultTTL = defaultMarkerTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMarkerMaxEntries
	}
	return &MemoryMarkerStore{
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		entries:    map[string]time.Time{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryMarkerStore) Seen(_ context.Context, eventID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("core: marker store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, fmt.Errorf("core: event id is required")
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.entries[eventID]
	if !ok {
		return false, nil
	}
	if !now.Before(expiresAt) {
		delete(s.entries, eventID)
		return false, nil
	}
	return true, nil
}

func (s *MemoryMarkerStore) MarkIfNew(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("core: marker store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, fmt.Errorf("core: event id is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked(now)
	if expiresAt, ok := s.entries[eventID]; ok {
		if now.Before(expiresAt) {
			return false, nil
		}
		delete(s.entries, eventID)
	}
	s.enforceCapacityLocked(1)
	s.entries[eventID] = now.Add(ttl)
	return true, nil
}

func (s *MemoryMarkerStore) PurgeExpired(_ context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: marker store is not configured")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for eventID, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, eventID)
			pruned++
		}
	}
	return pruned, nil
}

func (s *MemoryMarkerStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *MemoryMarkerStore) pruneExpiredLocked(now time.Time) {
	for eventID, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, eventID)
		}
	}
}

func (s *MemoryMarkerStore) enforceCapacityLocked(incoming int) {
	if s.maxEntries <= 0 {
		return
	}
	target := s.maxEntries - incoming
	if target < 0 {
		target = 0
	}
	for len(s.entries) > target {
		s.evictOldestLocked()
	}
}

func (s *MemoryMarkerStore) evictOldestLocked() {
	var oldestKey string
	var oldestExpiry time.Time
	for key, expiry := range s.entries {
		if oldestKey == "" || expiry.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = expiry
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

var _ MarkerStore = (*MemoryMarkerStore)(nil)
