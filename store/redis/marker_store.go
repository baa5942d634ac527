package redisstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-tally/core"
	"github.com/redis/go-redis/v9"
)

const markerKeyPrefix = "tally:processed:"

type MarkerStore struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func NewMarkerStore(client *redis.Client, defaultTTL time.Duration) (*MarkerStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: redis client is required")
	}
	if defaultTTL <= 0 {
		defaultTTL = 14 * 24 * time.Hour
	}
	return &MarkerStore{client: client, defaultTTL: defaultTTL}, nil
}

func (s *MarkerStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if s == nil || s.client == nil {
		return false, fmt.Errorf("redisstore: marker store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, fmt.Errorf("redisstore: event id is required")
	}
	count, err := s.client.Exists(ctx, markerKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MarkerStore) MarkIfNew(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if s == nil || s.client == nil {
		return false, fmt.Errorf("redisstore: marker store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, fmt.Errorf("redisstore: event id is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.client.SetNX(ctx, markerKeyPrefix+eventID, "1", ttl).Result()
}

// PurgeExpired is a no-op: Redis evicts markers when their TTL lapses.
func (s *MarkerStore) PurgeExpired(context.Context) (int, error) {
	if s == nil || s.client == nil {
		return 0, fmt.Errorf("redisstore: marker store is not configured")
	}
	return 0, nil
}

var _ core.MarkerStore = (*MarkerStore)(nil)
