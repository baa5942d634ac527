package redisstore

import (
	"time"

	"github.com/goliatone/go-tally/core"
	"github.com/redis/go-redis/v9"
)

type StoreProvider struct {
	ledgerStore *LedgerStore
	markerStore *MarkerStore
}

func NewStoreProvider(client *redis.Client, markerTTL time.Duration, options ...LedgerStoreOption) (*StoreProvider, error) {
	ledgerStore, err := NewLedgerStore(client, options...)
	if err != nil {
		return nil, err
	}
	markerStore, err := NewMarkerStore(client, markerTTL)
	if err != nil {
		return nil, err
	}
	return &StoreProvider{
		ledgerStore: ledgerStore,
		markerStore: markerStore,
	}, nil
}

func (p *StoreProvider) LedgerStore() core.LedgerStore {
	if p == nil {
		return nil
	}
	return p.ledgerStore
}

func (p *StoreProvider) MarkerStore() core.MarkerStore {
	if p == nil {
		return nil
	}
	return p.markerStore
}

var _ core.StoreProvider = (*StoreProvider)(nil)
