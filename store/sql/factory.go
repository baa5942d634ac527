package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-tally/core"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	initialTotal   int64
	casMaxAttempts int

	ledgerStore *LedgerStore
	markerStore *MarkerStore
}

type FactoryOption func(*RepositoryFactory)

func WithFactoryInitialTotal(totalMinorUnits int64) FactoryOption {
	return func(f *RepositoryFactory) {
		if totalMinorUnits >= 0 {
			f.initialTotal = totalMinorUnits
		}
	}
}

func WithFactoryCASMaxAttempts(attempts int) FactoryOption {
	return func(f *RepositoryFactory) {
		if attempts > 0 {
			f.casMaxAttempts = attempts
		}
	}
}

func NewRepositoryFactory(options ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{
		casMaxAttempts: defaultCASMaxAttempts,
	}
	for _, option := range options {
		if option != nil {
			option(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, options ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(options...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, options ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(options...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.ledgerStore != nil && f.markerStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) LedgerStore() core.LedgerStore {
	if f == nil {
		return nil
	}
	return f.ledgerStore
}

func (f *RepositoryFactory) MarkerStore() core.MarkerStore {
	if f == nil {
		return nil
	}
	return f.markerStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	ledgerStore, err := NewLedgerStore(
		f.db,
		WithInitialTotal(f.initialTotal),
		WithCASMaxAttempts(f.casMaxAttempts),
	)
	if err != nil {
		return err
	}
	f.ledgerStore = ledgerStore

	markerStore, err := NewMarkerStore(f.db)
	if err != nil {
		return err
	}
	f.markerStore = markerStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
