package sqlstore

import "github.com/goliatone/go-tally/core"

var (
	_ core.LedgerStore   = (*LedgerStore)(nil)
	_ core.LedgerStore   = (*CachedLedgerStore)(nil)
	_ core.MarkerStore   = (*MarkerStore)(nil)
	_ core.StoreProvider = (*RepositoryFactory)(nil)
)
