package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tally/core"
)

var (
	_ gocmd.Querier[GetLedgerMessage, core.Ledger] = (*GetLedgerQuery)(nil)
	_ gocmd.Querier[GetTotalMessage, int64]        = (*GetTotalQuery)(nil)
)
