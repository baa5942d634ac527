package query

import (
	"context"

	"github.com/goliatone/go-tally/core"
)

type LedgerReader interface {
	GetLedger(ctx context.Context) (core.Ledger, error)
	GetTotal(ctx context.Context) (int64, error)
}

type GetLedgerQuery struct {
	reader LedgerReader
}

func NewGetLedgerQuery(reader LedgerReader) *GetLedgerQuery {
	return &GetLedgerQuery{reader: reader}
}

func (q *GetLedgerQuery) Query(ctx context.Context, msg GetLedgerMessage) (core.Ledger, error) {
	if q == nil || q.reader == nil {
		return core.Ledger{}, queryDependencyError("query: ledger reader is required")
	}
	return q.reader.GetLedger(ctx)
}

type GetTotalQuery struct {
	reader LedgerReader
}

func NewGetTotalQuery(reader LedgerReader) *GetTotalQuery {
	return &GetTotalQuery{reader: reader}
}

func (q *GetTotalQuery) Query(ctx context.Context, msg GetTotalMessage) (int64, error) {
	if q == nil || q.reader == nil {
		return 0, queryDependencyError("query: ledger reader is required")
	}
	return q.reader.GetTotal(ctx)
}
