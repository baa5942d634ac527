package query

const (
	TypeGetLedger = "tally.query.ledger.get"
	TypeGetTotal  = "tally.query.ledger.total"
)

type GetLedgerMessage struct{}

func (GetLedgerMessage) Type() string { return TypeGetLedger }

func (GetLedgerMessage) Validate() error { return nil }

type GetTotalMessage struct{}

func (GetTotalMessage) Type() string { return TypeGetTotal }

func (GetTotalMessage) Validate() error { return nil }
