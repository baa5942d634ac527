package tally

import (
	"fmt"

	tallycommand "github.com/goliatone/go-tally/command"
	tallyquery "github.com/goliatone/go-tally/query"
)

// CommandQueryService is the surface the command and query handlers need.
type CommandQueryService interface {
	tallycommand.MutatingService
	tallyquery.LedgerReader
}

type Commands struct {
	IngestEvent  *tallycommand.IngestEventCommand
	PurgeMarkers *tallycommand.PurgeMarkersCommand
}

type Queries struct {
	GetLedger *tallyquery.GetLedgerQuery
	GetTotal  *tallyquery.GetTotalQuery
}

// Facade bundles ready-to-dispatch command and query handlers around one
// service instance.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("tally: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			IngestEvent:  tallycommand.NewIngestEventCommand(service),
			PurgeMarkers: tallycommand.NewPurgeMarkersCommand(service),
		},
		queries: Queries{
			GetLedger: tallyquery.NewGetLedgerQuery(service),
			GetTotal:  tallyquery.NewGetTotalQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
