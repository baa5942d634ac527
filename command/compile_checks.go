package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[IngestEventMessage]  = (*IngestEventCommand)(nil)
	_ gocmd.Commander[PurgeMarkersMessage] = (*PurgeMarkersCommand)(nil)
)
