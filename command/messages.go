package command

import (
	"fmt"
	"strings"
)

const (
	TypeIngestEvent  = "tally.command.ingest_event"
	TypePurgeMarkers = "tally.command.markers.purge"
)

type IngestEventMessage struct {
	Body            []byte
	SignatureHeader string
	Metadata        map[string]any
}

func (IngestEventMessage) Type() string { return TypeIngestEvent }

func (m IngestEventMessage) Validate() error {
	if len(m.Body) == 0 {
		return fmt.Errorf("command: request body is required")
	}
	if strings.TrimSpace(m.SignatureHeader) == "" {
		return fmt.Errorf("command: signature header is required")
	}
	return nil
}

type PurgeMarkersMessage struct{}

func (PurgeMarkersMessage) Type() string { return TypePurgeMarkers }

func (PurgeMarkersMessage) Validate() error { return nil }
