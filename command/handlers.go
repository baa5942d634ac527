package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tally/core"
)

type MutatingService interface {
	IngestEvent(ctx context.Context, req core.IngestRequest) (core.IngestResult, error)
	PurgeExpiredMarkers(ctx context.Context) (int, error)
}

type IngestEventCommand struct {
	service MutatingService
}

func NewIngestEventCommand(service MutatingService) *IngestEventCommand {
	return &IngestEventCommand{service: service}
}

func (c *IngestEventCommand) Execute(ctx context.Context, msg IngestEventMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: ingest service is required")
	}
	out, err := c.service.IngestEvent(ctx, core.IngestRequest{
		Body:            msg.Body,
		SignatureHeader: msg.SignatureHeader,
		Metadata:        msg.Metadata,
	})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type PurgeMarkersCommand struct {
	service MutatingService
}

func NewPurgeMarkersCommand(service MutatingService) *PurgeMarkersCommand {
	return &PurgeMarkersCommand{service: service}
}

func (c *PurgeMarkersCommand) Execute(ctx context.Context, msg PurgeMarkersMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: marker service is required")
	}
	purged, err := c.service.PurgeExpiredMarkers(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, purged)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
