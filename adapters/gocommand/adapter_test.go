package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	tallycommand "github.com/goliatone/go-tally/command"
	"github.com/goliatone/go-tally/core"
	tallyquery "github.com/goliatone/go-tally/query"
)

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "tally.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type ingestMessage struct {
	EventID string
}

func (ingestMessage) Type() string { return "tally.command.ingest_test" }

type purgeMessage struct{}

func (purgeMessage) Type() string { return tallycommand.TypePurgeMarkers }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(ingestMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[ingestMessage](func(context.Context, ingestMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), ingestMessage{EventID: "evt_1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

type stubLedgerService struct {
	ingests int
	purges  int
}

func (s *stubLedgerService) IngestEvent(context.Context, core.IngestRequest) (core.IngestResult, error) {
	s.ingests++
	return core.IngestResult{Outcome: core.OutcomeApplied, StatusCode: 200}, nil
}

func (s *stubLedgerService) PurgeExpiredMarkers(context.Context) (int, error) {
	s.purges++
	return 0, nil
}

func (s *stubLedgerService) GetLedger(context.Context) (core.Ledger, error) {
	return core.Ledger{TotalMinorUnits: 5000}, nil
}

func (s *stubLedgerService) GetTotal(context.Context) (int64, error) {
	return 5000, nil
}

func TestRegisterLedgerHandlers(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	service := &stubLedgerService{}

	subscriptions, err := RegisterLedgerHandlers(adapter, service)
	if err != nil {
		t.Fatalf("register ledger handlers: %v", err)
	}
	if len(subscriptions) != 4 {
		t.Fatalf("expected 4 subscriptions, got %d", len(subscriptions))
	}
	defer func() {
		for _, sub := range subscriptions {
			sub.Unsubscribe()
		}
	}()
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if err := Dispatch(context.Background(), tallycommand.PurgeMarkersMessage{}); err != nil {
		t.Fatalf("dispatch purge: %v", err)
	}
	if service.purges != 1 {
		t.Fatalf("expected purge to reach service, got %d", service.purges)
	}

	total, err := Query[tallyquery.GetTotalMessage, int64](context.Background(), tallyquery.GetTotalMessage{})
	if err != nil {
		t.Fatalf("query total: %v", err)
	}
	if total != 5000 {
		t.Fatalf("expected total 5000, got %d", total)
	}

	if _, err := RegisterLedgerHandlers(adapter, nil); err == nil {
		t.Fatalf("expected missing service error")
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[purgeMessage](func(context.Context, purgeMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get(tallycommand.TypePurgeMarkers); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}
