package redisstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/goliatone/go-tally/core"
	redisstore "github.com/goliatone/go-tally/store/redis"
	"github.com/redis/go-redis/v9"
)

func paymentFixture(name string, amount int64, at time.Time) core.LatestPayment {
	return core.LatestPayment{
		PayerName:        name,
		AmountMinorUnits: amount,
		OccurredAt:       at,
	}
}

// Integration tests run only when TALLY_REDIS_ADDR points at a live server,
// e.g. TALLY_REDIS_ADDR=localhost:6379 go test ./store/redis/...
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TALLY_REDIS_ADDR")
	if addr == "" {
		t.Skip("TALLY_REDIS_ADDR not set; skipping redis integration tests")
	}
	client, err := redisstore.NewClient(context.Background(), redisstore.Config{Addr: addr})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestRedisMarkerStoreMarkIfNew(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	markers, err := redisstore.NewMarkerStore(client, time.Hour)
	if err != nil {
		t.Fatalf("new marker store: %v", err)
	}

	eventID := fmt.Sprintf("evt_%d", time.Now().UnixNano())
	fresh, err := markers.MarkIfNew(ctx, eventID, time.Hour)
	if err != nil || !fresh {
		t.Fatalf("expected first mark to win, got %v %v", fresh, err)
	}
	fresh, err = markers.MarkIfNew(ctx, eventID, time.Hour)
	if err != nil {
		t.Fatalf("second mark errored: %v", err)
	}
	if fresh {
		t.Fatalf("expected second mark to lose")
	}

	seen, err := markers.Seen(ctx, eventID)
	if err != nil || !seen {
		t.Fatalf("expected marker to be visible, got %v %v", seen, err)
	}
}

func TestRedisMarkerStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	markers, err := redisstore.NewMarkerStore(client, time.Hour)
	if err != nil {
		t.Fatalf("new marker store: %v", err)
	}

	eventID := fmt.Sprintf("evt_ttl_%d", time.Now().UnixNano())
	if _, err := markers.MarkIfNew(ctx, eventID, 50*time.Millisecond); err != nil {
		t.Fatalf("mark: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	seen, err := markers.Seen(ctx, eventID)
	if err != nil || seen {
		t.Fatalf("expected marker to expire, got %v %v", seen, err)
	}
}

func TestRedisLedgerStoreIncrementAndRead(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	ledger, err := redisstore.NewLedgerStore(client, redisstore.WithInitialTotal(1000))
	if err != nil {
		t.Fatalf("new ledger store: %v", err)
	}

	total, err := ledger.ReadTotal(ctx)
	if err != nil || total != 1000 {
		t.Fatalf("expected fallback read of 1000, got %d %v", total, err)
	}

	total, err = ledger.AddAmount(ctx, 5000)
	if err != nil || total != 6000 {
		t.Fatalf("expected seeded increment to 6000, got %d %v", total, err)
	}

	total, err = ledger.ReadTotal(ctx)
	if err != nil || total != 6000 {
		t.Fatalf("expected read-back 6000, got %d %v", total, err)
	}

	if _, err := ledger.AddAmount(ctx, -1); err == nil {
		t.Fatalf("expected negative delta rejection")
	}
}

func TestRedisLedgerStoreLatestPaymentRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	provider, err := redisstore.NewStoreProvider(client, time.Hour)
	if err != nil {
		t.Fatalf("new store provider: %v", err)
	}
	ledger := provider.LedgerStore()

	latest, err := ledger.ReadLatestPayment(ctx)
	if err != nil || latest != nil {
		t.Fatalf("expected empty latest payment, got %+v %v", latest, err)
	}

	occurredAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	if err := ledger.RecordLatestPayment(ctx, paymentFixture("Alex Doe", 5000, occurredAt)); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	latest, err = ledger.ReadLatestPayment(ctx)
	if err != nil || latest == nil {
		t.Fatalf("read latest: %+v %v", latest, err)
	}
	if latest.PayerName != "Alex Doe" || !latest.OccurredAt.Equal(occurredAt) {
		t.Fatalf("unexpected latest payment: %+v", latest)
	}
}
