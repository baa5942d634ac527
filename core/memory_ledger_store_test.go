package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLedgerStoreAddAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore(1000)

	total, err := store.ReadTotal(ctx)
	if err != nil || total != 1000 {
		t.Fatalf("expected initial total before first write, got %d err=%v", total, err)
	}

	total, err = store.AddAmount(ctx, 500)
	if err != nil || total != 1500 {
		t.Fatalf("expected 1500 after add, got %d err=%v", total, err)
	}
	total, _ = store.ReadTotal(ctx)
	if total != 1500 {
		t.Fatalf("read must reflect add, got %d", total)
	}
}

func TestMemoryLedgerStoreRejectsNegativeDelta(t *testing.T) {
	store := NewMemoryLedgerStore(0)
	if _, err := store.AddAmount(context.Background(), -1); err == nil {
		t.Fatalf("negative delta must be rejected")
	}
	total, _ := store.ReadTotal(context.Background())
	if total != 0 {
		t.Fatalf("rejected delta must not mutate total, got %d", total)
	}
}

func TestMemoryLedgerStoreConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore(0)

	const goroutines = 16
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AddAmount(ctx, 100); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	total, err := store.ReadTotal(ctx)
	if err != nil {
		t.Fatalf("read total: %v", err)
	}
	if total != goroutines*100 {
		t.Fatalf("expected %d, got %d", goroutines*100, total)
	}
}

func TestMemoryLedgerStoreLatestPaymentLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore(0)

	latest, err := store.ReadLatestPayment(ctx)
	if err != nil || latest != nil {
		t.Fatalf("expected empty slot, got %+v err=%v", latest, err)
	}

	first := LatestPayment{PayerName: "Alex Doe", AmountMinorUnits: 5000, OccurredAt: time.Now().UTC()}
	if err := store.RecordLatestPayment(ctx, first); err != nil {
		t.Fatalf("record: %v", err)
	}
	second := LatestPayment{PayerName: "Sam Lee", AmountMinorUnits: 2500, OccurredAt: time.Now().UTC()}
	if err := store.RecordLatestPayment(ctx, second); err != nil {
		t.Fatalf("record: %v", err)
	}

	latest, err = store.ReadLatestPayment(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if latest == nil || latest.PayerName != "Sam Lee" {
		t.Fatalf("expected last write to win, got %+v", latest)
	}

	// Returned snapshot is a copy; mutating it must not affect the store.
	latest.PayerName = "mutated"
	again, _ := store.ReadLatestPayment(ctx)
	if again.PayerName != "Sam Lee" {
		t.Fatalf("store must hand out copies, got %q", again.PayerName)
	}
}
