package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryMarkerStoreMarkAndSeen(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := NewMemoryMarkerStore(time.Hour)
	store.Now = func() time.Time { return now }

	fresh, err := store.MarkIfNew(ctx, "evt_1", 0)
	if err != nil || !fresh {
		t.Fatalf("first mark must win, fresh=%v err=%v", fresh, err)
	}
	fresh, err = store.MarkIfNew(ctx, "evt_1", 0)
	if err != nil || fresh {
		t.Fatalf("second mark must lose, fresh=%v err=%v", fresh, err)
	}
	seen, err := store.Seen(ctx, "evt_1")
	if err != nil || !seen {
		t.Fatalf("marked event must be seen, seen=%v err=%v", seen, err)
	}
	seen, err = store.Seen(ctx, "evt_2")
	if err != nil || seen {
		t.Fatalf("unmarked event must not be seen, seen=%v err=%v", seen, err)
	}
}

func TestMemoryMarkerStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := NewMemoryMarkerStore(time.Hour)
	store.Now = func() time.Time { return now }

	if _, err := store.MarkIfNew(ctx, "evt_1", time.Minute); err != nil {
		t.Fatalf("mark: %v", err)
	}

	store.Now = func() time.Time { return now.Add(2 * time.Minute) }
	seen, err := store.Seen(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("expired marker must not be seen, seen=%v err=%v", seen, err)
	}
	fresh, err := store.MarkIfNew(ctx, "evt_1", time.Minute)
	if err != nil || !fresh {
		t.Fatalf("expired id must be reclaimable, fresh=%v err=%v", fresh, err)
	}
}

func TestMemoryMarkerStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := NewMemoryMarkerStore(time.Hour)
	store.Now = func() time.Time { return now }

	if _, err := store.MarkIfNew(ctx, "evt_old", time.Minute); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := store.MarkIfNew(ctx, "evt_live", time.Hour); err != nil {
		t.Fatalf("mark: %v", err)
	}

	store.Now = func() time.Time { return now.Add(30 * time.Minute) }
	purged, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected one purged marker, got %d", purged)
	}
	seen, _ := store.Seen(ctx, "evt_live")
	if !seen {
		t.Fatalf("live marker must survive purge")
	}
}

func TestMemoryMarkerStoreConcurrentMarkSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMarkerStore(time.Hour)

	const goroutines = 16
	var wg sync.WaitGroup
	wins := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := store.MarkIfNew(ctx, "evt_race", 0)
			if err != nil {
				t.Errorf("mark: %v", err)
				return
			}
			wins <- fresh
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for fresh := range wins {
		if fresh {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestMemoryMarkerStoreCapacityEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := NewMemoryMarkerStoreWithLimits(time.Hour, 3)
	clock := now
	store.Now = func() time.Time { return clock }

	for i := 0; i < 4; i++ {
		clock = now.Add(time.Duration(i) * time.Second)
		if _, err := store.MarkIfNew(ctx, fmt.Sprintf("evt_%d", i), time.Hour); err != nil {
			t.Fatalf("mark evt_%d: %v", i, err)
		}
	}

	seen, _ := store.Seen(ctx, "evt_0")
	if seen {
		t.Fatalf("oldest marker must be evicted at capacity")
	}
	seen, _ = store.Seen(ctx, "evt_3")
	if !seen {
		t.Fatalf("newest marker must survive eviction")
	}
}

func TestMemoryMarkerStoreRequiresEventID(t *testing.T) {
	store := NewMemoryMarkerStore(0)
	if _, err := store.MarkIfNew(context.Background(), "  ", 0); err == nil {
		t.Fatalf("expected missing event id error")
	}
	if _, err := store.Seen(context.Background(), ""); err == nil {
		t.Fatalf("expected missing event id error")
	}
}
