package redisx

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/j01232026-hub/pretty/internal/domain"
)

func TestSlotKey(t *testing.T) {
	if got := slotKey("cal@group", "2025-06-01"); got != "slots:busy:cal@group:2025-06-01" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewSlotCache_DefaultTTL(t *testing.T) {
	c := NewSlotCache(New("127.0.0.1:1"), 0)
	if c.ttl != TTLSlotBusy {
		t.Fatalf("expected default ttl %v, got %v", TTLSlotBusy, c.ttl)
	}
}

func TestSlotCache_UnreachableServerSurfacesErrors(t *testing.T) {
	rdb := New("127.0.0.1:1")
	defer rdb.Close()
	c := NewSlotCache(rdb, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, ok, err := c.GetBusy(ctx, "cal", "2025-06-01"); err == nil || ok {
		t.Fatalf("expected error on unreachable redis, got ok=%v err=%v", ok, err)
	}
	if err := c.SetBusy(ctx, "cal", "2025-06-01", nil); err == nil {
		t.Fatalf("expected SetBusy error")
	}
	if err := c.Invalidate(ctx, "cal", "2025-06-01"); err == nil {
		t.Fatalf("expected Invalidate error")
	}
}

// Runs only when a Redis server is available, e.g. TEST_REDIS_ADDR=localhost:6379.
func TestSlotCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := New(addr)
	defer rdb.Close()
	c := NewSlotCache(rdb, 5*time.Second)
	ctx := context.Background()
	cal := "test-" + time.Now().Format("150405.000000")

	if _, ok, err := c.GetBusy(ctx, cal, "2025-06-01"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	start := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	in := []domain.BusyInterval{{Interval: domain.Interval{Start: start, End: start.Add(time.Hour)}, EventID: "e1"}}
	if err := c.SetBusy(ctx, cal, "2025-06-01", in); err != nil {
		t.Fatalf("SetBusy: %v", err)
	}
	got, ok, err := c.GetBusy(ctx, cal, "2025-06-01")
	if err != nil || !ok || len(got) != 1 || got[0].EventID != "e1" || !got[0].Start.Equal(start) {
		t.Fatalf("GetBusy: ok=%v err=%v got=%+v", ok, err, got)
	}

	if err := c.SetBusy(ctx, cal, "2025-06-02", nil); err != nil {
		t.Fatalf("SetBusy empty: %v", err)
	}
	if got, ok, _ := c.GetBusy(ctx, cal, "2025-06-02"); !ok || len(got) != 0 {
		t.Fatalf("empty day should be a cached hit, got ok=%v %+v", ok, got)
	}

	if err := c.Invalidate(ctx, cal, "2025-06-01"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := c.GetBusy(ctx, cal, "2025-06-01"); ok {
		t.Fatalf("expected miss after Invalidate")
	}
}
