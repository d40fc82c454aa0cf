// Package redisx holds the Redis client and the busy-slot cache used by the
// slot query. The cache is advisory: conflict decisions never read it.
package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/j01232026-hub/pretty/internal/domain"
)

// KeySlotBusy caches calendar busy intervals: slots:busy:{calendar_id}:{date}.
const KeySlotBusy = "slots:busy:%s:%s"

// TTLSlotBusy is the default lifetime of a cached day.
var TTLSlotBusy = 30 * time.Second

// New returns a client for addr with short socket timeouts.
func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// SlotCache stores one calendar day of busy intervals as JSON.
type SlotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSlotCache wraps rdb. A non-positive ttl uses TTLSlotBusy.
func NewSlotCache(rdb *redis.Client, ttl time.Duration) *SlotCache {
	if ttl <= 0 {
		ttl = TTLSlotBusy
	}
	return &SlotCache{rdb: rdb, ttl: ttl}
}

func slotKey(calendarID, date string) string {
	return fmt.Sprintf(KeySlotBusy, calendarID, date)
}

// GetBusy returns the cached intervals; ok is false on a miss.
func (c *SlotCache) GetBusy(ctx context.Context, calendarID, date string) (busy []domain.BusyInterval, ok bool, err error) {
	b, err := c.rdb.Get(ctx, slotKey(calendarID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(b, &busy); err != nil {
		return nil, false, fmt.Errorf("decode cached slots: %w", err)
	}
	return busy, true, nil
}

// SetBusy caches intervals for the configured TTL.
func (c *SlotCache) SetBusy(ctx context.Context, calendarID, date string, busy []domain.BusyInterval) error {
	if busy == nil {
		busy = []domain.BusyInterval{}
	}
	b, err := json.Marshal(busy)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, slotKey(calendarID, date), b, c.ttl).Err()
}

// Invalidate drops the cached day.
func (c *SlotCache) Invalidate(ctx context.Context, calendarID, date string) error {
	return c.rdb.Del(ctx, slotKey(calendarID, date)).Err()
}
