// Package events publishes booking lifecycle events to a broker. Publishing
// is best-effort: the engine logs failures and moves on.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/j01232026-hub/pretty/internal/domain"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingUpdated   = "booking.updated"
	TypeBookingCancelled = "booking.cancelled"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Event is the envelope written to the broker.
type Event struct {
	EventID    string         `json:"event_id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	StoreID    string         `json:"store_id"`
	Booking    domain.Booking `json:"booking"`
}

// New stamps a fresh envelope for b.
func New(typ string, b domain.Booking) Event {
	return Event{
		EventID:    uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		StoreID:    b.StoreID,
		Booking:    b,
	}
}

func (e Event) marshal() ([]byte, error) { return json.Marshal(e) }

// Publisher is implemented by every broker backend.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
