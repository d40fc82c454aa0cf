package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/j01232026-hub/pretty/internal/domain"
)

// Memory is an in-process calendar. The server falls back to it when no
// service account is configured; it is also the calendar used in tests.
type Memory struct {
	mu     sync.Mutex
	seq    int
	events map[string]memEvent // keyed by calendarID + "/" + eventID
}

type memEvent struct {
	calendarID string
	ev         domain.CalendarEvent
	colorTag   string
}

// NewMemory returns an empty in-process calendar.
func NewMemory() *Memory {
	return &Memory{events: map[string]memEvent{}}
}

func memKey(calendarID, eventID string) string { return calendarID + "/" + eventID }

// Put stores an event as if created directly in the calendar by staff. An
// empty ID is assigned.
func (m *Memory) Put(calendarID string, ev domain.CalendarEvent) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == "" {
		m.seq++
		ev.ID = fmt.Sprintf("mem-%d", m.seq)
	}
	m.events[memKey(calendarID, ev.ID)] = memEvent{calendarID: calendarID, ev: ev}
	return ev.ID
}

// Get returns one event.
func (m *Memory) Get(calendarID, eventID string) (domain.CalendarEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[memKey(calendarID, eventID)]
	return e.ev, ok
}

// Len counts the events of a calendar.
func (m *Memory) Len(calendarID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.calendarID == calendarID {
			n++
		}
	}
	return n
}

func (m *Memory) overlapping(calendarID string, from, to time.Time) []domain.CalendarEvent {
	window := domain.Interval{Start: from, End: to}
	var out []domain.CalendarEvent
	for _, e := range m.events {
		if e.calendarID != calendarID {
			continue
		}
		if (domain.Interval{Start: e.ev.Start, End: e.ev.End}).Overlaps(window) {
			out = append(out, e.ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) QueryBusy(_ context.Context, calendarID string, from, to time.Time) ([]domain.BusyInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evs := m.overlapping(calendarID, from, to)
	out := make([]domain.BusyInterval, 0, len(evs))
	for _, ev := range evs {
		out = append(out, domain.BusyInterval{
			Interval: domain.Interval{Start: ev.Start, End: ev.End},
			EventID:  ev.ID,
		})
	}
	return out, nil
}

func (m *Memory) ListEvents(_ context.Context, calendarID string, from, to time.Time) ([]domain.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlapping(calendarID, from, to), nil
}

func (m *Memory) CreateEvent(_ context.Context, calendarID string, d domain.EventDraft) (string, string, error) {
	if !d.End.After(d.Start) {
		return "", "", fmt.Errorf("insert event: end %s not after start %s", d.End, d.Start)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("mem-%d", m.seq)
	m.events[memKey(calendarID, id)] = memEvent{
		calendarID: calendarID,
		colorTag:   d.ColorTag,
		ev: domain.CalendarEvent{
			ID:          id,
			Summary:     d.Title,
			Description: d.Description,
			Start:       d.Start,
			End:         d.End,
		},
	}
	return id, "memory://" + strings.TrimSpace(calendarID) + "/" + id, nil
}

func (m *Memory) PatchEvent(_ context.Context, calendarID, eventID string, start, end time.Time, _ bool) error {
	if !end.After(start) {
		return fmt.Errorf("patch event: end %s not after start %s", end, start)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(calendarID, eventID)
	e, ok := m.events[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	e.ev.Start, e.ev.End = start, end
	m.events[k] = e
	return nil
}

func (m *Memory) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, memKey(calendarID, eventID))
	return nil
}
