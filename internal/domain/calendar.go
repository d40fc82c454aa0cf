package domain

import "time"

// Interval is a half-open [Start, End) span of absolute time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// BusyInterval is a calendar busy span. EventID is empty when the calendar
// does not expose which event produced it.
type BusyInterval struct {
	Interval
	EventID string `json:"event_id,omitempty"`
}

// EventDraft is what the engine asks the calendar to create.
type EventDraft struct {
	Start       time.Time
	End         time.Time
	AllDay      bool
	Title       string
	Description string
	ColorTag    string
}

// CalendarEvent is the subset of an external event the legacy cancel path
// searches through.
type CalendarEvent struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}
