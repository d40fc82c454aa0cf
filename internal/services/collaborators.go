package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/j01232026-hub/pretty/internal/domain"
	"github.com/j01232026-hub/pretty/internal/repo"
)

const (
	defaultCalendarTimeout = 10 * time.Second
	defaultStoreTimeout    = 5 * time.Second
)

// Calendar is the external calendar consumed by the engine and slot query.
type Calendar interface {
	QueryBusy(ctx context.Context, calendarID string, from, to time.Time) ([]domain.BusyInterval, error)
	CreateEvent(ctx context.Context, calendarID string, d domain.EventDraft) (id, url string, err error)
	PatchEvent(ctx context.Context, calendarID, eventID string, start, end time.Time, allDay bool) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]domain.CalendarEvent, error)
}

// Notifier sends a best-effort text to a customer.
type Notifier interface {
	Send(ctx context.Context, to, text string) error
}

// SlotCache caches calendar busy intervals per calendar day.
type SlotCache interface {
	GetBusy(ctx context.Context, calendarID, date string) ([]domain.BusyInterval, bool, error)
	SetBusy(ctx context.Context, calendarID, date string, busy []domain.BusyInterval) error
	Invalidate(ctx context.Context, calendarID, date string) error
}

func withTimeout(ctx context.Context, d, def time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = def
	}
	return context.WithTimeout(ctx, d)
}

// resolveCalendarID picks the store's calendar, falling back to def when the
// store row is missing or has none configured.
func resolveCalendarID(ctx context.Context, db *gorm.DB, storeID, def string) string {
	st, err := repo.GetStore(ctx, db, storeID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			loggerFrom(ctx).Warn().Err(err).Str("store_id", storeID).Msg("store lookup failed; using default calendar")
		}
		return def
	}
	if st.CalendarID == "" {
		return def
	}
	return st.CalendarID
}

// loggerFrom returns the request logger carried by ctx, or the global one.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
