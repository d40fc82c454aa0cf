package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/j01232026-hub/pretty/internal/domain"
	"github.com/j01232026-hub/pretty/internal/repo"
)

// SlotService reports the busy intervals of a salon day for slot rendering.
//
// The calendar catches events staff created outside this service; the store
// scan catches provisional rows not yet promoted and blocks that were never
// mirrored. The two lists are concatenated; overlaps are not merged.
type SlotService struct {
	DB       *gorm.DB
	Calendar Calendar
	Cache    SlotCache // optional

	DefaultCalendarID string
	Location          *time.Location
	CalendarTimeout   time.Duration
	StoreTimeout      time.Duration
}

func (s *SlotService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// BusySlots returns busy intervals on date. With a stylist, store rows for
// other named stylists are left out; rows for "any" and blocks always count.
func (s *SlotService) BusySlots(ctx context.Context, storeID, date, stylist string) ([]domain.Interval, error) {
	tr := otel.Tracer("services/SlotService")
	ctx, span := tr.Start(ctx, "BusySlots",
		trace.WithAttributes(
			attribute.String("store.id", storeID),
			attribute.String("date", date),
			attribute.String("stylist", stylist),
		),
	)
	defer span.End()

	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, invalid("store_id is required")
	}
	date = strings.TrimSpace(date)
	day, err := time.ParseInLocation(dateLayout, date, s.loc())
	if err != nil {
		return nil, invalid("date %q must be YYYY-MM-DD", date)
	}
	stylist = strings.TrimSpace(stylist)

	cctx, cancel := withTimeout(ctx, s.StoreTimeout, defaultStoreTimeout)
	calID := resolveCalendarID(cctx, s.DB, storeID, s.DefaultCalendarID)
	cancel()

	var fromCal, fromStore []domain.Interval
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		busy, err := s.calendarBusy(gctx, calID, date, day)
		if err != nil {
			return err
		}
		fromCal = make([]domain.Interval, 0, len(busy))
		for _, b := range busy {
			fromCal = append(fromCal, b.Interval)
		}
		return nil
	})

	g.Go(func() error {
		sctx, cancel := withTimeout(gctx, s.StoreTimeout, defaultStoreTimeout)
		defer cancel()
		rows, err := repo.ListBookingsByDay(sctx, s.DB, storeID, date)
		if err != nil {
			return wrap(ErrStoreWrite, err, "scan day")
		}
		for i := range rows {
			b := &rows[i]
			if !countsForStylist(b, stylist) {
				continue
			}
			w, err := bookingWindow(s.loc(), b)
			if err != nil {
				loggerFrom(ctx).Warn().Err(err).Uint64("booking_id", b.ID).Msg("skipping booking with unreadable window")
				continue
			}
			fromStore = append(fromStore, w.Interval)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Interval, 0, len(fromCal)+len(fromStore))
	out = append(out, fromCal...)
	out = append(out, fromStore...)
	return out, nil
}

// calendarBusy reads the whole local day, through the cache when present.
// Cache errors degrade to a direct calendar read.
func (s *SlotService) calendarBusy(ctx context.Context, calID, date string, day time.Time) ([]domain.BusyInterval, error) {
	lg := loggerFrom(ctx)
	if s.Cache != nil {
		busy, ok, err := s.Cache.GetBusy(ctx, calID, date)
		if err != nil {
			lg.Warn().Err(err).Str("date", date).Msg("slot cache read failed")
		} else if ok {
			return busy, nil
		}
	}

	cctx, cancel := withTimeout(ctx, s.CalendarTimeout, defaultCalendarTimeout)
	busy, err := s.Calendar.QueryBusy(cctx, calID, day, day.AddDate(0, 0, 1))
	cancel()
	if err != nil {
		return nil, wrap(ErrCalendarUnavailable, err, "busy query")
	}

	if s.Cache != nil {
		if err := s.Cache.SetBusy(ctx, calID, date, busy); err != nil {
			lg.Warn().Err(err).Str("date", date).Msg("slot cache write failed")
		}
	}
	return busy, nil
}

func countsForStylist(b *domain.Booking, stylist string) bool {
	if stylist == "" || strings.EqualFold(stylist, domain.StylistAny) {
		return true
	}
	if b.Kind == domain.KindBlock || b.Stylist == domain.StylistAny {
		return true
	}
	return strings.EqualFold(b.Stylist, stylist)
}
