// Package services – BookingService
//
// BookingService is the conflict-resolution engine. Create, Update and
// Cancel run as sagas across the record store and the external calendar,
// which share no transaction: every step that can leave the two systems out
// of step has a defined compensation, and compensations always finish
// before a Conflict or calendar-write error is returned.
//
// Concurrent creates for one (store_id, date, start_time) are resolved
// optimistically: each writes a provisional row, then re-reads the key; only
// the earliest row by insert sequence is promoted to a calendar event.

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/j01232026-hub/pretty/internal/domain"
	"github.com/j01232026-hub/pretty/internal/events"
	"github.com/j01232026-hub/pretty/internal/notify"
	"github.com/j01232026-hub/pretty/internal/repo"
)

// Calendar color ids used to tell kinds apart at a glance.
const (
	colorStaffBooking = "5" // banana
	colorBlock        = "8" // graphite
)

// BookingService orchestrates booking create/update/cancel.
type BookingService struct {
	DB       *gorm.DB
	Calendar Calendar

	// Optional best-effort collaborators.
	Notifier Notifier
	Events   events.Publisher
	Cache    SlotCache

	DefaultCalendarID string
	Location          *time.Location
	CalendarTimeout   time.Duration
	StoreTimeout      time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

// CreateInput is a booking request.
type CreateInput struct {
	StoreID       string
	UserID        *string
	Kind          domain.BookingKind
	Date          string
	StartTime     string
	EndTime       *string
	IsAllDay      bool
	Stylist       string
	ContactName   string
	ContactPhone  string
	Note          string
	AdminOverride bool

	// SkipNotify suppresses the confirmation push for callers that confirm
	// on their own channel, such as a LINE reply.
	SkipNotify bool
}

// UpdateInput moves an existing booking.
type UpdateInput struct {
	StoreID   string
	ID        uint64
	Date      string
	StartTime string
	EndTime   *string
	IsAllDay  bool
}

func (s *BookingService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *BookingService) calCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.CalendarTimeout, defaultCalendarTimeout)
}

func (s *BookingService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.StoreTimeout, defaultStoreTimeout)
}

func (s *BookingService) calendarID(ctx context.Context, storeID string) string {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return resolveCalendarID(sctx, s.DB, storeID, s.DefaultCalendarID)
}

// Create books a slot.
//
// Steps: validate; compute the window; calendar pre-check (skipped with
// AdminOverride); provisional insert after clearing the user's stale locks;
// reconciliation against other rows on the contention key (skipped with
// AdminOverride); calendar promotion; attach the event id; best-effort
// side effects. Once the provisional row exists the saga no longer follows
// the caller's cancellation so it always reaches a terminal state.
func (s *BookingService) Create(ctx context.Context, in CreateInput) (out *domain.Booking, err error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("store.id", in.StoreID),
			attribute.String("booking.date", in.Date),
			attribute.String("booking.start_time", in.StartTime),
			attribute.String("booking.kind", string(in.Kind)),
			attribute.Bool("booking.admin_override", in.AdminOverride),
		),
	)
	defer func() {
		observeOutcome("create", err)
		if err != nil {
			span.SetStatus(codes.Error, outcome(err))
		}
		span.End()
	}()

	b, w, err := s.prepareCreate(in)
	if err != nil {
		return nil, err
	}
	calID := s.calendarID(ctx, b.StoreID)
	lg := loggerFrom(ctx).With().Str("store_id", b.StoreID).Str("date", b.Date).Str("start_time", b.StartTime).Logger()

	// 1. pre-check
	if !b.AdminOverride {
		cctx, cancel := s.calCtx(ctx)
		busy, qerr := s.Calendar.QueryBusy(cctx, calID, w.Start, w.End)
		cancel()
		if qerr != nil {
			return nil, wrap(ErrCalendarUnavailable, qerr, "busy query")
		}
		if len(busy) > 0 {
			return nil, fmt.Errorf("%w: %s %s is busy", ErrConflict, b.Date, b.StartTime)
		}
	}

	// 2. provisional write
	if err := s.provisionalInsert(ctx, b); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("booking.id", int64(b.ID)))
	lg = lg.With().Uint64("booking_id", b.ID).Logger()

	saga := context.WithoutCancel(ctx)

	// 3. reconciliation
	if !b.AdminOverride {
		winner, rerr := s.earliestContender(saga, b)
		if rerr != nil {
			if cerr := s.compensate(saga, b); cerr != nil {
				lg.Error().Err(cerr).Str("step", "reconcile").Msg("compensating delete failed; provisional row orphaned")
				return nil, wrap(ErrStoreWrite, cerr, "compensating delete")
			}
			return nil, wrap(ErrStoreWrite, rerr, "reconcile")
		}
		if winner != b.ID {
			if cerr := s.compensate(saga, b); cerr != nil {
				lg.Error().Err(cerr).Str("step", "reconcile").Msg("compensating delete failed; provisional row orphaned")
				return nil, wrap(ErrStoreWrite, cerr, "compensating delete")
			}
			lg.Info().Uint64("winner_id", winner).Msg("lost reconciliation race")
			return nil, fmt.Errorf("%w: %s %s was taken concurrently", ErrConflict, b.Date, b.StartTime)
		}
	}

	// 4. promotion
	cctx, cancel := s.calCtx(saga)
	eventID, eventURL, perr := s.Calendar.CreateEvent(cctx, calID, eventDraft(b, w))
	cancel()
	switch {
	case perr != nil && b.Kind == domain.KindBlock:
		// blocks stay effective through the store scan without a mirror
		lg.Warn().Err(perr).Str("step", "promote").Msg("block kept without calendar event")
	case perr != nil:
		if cerr := s.compensate(saga, b); cerr != nil {
			lg.Error().Err(cerr).Str("step", "promote").Msg("compensating delete failed; provisional row orphaned")
			return nil, wrap(ErrStoreWrite, cerr, "compensating delete")
		}
		return nil, wrap(ErrCalendarWrite, perr, "create event")
	default:
		// 5. attach
		b.ExternalEventID = &eventID
		if eventURL != "" {
			b.ExternalEventURL = &eventURL
		}
		sctx, cancel := s.storeCtx(saga)
		aerr := repo.AttachEvent(sctx, s.DB, b.ID, eventID, eventURL)
		cancel()
		switch {
		case errors.Is(aerr, repo.ErrNotFound):
			// the row was cleared under us; the event must not outlive it
			cctx, cancel := s.calCtx(saga)
			derr := s.Calendar.DeleteEvent(cctx, calID, eventID)
			cancel()
			if derr != nil {
				lg.Error().Err(derr).Str("step", "attach").Str("event_id", eventID).Msg("row vanished and event delete failed; calendar event orphaned")
				return nil, wrap(ErrCalendarWrite, derr, "delete orphaned event")
			}
			lg.Info().Str("event_id", eventID).Msg("row vanished before attach; event removed")
			return nil, fmt.Errorf("%w: %s %s was taken concurrently", ErrConflict, b.Date, b.StartTime)
		case aerr != nil:
			lg.Warn().Err(aerr).Str("step", "attach").Str("event_id", eventID).Msg("event id not persisted")
		}
	}

	// 6. side effects
	if !in.SkipNotify {
		s.notifyCreated(saga, b)
	}
	s.afterCommit(saga, events.TypeBookingCreated, b, calID, "")
	return b, nil
}

// prepareCreate validates in and builds the provisional row.
func (s *BookingService) prepareCreate(in CreateInput) (*domain.Booking, window, error) {
	storeID := strings.TrimSpace(in.StoreID)
	if storeID == "" {
		return nil, window{}, invalid("store_id is required")
	}
	kind := in.Kind
	if kind == "" {
		kind = domain.KindRegular
	}
	if !kind.Valid() {
		return nil, window{}, invalid("unknown kind %q", kind)
	}
	if strings.TrimSpace(in.Date) == "" {
		return nil, window{}, invalid("date is required")
	}
	if !in.IsAllDay && strings.TrimSpace(in.StartTime) == "" {
		return nil, window{}, invalid("start_time is required unless is_all_day")
	}

	name := strings.TrimSpace(in.ContactName)
	phone := normalizePhone(in.ContactPhone)
	if kind == domain.KindBlock {
		if name == "" {
			name = domain.BlockContactName
		}
	} else if name == "" || phone == "" {
		return nil, window{}, invalid("contact name and phone are required")
	}

	w, err := computeWindow(s.loc(), in.Date, in.StartTime, in.EndTime, in.IsAllDay)
	if err != nil {
		return nil, window{}, err
	}

	var uid *string
	if in.UserID != nil && strings.TrimSpace(*in.UserID) != "" {
		u := strings.TrimSpace(*in.UserID)
		uid = &u
	}

	return &domain.Booking{
		StoreID:         storeID,
		UserID:          uid,
		Kind:            kind,
		Date:            w.Date,
		StartTime:       w.StartTime,
		EndTime:         w.EndTime,
		IsAllDay:        w.AllDay,
		DurationMinutes: w.Minutes(),
		ContactName:     name,
		ContactPhone:    phone,
		Stylist:         normalizeStylist(in.Stylist),
		Note:            strings.TrimSpace(in.Note),
		AdminOverride:   in.AdminOverride,
	}, w, nil
}

// provisionalInsert clears the user's stale locks on the key and inserts b.
func (s *BookingService) provisionalInsert(ctx context.Context, b *domain.Booking) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	now := s.now().UTC()
	if b.UserID != nil {
		n, err := repo.DeleteStaleLocks(sctx, s.DB, b.StoreID, *b.UserID, b.Date, b.StartTime, now.Add(-s.staleLockAge()))
		if err != nil {
			return wrap(ErrStoreWrite, err, "clear stale locks")
		}
		if n > 0 {
			loggerFrom(ctx).Info().Int64("rows", n).Str("store_id", b.StoreID).Str("user_id", *b.UserID).Msg("cleared stale booking locks")
		}
	}
	b.CreatedAt = now
	if err := repo.InsertBooking(sctx, s.DB, b); err != nil {
		return wrap(ErrStoreWrite, err, "insert booking")
	}
	return nil
}

// staleLockAge is the longest a live attempt can hold an unmirrored row:
// one calendar promotion plus the store calls around it.
func (s *BookingService) staleLockAge() time.Duration {
	cal, store := s.CalendarTimeout, s.StoreTimeout
	if cal <= 0 {
		cal = defaultCalendarTimeout
	}
	if store <= 0 {
		store = defaultStoreTimeout
	}
	return cal + 3*store
}

// earliestContender returns the id of the first row written on b's key.
func (s *BookingService) earliestContender(ctx context.Context, b *domain.Booking) (uint64, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	rows, err := repo.ListContenders(sctx, s.DB, b.StoreID, b.Date, b.StartTime)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		// our own row vanished; treat as lost
		return 0, nil
	}
	return rows[0].ID, nil
}

// compensate removes the provisional row. Already-gone is fine.
func (s *BookingService) compensate(ctx context.Context, b *domain.Booking) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := repo.DeleteBooking(sctx, s.DB, b.StoreID, b.ID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	return nil
}

// eventDraft renders the calendar event for a booking. The phone is always
// in the description so legacy cancellation can find the event by text.
func eventDraft(b *domain.Booking, w window) domain.EventDraft {
	var title, color string
	switch b.Kind {
	case domain.KindBlock:
		title = "⛔ " + b.ContactName
		if b.Note != "" {
			title += " - " + b.Note
		}
		color = colorBlock
	case domain.KindStaffBooking:
		title = "【現場】" + b.ContactName
		color = colorStaffBooking
	default:
		title = b.ContactName
	}
	if b.Stylist != domain.StylistAny {
		title += " (" + b.Stylist + ")"
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "電話: %s\n設計師: %s\n類型: %s", b.ContactPhone, b.Stylist, b.Kind)
	if b.Note != "" {
		fmt.Fprintf(&desc, "\n備註: %s", b.Note)
	}
	return domain.EventDraft{
		Start:       w.Start,
		End:         w.End,
		AllDay:      w.AllDay,
		Title:       title,
		Description: desc.String(),
		ColorTag:    color,
	}
}

// Update moves a booking to a new window.
//
// The calendar is patched before the store is written so a failed patch
// leaves both untouched. A store failure after a successful patch is an
// accepted inconsistency; it is logged at error level.
func (s *BookingService) Update(ctx context.Context, in UpdateInput) (out *domain.Booking, err error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("store.id", in.StoreID),
			attribute.Int64("booking.id", int64(in.ID)),
			attribute.String("booking.date", in.Date),
		),
	)
	defer func() {
		observeOutcome("update", err)
		if err != nil {
			span.SetStatus(codes.Error, outcome(err))
		}
		span.End()
	}()

	if strings.TrimSpace(in.StoreID) == "" || in.ID == 0 {
		return nil, invalid("store_id and id are required")
	}
	if strings.TrimSpace(in.Date) == "" || (!in.IsAllDay && strings.TrimSpace(in.StartTime) == "") {
		return nil, invalid("date and start_time (or is_all_day) are required")
	}

	b, err := s.get(ctx, in.StoreID, in.ID)
	if err != nil {
		return nil, err
	}
	w, err := computeWindow(s.loc(), in.Date, in.StartTime, in.EndTime, in.IsAllDay)
	if err != nil {
		return nil, err
	}
	calID := s.calendarID(ctx, b.StoreID)
	lg := loggerFrom(ctx).With().Str("store_id", b.StoreID).Uint64("booking_id", b.ID).Logger()

	cctx, cancel := s.calCtx(ctx)
	busy, qerr := s.Calendar.QueryBusy(cctx, calID, w.Start, w.End)
	cancel()
	if qerr != nil {
		return nil, wrap(ErrCalendarUnavailable, qerr, "busy query")
	}
	for _, iv := range busy {
		if b.Mirrored() && iv.EventID == *b.ExternalEventID {
			continue
		}
		return nil, fmt.Errorf("%w: %s %s is busy", ErrConflict, w.Date, w.StartTime)
	}

	saga := context.WithoutCancel(ctx)
	if b.Mirrored() {
		cctx, cancel := s.calCtx(saga)
		perr := s.Calendar.PatchEvent(cctx, calID, *b.ExternalEventID, w.Start, w.End, w.AllDay)
		cancel()
		if perr != nil {
			return nil, wrap(ErrCalendarWrite, perr, "patch event")
		}
	}

	oldDate := b.Date
	sctx, cancel := s.storeCtx(saga)
	uerr := repo.UpdateBookingWindow(sctx, s.DB, b.StoreID, b.ID, repo.BookingWindow{
		Date:            w.Date,
		StartTime:       w.StartTime,
		EndTime:         w.EndTime,
		IsAllDay:        w.AllDay,
		DurationMinutes: w.Minutes(),
	})
	cancel()
	if uerr != nil {
		lg.Error().Err(uerr).Str("step", "store_update").Bool("calendar_patched", b.Mirrored()).
			Str("new_date", w.Date).Str("new_start_time", w.StartTime).
			Msg("store update failed after calendar patch; booking and event disagree")
		return nil, wrap(ErrStoreWrite, uerr, "update booking")
	}

	b.Date, b.StartTime, b.EndTime, b.IsAllDay = w.Date, w.StartTime, w.EndTime, w.AllDay
	b.DurationMinutes = w.Minutes()
	b.UpdatedAt = s.now().UTC()

	s.afterCommit(saga, events.TypeBookingUpdated, b, calID, oldDate)
	return b, nil
}

// Cancel removes a booking and its calendar mirror.
//
// Calendar trouble never blocks the store delete. Rows without an event id
// predate mirroring; for those the calendar is searched around the start
// time for an event mentioning the contact phone and the first hit is
// deleted.
func (s *BookingService) Cancel(ctx context.Context, storeID string, id uint64) (err error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("store.id", storeID),
			attribute.Int64("booking.id", int64(id)),
		),
	)
	defer func() {
		observeOutcome("cancel", err)
		if err != nil {
			span.SetStatus(codes.Error, outcome(err))
		}
		span.End()
	}()

	if strings.TrimSpace(storeID) == "" || id == 0 {
		return invalid("store_id and id are required")
	}
	b, err := s.get(ctx, storeID, id)
	if err != nil {
		return err
	}
	calID := s.calendarID(ctx, storeID)
	lg := loggerFrom(ctx).With().Str("store_id", storeID).Uint64("booking_id", id).Logger()
	saga := context.WithoutCancel(ctx)

	if b.Mirrored() {
		cctx, cancel := s.calCtx(saga)
		if derr := s.Calendar.DeleteEvent(cctx, calID, *b.ExternalEventID); derr != nil {
			lg.Warn().Err(derr).Str("step", "delete_event").Str("event_id", *b.ExternalEventID).Msg("calendar delete failed; removing booking anyway")
		}
		cancel()
	} else {
		s.legacyDelete(saga, calID, b)
	}

	sctx, cancel := s.storeCtx(saga)
	derr := repo.DeleteBooking(sctx, s.DB, storeID, id)
	cancel()
	if errors.Is(derr, repo.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrBookingNotFound, id)
	}
	if derr != nil {
		return wrap(ErrStoreWrite, derr, "delete booking")
	}

	s.afterCommit(saga, events.TypeBookingCancelled, b, calID, "")
	return nil
}

// legacyDelete searches ±20 minutes around b's start for an event whose
// title or description contains the contact phone and deletes the first.
func (s *BookingService) legacyDelete(ctx context.Context, calID string, b *domain.Booking) {
	lg := loggerFrom(ctx).With().Str("store_id", b.StoreID).Uint64("booking_id", b.ID).Str("step", "legacy_search").Logger()

	// legacy rows may carry separators the event text does not, or vice versa
	phones := []string{strings.TrimSpace(b.ContactPhone)}
	if n := normalizePhone(b.ContactPhone); n != phones[0] {
		phones = append(phones, n)
	}
	if phones[0] == "" {
		return
	}
	w, err := bookingWindow(s.loc(), b)
	if err != nil {
		lg.Warn().Err(err).Msg("stored window unreadable; skipping calendar search")
		return
	}

	cctx, cancel := s.calCtx(ctx)
	evs, err := s.Calendar.ListEvents(cctx, calID, w.Start.Add(-legacySearchPad), w.Start.Add(legacySearchPad))
	cancel()
	if err != nil {
		lg.Warn().Err(err).Msg("calendar search failed")
		return
	}
	for _, ev := range evs {
		if !mentionsAny(ev, phones) {
			continue
		}
		cctx, cancel := s.calCtx(ctx)
		if err := s.Calendar.DeleteEvent(cctx, calID, ev.ID); err != nil {
			lg.Warn().Err(err).Str("event_id", ev.ID).Msg("legacy event delete failed")
		} else {
			lg.Info().Str("event_id", ev.ID).Msg("legacy event deleted by phone match")
		}
		cancel()
		return
	}
	lg.Info().Msg("no legacy calendar event matched")
}

func mentionsAny(ev domain.CalendarEvent, needles []string) bool {
	for _, n := range needles {
		if n != "" && (strings.Contains(ev.Summary, n) || strings.Contains(ev.Description, n)) {
			return true
		}
	}
	return false
}

// Get returns one booking of a store.
func (s *BookingService) Get(ctx context.Context, storeID string, id uint64) (*domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("store.id", storeID), attribute.Int64("booking.id", int64(id))),
	)
	defer span.End()
	return s.get(ctx, storeID, id)
}

func (s *BookingService) get(ctx context.Context, storeID string, id uint64) (*domain.Booking, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	b, err := repo.GetBooking(sctx, s.DB, storeID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, wrap(ErrStoreWrite, err, "get booking")
	}
	return b, nil
}

// notifyCreated pushes the confirmation to the customer's LINE id. Errors
// are logged only.
func (s *BookingService) notifyCreated(ctx context.Context, b *domain.Booking) {
	if s.Notifier == nil || b.UserID == nil {
		return
	}
	to := *b.UserID
	sctx, cancel := s.storeCtx(ctx)
	if p, err := repo.GetProfile(sctx, s.DB, b.StoreID, *b.UserID); err == nil && p.LineUserID != "" {
		to = p.LineUserID
	}
	cancel()

	clock := b.StartTime
	if b.IsAllDay {
		clock = "全天"
	}
	if err := s.Notifier.Send(ctx, to, notify.BookingConfirmed(b.Date, clock)); err != nil {
		loggerFrom(ctx).Warn().Err(err).Uint64("booking_id", b.ID).Str("step", "notify").Msg("confirmation not delivered")
	}
}

// afterCommit invalidates cached busy days and publishes a lifecycle event.
// oldDate is the previous date of a moved booking.
func (s *BookingService) afterCommit(ctx context.Context, typ string, b *domain.Booking, calID, oldDate string) {
	lg := loggerFrom(ctx)
	if s.Cache != nil {
		dates := []string{b.Date}
		if oldDate != "" && oldDate != b.Date {
			dates = append(dates, oldDate)
		}
		for _, d := range dates {
			if err := s.Cache.Invalidate(ctx, calID, d); err != nil {
				lg.Warn().Err(err).Str("date", d).Str("step", "cache_invalidate").Msg("slot cache not invalidated")
			}
		}
	}
	if s.Events != nil {
		if err := s.Events.Publish(ctx, events.New(typ, *b)); err != nil {
			lg.Warn().Err(err).Str("type", typ).Uint64("booking_id", b.ID).Str("step", "publish").Msg("lifecycle event dropped")
		}
	}
}
