package services

import (
	"context"
	"errors"
	"testing"

	"github.com/j01232026-hub/pretty/internal/domain"
)

func newSlotService(h *harness) *SlotService {
	return &SlotService{
		DB:                h.db,
		Calendar:          h.cal,
		Cache:             h.cache,
		DefaultCalendarID: "cal-default",
		Location:          salon,
	}
}

func seedRow(t *testing.T, h *harness, b domain.Booking) {
	t.Helper()
	if b.StoreID == "" {
		b.StoreID = testStore
	}
	if b.Date == "" {
		b.Date = testDate
	}
	if b.Kind == "" {
		b.Kind = domain.KindRegular
	}
	if b.DurationMinutes == 0 {
		b.DurationMinutes = 60
	}
	if err := h.db.Create(&b).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func TestBusySlots_UnionOfCalendarAndStore(t *testing.T) {
	h := newHarness(t)
	h.cal.Put(testCalendar, domain.CalendarEvent{Summary: "walk-in", Start: at("09:00"), End: at("10:00")})
	h.cal.Put(testCalendar, domain.CalendarEvent{Summary: "tomorrow", Start: at("09:00").AddDate(0, 0, 1), End: at("10:00").AddDate(0, 0, 1)})
	seedRow(t, h, domain.Booking{StartTime: "13:00", Stylist: "any"})
	seedRow(t, h, domain.Booking{StartTime: "13:00", StoreID: "s2", Stylist: "any"})

	busy, err := newSlotService(h).BusySlots(context.Background(), testStore, testDate, "")
	if err != nil {
		t.Fatalf("busy slots: %v", err)
	}
	if len(busy) != 2 {
		t.Fatalf("expected 2 intervals, got %+v", busy)
	}
	if !busy[0].Start.Equal(at("09:00")) || !busy[1].Start.Equal(at("13:00")) || !busy[1].End.Equal(at("14:00")) {
		t.Fatalf("unexpected intervals %+v", busy)
	}
}

func TestBusySlots_EmptyDayIsNonNil(t *testing.T) {
	h := newHarness(t)
	busy, err := newSlotService(h).BusySlots(context.Background(), testStore, testDate, "")
	if err != nil {
		t.Fatalf("busy slots: %v", err)
	}
	if busy == nil || len(busy) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", busy)
	}
}

func TestBusySlots_StylistFilter(t *testing.T) {
	h := newHarness(t)
	seedRow(t, h, domain.Booking{StartTime: "10:00", Stylist: "Amy"})
	seedRow(t, h, domain.Booking{StartTime: "11:00", Stylist: "Ben"})
	seedRow(t, h, domain.Booking{StartTime: "12:00", Stylist: "any"})
	seedRow(t, h, domain.Booking{StartTime: "13:00", Stylist: "Ben", Kind: domain.KindBlock})

	busy, err := newSlotService(h).BusySlots(context.Background(), testStore, testDate, "amy")
	if err != nil {
		t.Fatalf("busy slots: %v", err)
	}
	got := map[string]bool{}
	for _, iv := range busy {
		got[iv.Start.In(salon).Format("15:04")] = true
	}
	if len(busy) != 3 || !got["10:00"] || !got["12:00"] || !got["13:00"] || got["11:00"] {
		t.Fatalf("expected Amy, any and block rows, got %v", got)
	}
}

func TestBusySlots_CacheHitSkipsCalendar(t *testing.T) {
	h := newHarness(t)
	h.cal.Put(testCalendar, domain.CalendarEvent{Summary: "x", Start: at("09:00"), End: at("10:00")})
	svc := newSlotService(h)

	if _, err := svc.BusySlots(context.Background(), testStore, testDate, ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	if q := h.cal.queries.Load(); q != 1 {
		t.Fatalf("expected one calendar query, got %d", q)
	}
	busy, err := svc.BusySlots(context.Background(), testStore, testDate, "")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if q := h.cal.queries.Load(); q != 1 {
		t.Fatalf("expected cache hit, got %d calendar queries", q)
	}
	if len(busy) != 1 {
		t.Fatalf("expected cached interval, got %+v", busy)
	}
}

func TestBusySlots_CreateInvalidatesCachedDay(t *testing.T) {
	h := newHarness(t)
	svc := newSlotService(h)
	if _, err := svc.BusySlots(context.Background(), testStore, testDate, ""); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if _, err := h.svc.Create(context.Background(), regular("u1", "10:00")); err != nil {
		t.Fatalf("create: %v", err)
	}
	busy, err := svc.BusySlots(context.Background(), testStore, testDate, "")
	if err != nil {
		t.Fatalf("busy slots: %v", err)
	}
	// the new booking shows up from both sources
	if len(busy) != 2 {
		t.Fatalf("expected fresh calendar read plus store row, got %+v", busy)
	}
}

func TestBusySlots_CacheErrorFallsThrough(t *testing.T) {
	h := newHarness(t)
	h.cache.err = errors.New("redis down")
	h.cal.Put(testCalendar, domain.CalendarEvent{Summary: "x", Start: at("09:00"), End: at("10:00")})

	busy, err := newSlotService(h).BusySlots(context.Background(), testStore, testDate, "")
	if err != nil {
		t.Fatalf("expected degraded read, got %v", err)
	}
	if len(busy) != 1 {
		t.Fatalf("expected calendar interval, got %+v", busy)
	}
}

func TestBusySlots_CalendarFailure(t *testing.T) {
	h := newHarness(t)
	h.cal.queryErr = errors.New("503")

	_, err := newSlotService(h).BusySlots(context.Background(), testStore, testDate, "")
	if !errors.Is(err, ErrCalendarUnavailable) {
		t.Fatalf("expected ErrCalendarUnavailable, got %v", err)
	}
}

func TestBusySlots_StoreFailure(t *testing.T) {
	h := newHarness(t)
	failOn(t, h.db, "query", "fail_day_scan")

	_, err := newSlotService(h).BusySlots(context.Background(), testStore, testDate, "")
	if !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
}

func TestBusySlots_Validation(t *testing.T) {
	h := newHarness(t)
	svc := newSlotService(h)
	if _, err := svc.BusySlots(context.Background(), "", testDate, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for store, got %v", err)
	}
	if _, err := svc.BusySlots(context.Background(), testStore, "06/01/2025", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for date, got %v", err)
	}
}

func TestCountsForStylist(t *testing.T) {
	cases := []struct {
		b       domain.Booking
		stylist string
		want    bool
	}{
		{domain.Booking{Stylist: "Ben"}, "", true},
		{domain.Booking{Stylist: "Ben"}, "ANY", true},
		{domain.Booking{Stylist: "Ben"}, "Amy", false},
		{domain.Booking{Stylist: "amy"}, "Amy", true},
		{domain.Booking{Stylist: "any"}, "Amy", true},
		{domain.Booking{Stylist: "Ben", Kind: domain.KindBlock}, "Amy", true},
	}
	for i, c := range cases {
		if got := countsForStylist(&c.b, c.stylist); got != c.want {
			t.Fatalf("case %d: expected %v, got %v", i, c.want, got)
		}
	}
}
