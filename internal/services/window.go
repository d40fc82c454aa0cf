package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/width"

	"github.com/j01232026-hub/pretty/internal/domain"
)

const (
	dateLayout      = "2006-01-02"
	clockLayout     = "15:04"
	defaultDuration = 60 * time.Minute
	legacySearchPad = 20 * time.Minute
)

// window is a booking's absolute interval plus the normalized local fields
// that are persisted for it.
type window struct {
	domain.Interval
	Date      string
	StartTime string
	EndTime   *string
	AllDay    bool
}

// Minutes is the denormalized duration stored on the row.
func (w window) Minutes() int {
	return int(w.End.Sub(w.Start) / time.Minute)
}

// computeWindow resolves local date/time fields in loc. end defaults to
// start + 60 minutes; an all-day window spans 00:00:00 to 23:59:59.
func computeWindow(loc *time.Location, date, start string, end *string, allDay bool) (window, error) {
	date = strings.TrimSpace(date)
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return window{}, invalid("date %q must be YYYY-MM-DD", date)
	}

	if allDay {
		from := day
		to := day.Add(24*time.Hour - time.Second)
		return window{Interval: domain.Interval{Start: from, End: to}, Date: date, StartTime: "00:00", AllDay: true}, nil
	}

	st, err := parseClock(start)
	if err != nil {
		return window{}, invalid("start_time: %v", err)
	}
	from := day.Add(st)
	to := from.Add(defaultDuration)

	var endStr *string
	if end != nil && strings.TrimSpace(*end) != "" {
		et, err := parseClock(*end)
		if err != nil {
			return window{}, invalid("end_time: %v", err)
		}
		if et <= st {
			return window{}, invalid("end_time %s must be after start_time %s", *end, start)
		}
		to = day.Add(et)
		s := formatClock(et)
		endStr = &s
	}

	return window{
		Interval:  domain.Interval{Start: from, End: to},
		Date:      date,
		StartTime: formatClock(st),
		EndTime:   endStr,
	}, nil
}

// bookingWindow rebuilds the interval of a stored booking.
func bookingWindow(loc *time.Location, b *domain.Booking) (window, error) {
	return computeWindow(loc, b.Date, b.StartTime, b.EndTime, b.IsAllDay)
}

var clockRE = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// parseClock accepts H:MM or HH:MM and returns the offset from midnight.
func parseClock(s string) (time.Duration, error) {
	s = width.Narrow.String(strings.TrimSpace(s))
	if s == "" {
		return 0, errors.New("required")
	}
	m := clockRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%q must be HH:MM", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return 0, fmt.Errorf("%q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// normalizePhone folds full-width digits and drops separators so a phone
// typed on a CJK keyboard matches the one stored in calendar text.
func normalizePhone(s string) string {
	s = width.Narrow.String(strings.TrimSpace(s))
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeStylist maps blank and any-casing of "any" to domain.StylistAny.
func normalizeStylist(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, domain.StylistAny) {
		return domain.StylistAny
	}
	return s
}
