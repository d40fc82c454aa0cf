// Package calendar implements the external calendar the booking engine
// mirrors bookings into: a Google Calendar v3 client and an in-process
// Memory calendar with the same method set.
//
// Times handed in are absolute; all-day events are expressed as local dates
// in the client's Location (the salon zone).
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/j01232026-hub/pretty/internal/domain"
)

const dateLayout = "2006-01-02"

// ErrEventNotFound is returned by PatchEvent when the event is gone.
var ErrEventNotFound = errors.New("calendar event not found")

var callDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "calendar_call_duration_seconds",
		Help:    "Latency of external calendar API calls.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	},
	[]string{"method"},
)

func init() {
	prometheus.MustRegister(callDuration)
}

// Client wraps a Google Calendar service.
type Client struct {
	svc *gcal.Service
	loc *time.Location
}

// New builds a Client from service-account credentials. creds is either the
// JSON key itself or a path to it. A non-empty endpoint overrides the API
// base URL.
func New(ctx context.Context, creds, endpoint string, loc *time.Location) (*Client, error) {
	raw, err := loadCredentials(creds)
	if err != nil {
		return nil, err
	}
	jwt, err := google.JWTConfigFromJSON(raw, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	opts := []option.ClientOption{option.WithHTTPClient(jwt.Client(ctx))}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return NewWithOptions(ctx, loc, opts...)
}

// NewWithOptions builds a Client from raw API options. Tests use it with
// option.WithEndpoint and option.WithoutAuthentication.
func NewWithOptions(ctx context.Context, loc *time.Location, opts ...option.ClientOption) (*Client, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Client{svc: svc, loc: loc}, nil
}

// loadCredentials accepts inline JSON or a file path and repairs private keys
// whose newlines were flattened to a literal backslash-n by env tooling.
func loadCredentials(creds string) ([]byte, error) {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil, errors.New("GOOGLE_SERVICE_ACCOUNT_KEY is empty")
	}
	var raw []byte
	if strings.HasPrefix(creds, "{") {
		raw = []byte(creds)
	} else {
		b, err := os.ReadFile(creds)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		raw = b
	}
	// a doubled escape means the key went through one JSON encoding too many
	return []byte(strings.ReplaceAll(string(raw), `\\n`, `\n`)), nil
}

func observe(method string, start time.Time) {
	callDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// QueryBusy lists the opaque, confirmed events overlapping [from, to).
// Each interval carries its event id so callers can ignore their own mirror.
func (c *Client) QueryBusy(ctx context.Context, calendarID string, from, to time.Time) ([]domain.BusyInterval, error) {
	defer observe("query_busy", time.Now())

	var out []domain.BusyInterval
	window := domain.Interval{Start: from, End: to}
	err := c.eachEvent(ctx, calendarID, from, to, func(ev *gcal.Event) {
		if ev.Status == "cancelled" || ev.Transparency == "transparent" {
			return
		}
		iv, ok := c.interval(ev)
		if !ok || !iv.Overlaps(window) {
			return
		}
		out = append(out, domain.BusyInterval{Interval: iv, EventID: ev.Id})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListEvents returns the events in [from, to) with their text fields.
func (c *Client) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]domain.CalendarEvent, error) {
	defer observe("list_events", time.Now())

	var out []domain.CalendarEvent
	err := c.eachEvent(ctx, calendarID, from, to, func(ev *gcal.Event) {
		if ev.Status == "cancelled" {
			return
		}
		iv, _ := c.interval(ev)
		out = append(out, domain.CalendarEvent{
			ID:          ev.Id,
			Summary:     ev.Summary,
			Description: ev.Description,
			Start:       iv.Start,
			End:         iv.End,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) eachEvent(ctx context.Context, calendarID string, from, to time.Time, fn func(*gcal.Event)) error {
	call := c.svc.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)
	return call.Pages(ctx, func(page *gcal.Events) error {
		for _, ev := range page.Items {
			fn(ev)
		}
		return nil
	})
}

// CreateEvent inserts an event and returns its id and HTML link.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, d domain.EventDraft) (string, string, error) {
	defer observe("create_event", time.Now())

	ev := &gcal.Event{
		Summary:     d.Title,
		Description: d.Description,
		ColorId:     d.ColorTag,
	}
	ev.Start, ev.End = c.eventTimes(d.Start, d.End, d.AllDay)

	created, err := c.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, created.HtmlLink, nil
}

// PatchEvent moves an existing event. A missing event is ErrEventNotFound.
func (c *Client) PatchEvent(ctx context.Context, calendarID, eventID string, start, end time.Time, allDay bool) error {
	defer observe("patch_event", time.Now())

	ev := &gcal.Event{}
	ev.Start, ev.End = c.eventTimes(start, end, allDay)
	if allDay {
		// clear the timed fields left over from a previous window
		ev.Start.NullFields = []string{"DateTime"}
		ev.End.NullFields = []string{"DateTime"}
	} else {
		ev.Start.NullFields = []string{"Date"}
		ev.End.NullFields = []string{"Date"}
	}
	_, err := c.svc.Events.Patch(calendarID, eventID, ev).Context(ctx).Do()
	if isGone(err) {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	if err != nil {
		return fmt.Errorf("patch event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event. Already-deleted events are not an error.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	defer observe("delete_event", time.Now())

	err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err == nil || isGone(err) {
		return nil
	}
	return fmt.Errorf("delete event: %w", err)
}

func (c *Client) eventTimes(start, end time.Time, allDay bool) (*gcal.EventDateTime, *gcal.EventDateTime) {
	if allDay {
		day := start.In(c.loc)
		return &gcal.EventDateTime{Date: day.Format(dateLayout)},
			&gcal.EventDateTime{Date: day.AddDate(0, 0, 1).Format(dateLayout)}
	}
	// the RFC3339 offset carries the zone; fixed zones have no IANA name
	return &gcal.EventDateTime{DateTime: start.In(c.loc).Format(time.RFC3339)},
		&gcal.EventDateTime{DateTime: end.In(c.loc).Format(time.RFC3339)}
}

// interval converts event times; all-day dates resolve in the client zone.
func (c *Client) interval(ev *gcal.Event) (domain.Interval, bool) {
	start, ok1 := c.parseWhen(ev.Start)
	end, ok2 := c.parseWhen(ev.End)
	if !ok1 || !ok2 || !end.After(start) {
		return domain.Interval{}, false
	}
	return domain.Interval{Start: start, End: end}, true
}

func (c *Client) parseWhen(w *gcal.EventDateTime) (time.Time, bool) {
	if w == nil {
		return time.Time{}, false
	}
	if w.DateTime != "" {
		t, err := time.Parse(time.RFC3339, w.DateTime)
		return t, err == nil
	}
	if w.Date != "" {
		t, err := time.ParseInLocation(dateLayout, w.Date, c.loc)
		return t, err == nil
	}
	return time.Time{}, false
}

func isGone(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}
