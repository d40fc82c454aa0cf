package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/j01232026-hub/pretty/internal/domain"
)

var salon = time.FixedZone("salon", 8*3600)

// fakeAPI is a tiny in-memory stand-in for the events collection of one
// calendar.
type fakeAPI struct {
	mu       sync.Mutex
	events   map[string]*gcal.Event
	seq      int
	deleteAs int // status to answer DELETE of an unknown id
	lastBody map[string]any
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	f := &fakeAPI{events: map[string]*gcal.Event{}, deleteAs: http.StatusNotFound}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	c, err := NewWithOptions(context.Background(), salon,
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	return f, c
}

func apiError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":"%s"}}`, code, http.StatusText(code))
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/calendars/cal-1/events"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		apiError(w, http.StatusNotFound)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && id == "":
		items := make([]*gcal.Event, 0, len(f.events))
		for _, ev := range f.events {
			items = append(items, ev)
		}
		_ = json.NewEncoder(w).Encode(gcal.Events{Items: items})
	case r.Method == http.MethodPost && id == "":
		var ev gcal.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		f.seq++
		ev.Id = fmt.Sprintf("evt-%d", f.seq)
		ev.HtmlLink = "https://calendar.example/" + ev.Id
		f.events[ev.Id] = &ev
		_ = json.NewEncoder(w).Encode(ev)
	case r.Method == http.MethodPatch:
		ev, ok := f.events[id]
		if !ok {
			apiError(w, http.StatusNotFound)
			return
		}
		f.lastBody = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		start, _ := f.lastBody["start"].(map[string]any)
		end, _ := f.lastBody["end"].(map[string]any)
		ev.Start = &gcal.EventDateTime{}
		ev.End = &gcal.EventDateTime{}
		if s, ok := start["dateTime"].(string); ok {
			ev.Start.DateTime = s
		}
		if s, ok := end["dateTime"].(string); ok {
			ev.End.DateTime = s
		}
		_ = json.NewEncoder(w).Encode(ev)
	case r.Method == http.MethodDelete:
		if _, ok := f.events[id]; !ok {
			apiError(w, f.deleteAs)
			return
		}
		delete(f.events, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		apiError(w, http.StatusMethodNotAllowed)
	}
}

func (f *fakeAPI) put(ev *gcal.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.Id] = ev
}

func (f *fakeAPI) get(id string) *gcal.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id]
}

func (f *fakeAPI) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.events[id]
	return ok
}

func timed(id, start, end string) *gcal.Event {
	return &gcal.Event{
		Id:    id,
		Start: &gcal.EventDateTime{DateTime: start},
		End:   &gcal.EventDateTime{DateTime: end},
	}
}

func TestQueryBusy_FiltersAndParses(t *testing.T) {
	f, c := newFakeAPI(t)
	f.put(timed("busy", "2025-06-01T14:00:00+08:00", "2025-06-01T15:00:00+08:00"))

	free := timed("free", "2025-06-01T10:00:00+08:00", "2025-06-01T11:00:00+08:00")
	free.Transparency = "transparent"
	f.put(free)

	gone := timed("gone", "2025-06-01T12:00:00+08:00", "2025-06-01T13:00:00+08:00")
	gone.Status = "cancelled"
	f.put(gone)

	f.put(&gcal.Event{Id: "allday", Start: &gcal.EventDateTime{Date: "2025-06-01"}, End: &gcal.EventDateTime{Date: "2025-06-02"}})
	f.put(timed("elsewhere", "2025-06-03T14:00:00+08:00", "2025-06-03T15:00:00+08:00"))

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, salon)
	got, err := c.QueryBusy(context.Background(), "cal-1", from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("QueryBusy: %v", err)
	}

	byID := map[string]domain.BusyInterval{}
	for _, b := range got {
		byID[b.EventID] = b
	}
	if len(byID) != 2 {
		t.Fatalf("expected busy + allday only, got %+v", got)
	}
	if b := byID["busy"]; !b.Start.Equal(time.Date(2025, 6, 1, 14, 0, 0, 0, salon)) {
		t.Fatalf("unexpected busy start %v", b.Start)
	}
	if b := byID["allday"]; !b.Start.Equal(from) || !b.End.Equal(from.AddDate(0, 0, 1)) {
		t.Fatalf("all-day must resolve in salon zone, got %v..%v", b.Start, b.End)
	}
}

func TestCreateEvent_TimedAndAllDay(t *testing.T) {
	f, c := newFakeAPI(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC).In(salon)

	id, link, err := c.CreateEvent(ctx, "cal-1", domain.EventDraft{
		Start: start, End: start.Add(time.Hour), Title: "Amy", Description: "0912345678", ColorTag: "11",
	})
	if err != nil || id == "" || !strings.HasSuffix(link, id) {
		t.Fatalf("CreateEvent: id=%q link=%q err=%v", id, link, err)
	}
	ev := f.get(id)
	if ev.ColorId != "11" || ev.Summary != "Amy" {
		t.Fatalf("unexpected stored event %+v", ev)
	}
	if ev.Start.DateTime != "2025-06-01T22:00:00+08:00" {
		t.Fatalf("expected salon-zone RFC3339, got %q", ev.Start.DateTime)
	}

	id2, _, err := c.CreateEvent(ctx, "cal-1", domain.EventDraft{
		Start: time.Date(2025, 6, 2, 0, 0, 0, 0, salon), End: time.Date(2025, 6, 2, 23, 59, 59, 0, salon), AllDay: true,
	})
	if err != nil {
		t.Fatalf("CreateEvent all-day: %v", err)
	}
	ev2 := f.get(id2)
	if ev2.Start.Date != "2025-06-02" || ev2.End.Date != "2025-06-03" || ev2.Start.DateTime != "" {
		t.Fatalf("all-day event must use dates, got %+v %+v", ev2.Start, ev2.End)
	}
}

func TestPatchEvent(t *testing.T) {
	f, c := newFakeAPI(t)
	ctx := context.Background()
	f.put(timed("e1", "2025-06-01T14:00:00+08:00", "2025-06-01T15:00:00+08:00"))

	start := time.Date(2025, 6, 1, 16, 0, 0, 0, salon)
	if err := c.PatchEvent(ctx, "cal-1", "e1", start, start.Add(time.Hour), false); err != nil {
		t.Fatalf("PatchEvent: %v", err)
	}
	if got := f.get("e1").Start.DateTime; got != "2025-06-01T16:00:00+08:00" {
		t.Fatalf("event not moved, start=%q", got)
	}

	err := c.PatchEvent(ctx, "cal-1", "missing", start, start.Add(time.Hour), false)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDeleteEvent_ToleratesGone(t *testing.T) {
	f, c := newFakeAPI(t)
	ctx := context.Background()
	f.put(timed("e1", "2025-06-01T14:00:00+08:00", "2025-06-01T15:00:00+08:00"))

	if err := c.DeleteEvent(ctx, "cal-1", "e1"); err != nil || f.has("e1") {
		t.Fatalf("DeleteEvent: err=%v still present=%v", err, f.has("e1"))
	}
	if err := c.DeleteEvent(ctx, "cal-1", "e1"); err != nil {
		t.Fatalf("404 should be tolerated, got %v", err)
	}
	f.mu.Lock()
	f.deleteAs = http.StatusGone
	f.mu.Unlock()
	if err := c.DeleteEvent(ctx, "cal-1", "e1"); err != nil {
		t.Fatalf("410 should be tolerated, got %v", err)
	}
	f.mu.Lock()
	f.deleteAs = http.StatusInternalServerError
	f.mu.Unlock()
	if err := c.DeleteEvent(ctx, "cal-1", "e1"); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestListEvents_ReturnsText(t *testing.T) {
	f, c := newFakeAPI(t)
	ev := timed("e1", "2025-06-01T14:00:00+08:00", "2025-06-01T15:00:00+08:00")
	ev.Summary = "Amy"
	ev.Description = "電話: 0912345678"
	f.put(ev)

	from := time.Date(2025, 6, 1, 13, 40, 0, 0, salon)
	got, err := c.ListEvents(context.Background(), "cal-1", from, from.Add(40*time.Minute))
	if err != nil || len(got) != 1 {
		t.Fatalf("ListEvents: %v %+v", err, got)
	}
	if got[0].ID != "e1" || !strings.Contains(got[0].Description, "0912345678") {
		t.Fatalf("unexpected event %+v", got[0])
	}
}

func TestQueryBusy_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apiError(w, http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c, err := NewWithOptions(context.Background(), salon, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	now := time.Now()
	if _, err := c.QueryBusy(context.Background(), "cal-1", now, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected error from 503")
	}
}

func TestLoadCredentials(t *testing.T) {
	if _, err := loadCredentials("  "); err == nil {
		t.Fatalf("expected error for empty credentials")
	}

	inline := `{"private_key":"-----BEGIN-----\\nABC\\n-----END-----"}`
	got, err := loadCredentials(inline)
	if err != nil {
		t.Fatalf("inline: %v", err)
	}
	if strings.Contains(string(got), `\\n`) {
		t.Fatalf("double escapes should be repaired, got %s", got)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, err := loadCredentials(path); err != nil || !strings.Contains(string(got), "service_account") {
		t.Fatalf("file: %v %s", err, got)
	}
	if _, err := loadCredentials(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	if _, err := New(context.Background(), `{"type":"authorized_user"}`, "", salon); err == nil {
		t.Fatalf("expected error for non service-account credentials")
	}
}
