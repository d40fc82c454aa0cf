package services

import (
	"context"
	"errors"
	"testing"

	"github.com/j01232026-hub/pretty/internal/domain"
)

func seedUserDays(t *testing.T, h *harness) {
	t.Helper()
	for _, d := range []string{"2025-05-30", "2025-05-31", "2025-06-01", "2025-06-03"} {
		seedRow(t, h, domain.Booking{UserID: strp("u1"), Date: d, StartTime: "10:00", Stylist: "any"})
	}
	seedRow(t, h, domain.Booking{UserID: strp("u2"), Date: "2025-06-05", StartTime: "10:00", Stylist: "any"})
}

func TestParseScope(t *testing.T) {
	cases := map[string]ListScope{"": ScopeUpcoming, "Upcoming": ScopeUpcoming, " history ": ScopeHistory, "ALL": ScopeAll}
	for in, want := range cases {
		got, err := ParseScope(in)
		if err != nil || got != want {
			t.Fatalf("ParseScope(%q): expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := ParseScope("past"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListForUser_Scopes(t *testing.T) {
	h := newHarness(t)
	seedUserDays(t, h)
	ctx := context.Background()

	up, total, err := h.svc.ListForUser(ctx, testStore, "u1", ScopeUpcoming, 1, 10)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if total != 2 || len(up) != 2 || up[0].Date != "2025-06-01" || up[1].Date != "2025-06-03" {
		t.Fatalf("unexpected upcoming page: total=%d %+v", total, up)
	}

	hist, total, err := h.svc.ListForUser(ctx, testStore, "u1", ScopeHistory, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 2 || hist[0].Date != "2025-05-31" || hist[1].Date != "2025-05-30" {
		t.Fatalf("expected newest-first history, got %+v", hist)
	}

	all, total, err := h.svc.ListForUser(ctx, testStore, "u1", ScopeAll, 2, 3)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if total != 4 || len(all) != 1 || all[0].Date != "2025-05-30" {
		t.Fatalf("expected last item on page 2, got total=%d %+v", total, all)
	}
}

func TestListForUser_EmptyAndValidation(t *testing.T) {
	h := newHarness(t)
	items, total, err := h.svc.ListForUser(context.Background(), testStore, "nobody", ScopeAll, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", items)
	}
	if _, _, err := h.svc.ListForUser(context.Background(), testStore, " ", ScopeAll, 1, 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUserListStats(t *testing.T) {
	h := newHarness(t)
	seedUserDays(t, h)
	n, at, err := h.svc.UserListStats(context.Background(), testStore, "u1", ScopeUpcoming)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if n != 2 || at == nil {
		t.Fatalf("expected count 2 with timestamp, got %d %v", n, at)
	}
}

func TestListForStaff(t *testing.T) {
	h := newHarness(t)
	seedUserDays(t, h)
	ctx := context.Background()

	items, err := h.svc.ListForStaff(ctx, testStore, "")
	if err != nil {
		t.Fatalf("staff list: %v", err)
	}
	if len(items) != 3 || items[0].Date != "2025-06-01" || items[2].Date != "2025-06-05" {
		t.Fatalf("expected every user's upcoming rows ascending, got %+v", items)
	}

	day, err := h.svc.ListForStaff(ctx, testStore, "2025-05-30")
	if err != nil {
		t.Fatalf("staff day: %v", err)
	}
	if len(day) != 1 {
		t.Fatalf("expected one row on 2025-05-30, got %d", len(day))
	}

	if _, err := h.svc.ListForStaff(ctx, testStore, "yesterday"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
