package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/j01232026-hub/pretty/internal/domain"
	"github.com/j01232026-hub/pretty/internal/repo"
)

// ListScope selects which of a customer's bookings to list.
type ListScope string

const (
	ScopeUpcoming ListScope = "upcoming"
	ScopeHistory  ListScope = "history"
	ScopeAll      ListScope = "all"
)

// ParseScope maps query input to a scope; blank means upcoming.
func ParseScope(s string) (ListScope, error) {
	switch ListScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeUpcoming:
		return ScopeUpcoming, nil
	case ScopeHistory:
		return ScopeHistory, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", invalid("type must be upcoming, history or all")
}

// adminListLimit caps the staff listing.
const adminListLimit = 100

func (s *BookingService) today() string {
	return s.now().In(s.loc()).Format(dateLayout)
}

// userFilter builds the repo filter for a customer scope relative to today
// in the salon zone. Upcoming is ascending; history and all are newest first.
func (s *BookingService) userFilter(storeID, userID string, scope ListScope) repo.BookingFilter {
	f := repo.BookingFilter{StoreID: storeID, UserID: userID}
	switch scope {
	case ScopeHistory:
		f.BeforeDate = s.today()
		f.Descending = true
	case ScopeAll:
		f.Descending = true
	default:
		f.FromDate = s.today()
	}
	return f
}

// ListForUser returns one page of a customer's bookings and the total count.
func (s *BookingService) ListForUser(ctx context.Context, storeID, userID string, scope ListScope, page, pageSize int) ([]domain.Booking, int64, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "ListForUser",
		trace.WithAttributes(
			attribute.String("store.id", storeID),
			attribute.String("user.id", userID),
			attribute.String("scope", string(scope)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if strings.TrimSpace(storeID) == "" || strings.TrimSpace(userID) == "" {
		return nil, 0, invalid("store_id and user_id are required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	f := s.userFilter(storeID, userID, scope)
	total, err := repo.CountBookings(sctx, s.DB, f)
	if err != nil {
		return nil, 0, wrap(ErrStoreWrite, err, "count bookings")
	}
	if total == 0 {
		return []domain.Booking{}, 0, nil
	}
	items, err := repo.ListBookingsPage(sctx, s.DB, f, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, wrap(ErrStoreWrite, err, "list bookings")
	}
	return items, total, nil
}

// UserListStats returns the count and latest update of a customer scope,
// used for ETags.
func (s *BookingService) UserListStats(ctx context.Context, storeID, userID string, scope ListScope) (int64, *time.Time, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, at, err := repo.BookingsStats(sctx, s.DB, s.userFilter(storeID, userID, scope))
	if err != nil {
		return 0, nil, wrap(ErrStoreWrite, err, "booking stats")
	}
	return n, at, nil
}

// ListForStaff returns the store's bookings from today on, ascending, capped
// at 100. A non-empty date narrows the list to that day.
func (s *BookingService) ListForStaff(ctx context.Context, storeID, date string) ([]domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "ListForStaff",
		trace.WithAttributes(attribute.String("store.id", storeID), attribute.String("date", date)),
	)
	defer span.End()

	if strings.TrimSpace(storeID) == "" {
		return nil, invalid("store_id is required")
	}
	f := repo.BookingFilter{StoreID: storeID}
	if date = strings.TrimSpace(date); date != "" {
		if _, err := time.ParseInLocation(dateLayout, date, s.loc()); err != nil {
			return nil, invalid("date %q must be YYYY-MM-DD", date)
		}
		f.Date = date
	} else {
		f.FromDate = s.today()
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	items, err := repo.ListBookingsPage(sctx, s.DB, f, 0, adminListLimit)
	if err != nil {
		return nil, wrap(ErrStoreWrite, err, "list bookings")
	}
	return items, nil
}
