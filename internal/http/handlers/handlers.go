// Package handlers exposes the booking API over Gin.
//
// Handlers are transport-thin: they bind and check the request, apply the
// caller's role, delegate to the services, and translate results (including
// conditional and idempotent replays) into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j01232026-hub/pretty/internal/domain"
	"github.com/j01232026-hub/pretty/internal/http/middleware"
	"github.com/j01232026-hub/pretty/internal/services"
	"github.com/j01232026-hub/pretty/internal/utils"
)

//
// Service contracts (context-aware)
//

// BookingService is the booking engine plus its read side.
type BookingService interface {
	Create(ctx context.Context, in services.CreateInput) (*domain.Booking, error)
	Update(ctx context.Context, in services.UpdateInput) (*domain.Booking, error)
	Cancel(ctx context.Context, storeID string, id uint64) error
	Get(ctx context.Context, storeID string, id uint64) (*domain.Booking, error)
	ListForUser(ctx context.Context, storeID, userID string, scope services.ListScope, page, pageSize int) ([]domain.Booking, int64, error)
	UserListStats(ctx context.Context, storeID, userID string, scope services.ListScope) (int64, *time.Time, error)
	ListForStaff(ctx context.Context, storeID, date string) ([]domain.Booking, error)
}

// SlotService answers busy-slot queries.
type SlotService interface {
	BusySlots(ctx context.Context, storeID, date, stylist string) ([]domain.Interval, error)
}

// IdempotencyStore records which booking an Idempotency-Key produced.
type IdempotencyStore interface {
	Get(ctx context.Context, userID, storeID, key string, now time.Time) (*domain.Idempotency, error)
	Put(ctx context.Context, userID, storeID, key string, bookingID uint64, status int) error
}

// ProfileDirectory resolves a customer's display name within a store.
type ProfileDirectory interface {
	DisplayName(ctx context.Context, storeID, userID string) (string, error)
}

// Replier answers a LINE webhook event.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers. Idempotency, Profiles and Replier
// are optional.
type Deps struct {
	Bookings    BookingService
	Slots       SlotService
	Idempotency IdempotencyStore
	Profiles    ProfileDirectory
	Replier     Replier

	// LINEChannelSecret verifies webhook signatures. Empty disables the
	// webhook.
	LINEChannelSecret string
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	bookings   BookingService
	slots      SlotService
	idem       IdempotencyStore
	profiles   ProfileDirectory
	replier    Replier
	lineSecret string
}

// New constructs Handlers bound to d.
func New(d Deps) *Handlers {
	return &Handlers{
		bookings:   d.Bookings,
		slots:      d.Slots,
		idem:       d.Idempotency,
		profiles:   d.Profiles,
		replier:    d.Replier,
		lineSecret: d.LINEChannelSecret,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses page/page_size with defaults 1/20 and a cap of 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// callerID is the identity set by middleware.Identity; empty for anonymous
// callers.
func callerID(c *gin.Context) string {
	return middleware.UserID(c)
}
