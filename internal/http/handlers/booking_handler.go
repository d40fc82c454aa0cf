// Booking HTTP handlers.
//
// This file exposes REST endpoints for a store's bookings:
//   - POST   /stores/{store_id}/bookings        (create, idempotent with Idempotency-Key)
//   - GET    /stores/{store_id}/bookings        (customer lifecycle list or staff list)
//   - GET    /stores/{store_id}/bookings/{id}   (get one)
//   - PATCH  /stores/{store_id}/bookings/{id}   (move to a new window)
//   - DELETE /stores/{store_id}/bookings/{id}   (cancel)
//
// Customers act on their own bookings only. Staff (X-Admin-Secret) may act
// on any booking, create staff_booking and block rows, and set
// admin_override.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j01232026-hub/pretty/internal/domain"
	"github.com/j01232026-hub/pretty/internal/http/middleware"
	"github.com/j01232026-hub/pretty/internal/services"
	"github.com/j01232026-hub/pretty/internal/utils"
)

//
// DTOs
//

// CreateBookingRequest is the JSON payload for creating a booking.
type CreateBookingRequest struct {
	// Kind is regular (default), staff_booking or block. Staff only for the latter two.
	Kind      string  `json:"kind" example:"regular" enums:"regular,staff_booking,block"`
	Date      string  `json:"date" example:"2025-06-01"`
	StartTime string  `json:"start_time" example:"14:00"`
	EndTime   *string `json:"end_time,omitempty" example:"15:30"`
	IsAllDay  bool    `json:"is_all_day"`
	Stylist   string  `json:"stylist,omitempty" example:"Amy"`

	ContactName  string `json:"contact_name" example:"王小明"`
	ContactPhone string `json:"contact_phone" example:"0912-345-678"`
	Note         string `json:"note,omitempty"`

	// AdminOverride skips conflict checks. Staff only.
	AdminOverride bool `json:"admin_override"`
	// UserID books on behalf of a customer. Staff only; customers always book as themselves.
	UserID string `json:"user_id,omitempty"`
}

// UpdateBookingRequest moves a booking.
type UpdateBookingRequest struct {
	Date      string  `json:"date" example:"2025-06-02"`
	StartTime string  `json:"start_time" example:"10:00"`
	EndTime   *string `json:"end_time,omitempty" example:"11:00"`
	IsAllDay  bool    `json:"is_all_day"`
}

// ListBookingsResponse is a page of a customer's bookings.
type ListBookingsResponse struct {
	Bookings   []domain.Booking `json:"bookings"`
	Pagination Pagination       `json:"pagination"`
}

// StaffBookingsResponse is the staff view of upcoming bookings.
type StaffBookingsResponse struct {
	Bookings []domain.Booking `json:"bookings"`
}

//
// Helpers
//

func parseBookingID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// idemOwner matches the scope middleware.IdempotencyValidator looks up.
func idemOwner(c *gin.Context) string {
	if uid := callerID(c); uid != "" {
		return uid
	}
	return "anonymous"
}

// loadOwned fetches a booking the caller may act on. Customers get 404 for
// bookings that are not theirs.
func (h *Handlers) loadOwned(c *gin.Context, storeID string, id uint64) (*domain.Booking, bool) {
	admin := middleware.IsAdmin(c)
	uid := callerID(c)
	if !admin && uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID required")
		return nil, false
	}
	b, err := h.bookings.Get(c.Request.Context(), storeID, id)
	if err != nil {
		failErr(c, err)
		return nil, false
	}
	if !admin && (b.UserID == nil || *b.UserID != uid) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrBookingNotFound.Error())
		return nil, false
	}
	return b, true
}

//
// Handlers
//

// CreateBooking godoc
// @ID          createBooking
// @Summary     Create a booking
// @Description Reserves a slot. The slot is checked against the shared calendar and other
// @Description bookings; on success a calendar event is created and linked.
// @Description Supports idempotency via the Idempotency-Key header (same key → same booking).
// @Tags        Bookings
// @Accept      json
// @Produce     json
//
// @Param       store_id         path    string  true  "Store ID"
// @Param       X-User-ID        header  string  false "Customer (LINE) user id"  example(U4af4980629...)
// @Param       X-Admin-Secret   header  string  false "Staff shared secret"
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateBookingRequest  true  "Booking request"
//
// @Success     201  {object}  domain.Booking
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     403  {object}  handlers.ErrorResponse  "Staff only"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot unavailable"
// @Failure     502  {object}  handlers.ErrorResponse  "Calendar write failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Calendar or store unavailable"
// @Router      /stores/{store_id}/bookings [post]
func (h *Handlers) CreateBooking(c *gin.Context) {
	ctx := c.Request.Context()
	storeID := c.Param("store_id")

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	admin := middleware.IsAdmin(c)
	kind := domain.BookingKind(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = domain.KindRegular
	}
	if !admin && (kind != domain.KindRegular || req.AdminOverride || req.UserID != "") {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "staff only")
		return
	}

	var uid *string
	switch {
	case admin && req.UserID != "":
		uid = &req.UserID
	case callerID(c) != "":
		id := callerID(c)
		uid = &id
	case !admin:
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID required")
		return
	}

	// Replay path.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.idem != nil {
		if rec, err := h.idem.Get(ctx, idemOwner(c), storeID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err := h.bookings.Get(ctx, storeID, rec.BookingID); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, prev)
				return
			}
		}
	}

	b, err := h.bookings.Create(ctx, services.CreateInput{
		StoreID:       storeID,
		UserID:        uid,
		Kind:          kind,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		IsAllDay:      req.IsAllDay,
		Stylist:       req.Stylist,
		ContactName:   req.ContactName,
		ContactPhone:  req.ContactPhone,
		Note:          req.Note,
		AdminOverride: req.AdminOverride,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	// Store path, best effort.
	if idemKey != "" && h.idem != nil {
		if err := h.idem.Put(ctx, idemOwner(c), storeID, idemKey, b.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Uint64("booking_id", b.ID).Msg("idempotency record failed")
		}
	}

	ok(c, http.StatusCreated, b)
}

// ListBookings godoc
// @ID          listBookings
// @Summary     List bookings
// @Description Customers get their own bookings by lifecycle scope, paginated, with a weak ETag.
// @Description Staff without user_id get upcoming store bookings (max 100), optionally for one date.
// @Tags        Bookings
// @Produce     json
//
// @Param       store_id   path    string  true  "Store ID"
// @Param       X-User-ID  header  string  false "Customer (LINE) user id"
// @Param       user_id    query   string  false "Customer id (staff, or the caller's own id)"
// @Param       type       query   string  false "upcoming|history|all"  default(upcoming)
// @Param       date       query   string  false "Staff list: only this date (YYYY-MM-DD)"
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListBookingsResponse
// @Success     304  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /stores/{store_id}/bookings [get]
func (h *Handlers) ListBookings(c *gin.Context) {
	ctx := c.Request.Context()
	storeID := c.Param("store_id")
	uid := strings.TrimSpace(c.Query("user_id"))

	if !middleware.IsAdmin(c) {
		caller := callerID(c)
		if caller == "" {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID required")
			return
		}
		if uid != "" && uid != caller {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "cannot list another user's bookings")
			return
		}
		uid = caller
	}

	if uid == "" {
		items, err := h.bookings.ListForStaff(ctx, storeID, c.Query("date"))
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, StaffBookingsResponse{Bookings: items})
		return
	}

	scope, err := services.ParseScope(c.Query("type"))
	if err != nil {
		failErr(c, err)
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.bookings.UserListStats(ctx, storeID, uid, scope); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"bookings:%s:%s:%s:%d:%d:%d:%d"`, storeID, uid, scope, page, pageSize, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.bookings.ListForUser(ctx, storeID, uid, scope, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListBookingsResponse{
		Bookings: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetBooking godoc
// @ID          getBooking
// @Summary     Get a booking
// @Tags        Bookings
// @Produce     json
// @Param       store_id   path    string  true  "Store ID"
// @Param       id         path    int     true  "Booking ID"
// @Param       X-User-ID  header  string  false "Customer (LINE) user id"
// @Success     200  {object}  domain.Booking
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /stores/{store_id}/bookings/{id} [get]
func (h *Handlers) GetBooking(c *gin.Context) {
	id, valid := parseBookingID(c)
	if !valid {
		return
	}
	b, allowed := h.loadOwned(c, c.Param("store_id"), id)
	if !allowed {
		return
	}
	ok(c, http.StatusOK, b)
}

// UpdateBooking godoc
// @ID          updateBooking
// @Summary     Move a booking
// @Description Moves a booking to a new window. The calendar event is patched first; the
// @Description stored row changes only after the patch succeeds.
// @Tags        Bookings
// @Accept      json
// @Produce     json
// @Param       store_id   path    string  true  "Store ID"
// @Param       id         path    int     true  "Booking ID"
// @Param       X-User-ID  header  string  false "Customer (LINE) user id"
// @Param       body       body    handlers.UpdateBookingRequest  true  "New window"
// @Success     200  {object}  domain.Booking
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Failure     502  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /stores/{store_id}/bookings/{id} [patch]
func (h *Handlers) UpdateBooking(c *gin.Context) {
	storeID := c.Param("store_id")
	id, valid := parseBookingID(c)
	if !valid {
		return
	}

	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, allowed := h.loadOwned(c, storeID, id); !allowed {
		return
	}

	b, err := h.bookings.Update(c.Request.Context(), services.UpdateInput{
		StoreID:   storeID,
		ID:        id,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsAllDay:  req.IsAllDay,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// CancelBooking godoc
// @ID          cancelBooking
// @Summary     Cancel a booking
// @Description Deletes the calendar event (best effort) and then the stored booking.
// @Tags        Bookings
// @Param       store_id   path    string  true  "Store ID"
// @Param       id         path    int     true  "Booking ID"
// @Param       X-User-ID  header  string  false "Customer (LINE) user id"
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /stores/{store_id}/bookings/{id} [delete]
func (h *Handlers) CancelBooking(c *gin.Context) {
	storeID := c.Param("store_id")
	id, valid := parseBookingID(c)
	if !valid {
		return
	}
	if _, allowed := h.loadOwned(c, storeID, id); !allowed {
		return
	}
	if err := h.bookings.Cancel(c.Request.Context(), storeID, id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
