// Package repo is the record store client: thin, context-aware gorm
// functions over bookings, profiles, stores and idempotency keys. No business
// rules live here; the booking engine composes these calls into its saga.
//
// Missing rows surface as ErrNotFound (gorm.ErrRecordNotFound). Other
// database errors are returned unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/j01232026-hub/pretty/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// BookingWindow is the mutable time portion of a booking.
type BookingWindow struct {
	Date            string
	StartTime       string
	EndTime         *string
	IsAllDay        bool
	DurationMinutes int
}

// BookingFilter narrows list and count queries. Empty fields are ignored.
type BookingFilter struct {
	StoreID    string
	UserID     string
	Date       string // exact day
	FromDate   string // inclusive
	BeforeDate string // exclusive
	Descending bool
}

// InsertBooking stores b and fills in its ID and timestamps.
func InsertBooking(ctx context.Context, db *gorm.DB, b *domain.Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.UpdatedAt = b.CreatedAt
	return db.WithContext(ctx).Create(b).Error
}

// GetBooking fetches one booking of a store.
func GetBooking(ctx context.Context, db *gorm.DB, storeID string, id uint64) (*domain.Booking, error) {
	var b domain.Booking
	err := db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListContenders returns every booking on the contention key
// (store_id, date, start_time) in insert order, oldest first.
func ListContenders(ctx context.Context, db *gorm.DB, storeID, date, startTime string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := db.WithContext(ctx).
		Where("store_id = ? AND date = ? AND start_time = ?", storeID, date, startTime).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// DeleteBooking hard-deletes a booking. ErrNotFound when nothing matched.
func DeleteBooking(ctx context.Context, db *gorm.DB, storeID string, id uint64) error {
	res := db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		Delete(&domain.Booking{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStaleLocks removes a user's unmirrored rows on a contention key,
// left behind by an earlier attempt that never reached the calendar. Only
// rows created before cutoff count; younger ones may belong to an attempt
// that is still running.
func DeleteStaleLocks(ctx context.Context, db *gorm.DB, storeID, userID, date, startTime string, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("store_id = ? AND user_id = ? AND date = ? AND start_time = ? AND (external_event_id IS NULL OR external_event_id = '') AND created_at < ?",
			storeID, userID, date, startTime, cutoff.UTC()).
		Delete(&domain.Booking{})
	return res.RowsAffected, res.Error
}

// AttachEvent records the calendar mirror of a booking.
func AttachEvent(ctx context.Context, db *gorm.DB, id uint64, eventID, eventURL string) error {
	updates := map[string]any{
		"external_event_id": eventID,
		"updated_at":        time.Now().UTC(),
	}
	if eventURL != "" {
		updates["external_event_url"] = eventURL
	}
	res := db.WithContext(ctx).Model(&domain.Booking{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBookingWindow rewrites the date/time fields of a booking.
func UpdateBookingWindow(ctx context.Context, db *gorm.DB, storeID string, id uint64, w BookingWindow) error {
	res := db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND store_id = ?", id, storeID).
		Updates(map[string]any{
			"date":             w.Date,
			"start_time":       w.StartTime,
			"end_time":         w.EndTime,
			"is_all_day":       w.IsAllDay,
			"duration_minutes": w.DurationMinutes,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBookingsByDay returns a store's bookings on one date ordered by start.
func ListBookingsByDay(ctx context.Context, db *gorm.DB, storeID, date string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := db.WithContext(ctx).
		Where("store_id = ? AND date = ?", storeID, date).
		Order("start_time ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountBookings returns how many bookings match f.
func CountBookings(ctx context.Context, db *gorm.DB, f BookingFilter) (int64, error) {
	var n int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.Booking{}), f).Count(&n).Error
	return n, err
}

// ListBookingsPage returns a page of bookings matching f, ordered by
// date and start time. A negative limit returns everything from offset.
func ListBookingsPage(ctx context.Context, db *gorm.DB, f BookingFilter, offset, limit int) ([]domain.Booking, error) {
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	var out []domain.Booking
	err := applyFilter(db.WithContext(ctx), f).
		Order("date " + dir).
		Order("start_time " + dir).
		Order("id " + dir).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func applyFilter(q *gorm.DB, f BookingFilter) *gorm.DB {
	q = q.Where("store_id = ?", f.StoreID)
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}
	if f.FromDate != "" {
		q = q.Where("date >= ?", f.FromDate)
	}
	if f.BeforeDate != "" {
		q = q.Where("date < ?", f.BeforeDate)
	}
	return q
}

// isDuplicate reports whether err is a unique-constraint violation on any
// of the supported drivers.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
