package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// BookingsStats returns the number of bookings matching f and the latest
// updated_at among them. Handlers derive weak ETags from the pair.
func BookingsStats(ctx context.Context, db *gorm.DB, f BookingFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	if count, err = CountBookings(ctx, db, f); err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	q := applyFilter(db.WithContext(ctx).Table("bookings"), f)
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
