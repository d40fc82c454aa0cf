package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/j01232026-hub/pretty/internal/domain"
)

// ErrDuplicate signals that an idempotency key was already recorded.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the live record for (user, store, key), or
// ErrNotFound when it is missing or expired.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, storeID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(storeID) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND store_id = ? AND key = ? AND expires_at > ?", userID, storeID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency records which booking a key produced.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, storeID, key string, bookingID uint64, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    userID,
		StoreID:   storeID,
		Key:       key,
		BookingID: bookingID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
