package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/j01232026-hub/pretty/internal/domain"
)

// GetStore fetches a salon tenant by id.
func GetStore(ctx context.Context, db *gorm.DB, id string) (*domain.Store, error) {
	var s domain.Store
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetProfile fetches a customer profile within one store.
func GetProfile(ctx context.Context, db *gorm.DB, storeID, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).
		Where("store_id = ? AND user_id = ?", storeID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
