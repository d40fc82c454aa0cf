package domain

import "time"

// Idempotency remembers which booking a client's Idempotency-Key produced,
// scoped to (user, store). Rows past ExpiresAt are ignored.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_store_key,priority:1"`
	StoreID   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_store_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_store_key,priority:3"`
	BookingID uint64    `gorm:"not null"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (Idempotency) TableName() string { return "idempotency" }
