// Package domain holds the persistent records of the booking service and the
// value types exchanged with the external calendar.
package domain

import (
	"time"
)

// BookingKind distinguishes customer bookings from staff-entered ones.
type BookingKind string

const (
	KindRegular      BookingKind = "regular"
	KindStaffBooking BookingKind = "staff_booking"
	KindBlock        BookingKind = "block"
)

// Valid reports whether k is a known kind.
func (k BookingKind) Valid() bool {
	switch k {
	case KindRegular, KindStaffBooking, KindBlock:
		return true
	}
	return false
}

// StylistAny is stored when the customer has no preference.
const StylistAny = "any"

// BlockContactName is the placeholder contact for kind=block rows.
const BlockContactName = "內部保留"

// Booking is one reserved or blocked interval on a salon day.
//
// ID is the store's insert sequence; it doubles as the tie-break when
// concurrent creates race for the same (store_id, date, start_time).
type Booking struct {
	ID               uint64      `json:"id"                           gorm:"primaryKey;autoIncrement"`
	StoreID          string      `json:"store_id"                     gorm:"type:varchar(64);not null;index:idx_bookings_slot,priority:1"`
	UserID           *string     `json:"user_id,omitempty"            gorm:"type:varchar(64);index:idx_bookings_user"`
	Kind             BookingKind `json:"kind"                         gorm:"type:varchar(16);not null;default:'regular';check:kind IN ('regular','staff_booking','block')"`
	Date             string      `json:"date"                         gorm:"type:char(10);not null;index:idx_bookings_slot,priority:2"`
	StartTime        string      `json:"start_time"                   gorm:"type:char(5);not null;index:idx_bookings_slot,priority:3"`
	EndTime          *string     `json:"end_time,omitempty"           gorm:"type:char(5)"`
	IsAllDay         bool        `json:"is_all_day"                   gorm:"not null;default:false"`
	DurationMinutes  int         `json:"duration_minutes"             gorm:"not null;default:60"`
	ContactName      string      `json:"contact_name"                 gorm:"type:varchar(128);not null;default:''"`
	ContactPhone     string      `json:"contact_phone"                gorm:"type:varchar(32);not null;default:''"`
	Stylist          string      `json:"stylist"                      gorm:"type:varchar(64);not null;default:'any'"`
	Note             string      `json:"note,omitempty"               gorm:"type:text"`
	AdminOverride    bool        `json:"admin_override"               gorm:"not null;default:false"`
	ExternalEventID  *string     `json:"external_event_id,omitempty"  gorm:"type:varchar(255)"`
	ExternalEventURL *string     `json:"external_event_url,omitempty" gorm:"type:text"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// Mirrored reports whether the booking has a linked calendar event.
func (b *Booking) Mirrored() bool {
	return b.ExternalEventID != nil && *b.ExternalEventID != ""
}

// Profile is a customer identity, isolated per store.
type Profile struct {
	UserID     string    `json:"user_id"               gorm:"type:varchar(64);primaryKey"`
	StoreID    string    `json:"store_id"              gorm:"type:varchar(64);primaryKey"`
	Name       string    `json:"name"                  gorm:"type:varchar(128);not null;default:''"`
	Phone      string    `json:"phone"                 gorm:"type:varchar(32);not null;default:''"`
	LineUserID string    `json:"line_user_id,omitempty" gorm:"type:varchar(64)"`
	PictureURL string    `json:"picture_url,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// Store is a salon tenant. CalendarID names the shared external calendar
// its bookings are mirrored to.
type Store struct {
	ID          string    `json:"id"           gorm:"type:varchar(64);primaryKey"`
	Name        string    `json:"name"         gorm:"type:varchar(255);not null;default:''"`
	CalendarID  string    `json:"calendar_id"  gorm:"type:varchar(255);not null;default:''"`
	LineChannel string    `json:"line_channel,omitempty" gorm:"type:varchar(64)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Store) TableName() string { return "stores" }
