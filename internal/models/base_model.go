package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared fields for all persistent models.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUID identifiers are generated automatically.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// truncateToDay normalises a timestamp to midnight UTC so that expiry
// arithmetic works on calendar days rather than instants.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from one date to
// another. The result is negative when "to" lies in the past and zero when
// both fall on the same day.
func DaysBetween(from, to time.Time) int {
	return int(truncateToDay(to).Sub(truncateToDay(from)).Hours() / 24)
}
