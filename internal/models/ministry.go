package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ministry is the organizational unit that owns every other record.
type Ministry struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:200;not null"`
	Slug        string `gorm:"size:200;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m *Ministry) BeforeCreate(tx *gorm.DB) error { return ensureID(&m.ID) }

// ensureID assigns a random UUID when id is empty.
func ensureID(id *string) error {
	if *id == "" {
		*id = uuid.NewString()
	}
	return nil
}

// nullable converts "" to nil for optional foreign keys.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
