package models

import (
	"time"

	"gorm.io/gorm"
)

// Member is a person cared for by a ministry, optionally placed in a small group.
type Member struct {
	ID           string     `gorm:"primaryKey;size:36"`
	MinistryID   string     `gorm:"size:36;index;not null"`
	SmallGroupID *string    `gorm:"size:36;index"`
	Name         string     `gorm:"size:200;not null"`
	Email        string     `gorm:"size:255"`
	Phone        string     `gorm:"size:40"`
	BirthDate    *time.Time `gorm:"type:date"`
	Status       string     `gorm:"size:16;default:ACTIVE"`
	Notes        string     `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (m *Member) BeforeCreate(tx *gorm.DB) error { return ensureID(&m.ID) }

// SetSmallGroup places the member in a group; "" removes it from any group.
func (m *Member) SetSmallGroup(id string) { m.SmallGroupID = nullable(id) }
