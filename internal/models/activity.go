package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is the audit trail of successful mutations. MinistryID is nil for
// platform-wide actions; Action reads like "event.create" or "small_group.leaders".
type Activity struct {
	ID            int64          `gorm:"primaryKey"`
	MinistryID    *string        `gorm:"size:36;index"`
	UserID        string         `gorm:"size:36;index"`
	Action        string         `gorm:"size:200;not null"`
	ResourceType  string         `gorm:"size:100"`
	ResourceID    string         `gorm:"size:36;index"`
	Metadata      datatypes.JSON `gorm:"type:json"`
	IP            string         `gorm:"size:64"`
	InitiatorName string         `gorm:"size:255" json:"initiator_name"`
	UserAgent     string         `gorm:"size:255"`
	CreatedAt     time.Time
}
