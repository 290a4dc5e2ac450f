package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MeetingScheduled = "SCHEDULED"
	MeetingDone      = "DONE"
	MeetingCancelled = "CANCELLED"
)

// Meeting is one dated gathering of a small group.
type Meeting struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SmallGroupID string    `gorm:"size:36;index;not null"`
	Date         time.Time `gorm:"type:date;index"`
	StartTime    string    `gorm:"size:5"`
	EndTime      string    `gorm:"size:5"`
	Location     string    `gorm:"size:255"`
	Status       string    `gorm:"size:16;default:SCHEDULED"`
	Notes        string    `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Attendance []MeetingAttendance `gorm:"foreignKey:MeetingID" json:",omitempty"`
}

func (m *Meeting) BeforeCreate(tx *gorm.DB) error { return ensureID(&m.ID) }

// MeetingAttendance records whether a member attended a meeting.
type MeetingAttendance struct {
	MeetingID string `gorm:"primaryKey;size:36"`
	MemberID  string `gorm:"primaryKey;size:36"`
	Present   bool
}
