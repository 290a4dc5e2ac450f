package models

import (
	"time"

	"gorm.io/gorm"
)

// SmallGroup is a home group with a recurring meeting configuration.
type SmallGroup struct {
	ID           string     `gorm:"primaryKey;size:36"`
	MinistryID   string     `gorm:"size:36;index;not null"`
	Name         string     `gorm:"size:200;not null"`
	Description  string     `gorm:"type:text"`
	Street       string     `gorm:"size:200"`
	Number       string     `gorm:"size:20"`
	Neighborhood string     `gorm:"size:120"`
	City         string     `gorm:"size:120"`
	State        string     `gorm:"size:60"`
	ZipCode      string     `gorm:"size:20"`
	Frequency    string     `gorm:"size:16"`
	DayOfWeek    string     `gorm:"size:16"`
	StartTime    string     `gorm:"size:5"`
	EndTime      string     `gorm:"size:5"`
	StartDate    *time.Time `gorm:"type:date"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Leaders []SmallGroupLeader `gorm:"foreignKey:SmallGroupID" json:",omitempty"`
}

func (g *SmallGroup) BeforeCreate(tx *gorm.DB) error { return ensureID(&g.ID) }

// LeaderIDs returns the user ids of the group's leaders.
func (g *SmallGroup) LeaderIDs() []string {
	ids := make([]string, 0, len(g.Leaders))
	for _, l := range g.Leaders {
		ids = append(ids, l.UserID)
	}
	return ids
}

// SmallGroupLeader names a user as leader of a group.
type SmallGroupLeader struct {
	SmallGroupID string `gorm:"primaryKey;size:36"`
	UserID       string `gorm:"primaryKey;size:36"`
	CreatedAt    time.Time
}
