package models

import (
	"time"

	"gorm.io/gorm"
)

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// User is an account able to sign in. Role is one of ADMIN, MASTER or LEADER.
type User struct {
	ID               string     `gorm:"primaryKey;size:36"`
	Email            string     `gorm:"uniqueIndex;size:255;not null"`
	Name             string     `gorm:"size:200"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	Role             string     `gorm:"size:16;not null;default:LEADER"`
	MinistryID       *string    `gorm:"size:36;index"`
	MasterMinistryID *string    `gorm:"size:36;index"`
	Status           UserStatus `gorm:"size:16;default:active"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Ministries []Ministry `gorm:"many2many:user_ministries;" json:",omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error { return ensureID(&u.ID) }

// SetMinistry sets the leader ministry; "" clears it.
func (u *User) SetMinistry(id string) { u.MinistryID = nullable(id) }

// SetMasterMinistry sets the administered ministry; "" clears it.
func (u *User) SetMasterMinistry(id string) { u.MasterMinistryID = nullable(id) }
