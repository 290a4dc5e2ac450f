package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	EventPlanned   = "PLANNED"
	EventOpen      = "OPEN"
	EventClosed    = "CLOSED"
	EventCancelled = "CANCELLED"
	EventFinished  = "FINISHED"
)

var eventTransitions = map[string][]string{
	EventPlanned: {EventOpen, EventCancelled},
	EventOpen:    {EventClosed, EventCancelled},
	EventClosed:  {EventOpen, EventFinished, EventCancelled},
}

// EventTransitionAllowed reports whether an event may move from one status to another.
// CANCELLED and FINISHED are final.
func EventTransitionAllowed(from, to string) bool {
	for _, s := range eventTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Event is a ministry gathering people register for.
type Event struct {
	ID          string     `gorm:"primaryKey;size:36"`
	MinistryID  string     `gorm:"size:36;index;not null"`
	Title       string     `gorm:"size:200;not null"`
	Description string     `gorm:"type:text"`
	Location    string     `gorm:"size:255"`
	StartsAt    time.Time  `gorm:"index"`
	EndsAt      *time.Time `gorm:"index"`
	Capacity    *int       `gorm:"default:null"`
	Status      string     `gorm:"size:16;default:PLANNED"`
	CreatedByID string     `gorm:"size:36"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Leaders []EventLeader `gorm:"foreignKey:EventID" json:",omitempty"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error { return ensureID(&e.ID) }

// LeaderIDs returns the user ids of the event's leaders.
func (e *Event) LeaderIDs() []string {
	ids := make([]string, 0, len(e.Leaders))
	for _, l := range e.Leaders {
		ids = append(ids, l.UserID)
	}
	return ids
}

// EventLeader names a user as leader of an event.
type EventLeader struct {
	EventID   string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
}

const (
	RegistrationConfirmed = "CONFIRMED"
	RegistrationCancelled = "CANCELLED"
)

// EventRegistration is a participant's place in an event.
type EventRegistration struct {
	ID        string  `gorm:"primaryKey;size:36"`
	EventID   string  `gorm:"size:36;index;not null"`
	UserID    *string `gorm:"size:36;index"`
	MemberID  *string `gorm:"size:36;index"`
	Name      string  `gorm:"size:200;not null"`
	Email     string  `gorm:"size:255"`
	Status    string  `gorm:"size:16;default:CONFIRMED"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *EventRegistration) BeforeCreate(tx *gorm.DB) error { return ensureID(&r.ID) }

// EventFeedback is a rating left by a participant.
type EventFeedback struct {
	ID        string `gorm:"primaryKey;size:36"`
	EventID   string `gorm:"size:36;index;not null"`
	UserID    string `gorm:"size:36;index"`
	Rating    int    `gorm:"not null"`
	Comment   string `gorm:"type:text"`
	CreatedAt time.Time
}

func (f *EventFeedback) BeforeCreate(tx *gorm.DB) error { return ensureID(&f.ID) }

// Material is a file attached to an event and kept in the blob store.
type Material struct {
	ID           string `gorm:"primaryKey;size:36"`
	EventID      string `gorm:"size:36;index;not null"`
	Name         string `gorm:"size:200;not null"`
	FileName     string `gorm:"size:255"`
	ContentType  string `gorm:"size:100"`
	Size         int64
	StorageKey   string `gorm:"size:255" json:"-"`
	UploadedByID string `gorm:"size:36"`
	CreatedAt    time.Time
}

func (m *Material) BeforeCreate(tx *gorm.DB) error { return ensureID(&m.ID) }
