package models

// All lists every model for auto-migration.
func All() []any {
	return []any{
		&Ministry{},
		&User{},
		&Member{},
		&SmallGroup{},
		&SmallGroupLeader{},
		&Meeting{},
		&MeetingAttendance{},
		&Event{},
		&EventLeader{},
		&EventRegistration{},
		&EventFeedback{},
		&Transaction{},
		&Material{},
		&Activity{},
	}
}
