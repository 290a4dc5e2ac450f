package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ministry_hub/internal/models"
)

var (
	ErrEventFull         = errors.New("event is full")
	ErrEventNotOpen      = errors.New("event is not open for registration")
	ErrAlreadyRegistered = errors.New("already registered")
)

// Register adds a confirmed place for reg.UserID or reg.MemberID in ev. Capacity is
// checked inside the insert transaction; concurrent registrations are left to the database.
func Register(ctx context.Context, db *gorm.DB, ev *models.Event, reg *models.EventRegistration) error {
	if ev.Status != models.EventOpen {
		return ErrEventNotOpen
	}
	reg.EventID = ev.ID
	reg.Status = models.RegistrationConfirmed

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reg.UserID != nil || reg.MemberID != nil {
			q := tx.Model(&models.EventRegistration{}).Where("event_id = ? AND status = ?", ev.ID, models.RegistrationConfirmed)
			if reg.UserID != nil {
				q = q.Where("user_id = ?", *reg.UserID)
			} else {
				q = q.Where("member_id = ?", *reg.MemberID)
			}
			var dup int64
			if err := q.Count(&dup).Error; err != nil {
				return err
			}
			if dup > 0 {
				return ErrAlreadyRegistered
			}
		}
		if ev.Capacity != nil {
			taken, err := ConfirmedRegistrations(ctx, tx, ev.ID)
			if err != nil {
				return err
			}
			if taken >= int64(*ev.Capacity) {
				return ErrEventFull
			}
		}
		return tx.Create(reg).Error
	})
}
