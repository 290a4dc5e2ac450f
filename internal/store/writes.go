package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ministry_hub/internal/models"
	"ministry_hub/internal/schedule"
)

// CountUsers returns how many of ids name existing users.
func CountUsers(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// ReplaceEventLeaders swaps the leader set of an event in one transaction.
func ReplaceEventLeaders(ctx context.Context, db *gorm.DB, eventID string, userIDs []string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.EventLeader{}).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		rows := make([]models.EventLeader, 0, len(userIDs))
		for _, id := range userIDs {
			rows = append(rows, models.EventLeader{EventID: eventID, UserID: id})
		}
		return tx.Create(&rows).Error
	})
}

// ReplaceGroupLeaders swaps the leader set of a small group in one transaction.
func ReplaceGroupLeaders(ctx context.Context, db *gorm.DB, groupID string, userIDs []string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("small_group_id = ?", groupID).Delete(&models.SmallGroupLeader{}).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		rows := make([]models.SmallGroupLeader, 0, len(userIDs))
		for _, id := range userIDs {
			rows = append(rows, models.SmallGroupLeader{SmallGroupID: groupID, UserID: id})
		}
		return tx.Create(&rows).Error
	})
}

// CreateMeetings inserts occurrences as one batch. Nothing is written for an empty list.
func CreateMeetings(ctx context.Context, db *gorm.DB, groupID string, occ []schedule.Occurrence) ([]models.Meeting, error) {
	if len(occ) == 0 {
		return nil, nil
	}
	meetings := make([]models.Meeting, 0, len(occ))
	for _, o := range occ {
		meetings = append(meetings, models.Meeting{
			SmallGroupID: groupID,
			Date:         o.Date,
			StartTime:    o.StartTime,
			EndTime:      o.EndTime,
			Location:     o.Location,
			Status:       models.MeetingScheduled,
		})
	}
	if err := db.WithContext(ctx).Create(&meetings).Error; err != nil {
		return nil, fmt.Errorf("create meetings: %w", err)
	}
	return meetings, nil
}

// ConfirmedRegistrations counts the confirmed places of an event.
func ConfirmedRegistrations(ctx context.Context, db *gorm.DB, eventID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("event_id = ? AND status = ?", eventID, models.RegistrationConfirmed).
		Count(&n).Error
	return n, err
}
