package store

import (
	"context"

	"gorm.io/gorm"

	"ministry_hub/internal/models"
)

type EventStats struct {
	Registrations int64   `json:"registrations"`
	Cancelled     int64   `json:"cancelled"`
	Capacity      *int    `json:"capacity"`
	Feedbacks     int64   `json:"feedbacks"`
	AverageRating float64 `json:"average_rating"`
	Income        int64   `json:"income"`
	Expense       int64   `json:"expense"`
	Balance       int64   `json:"balance"`
}

func LoadEventStats(ctx context.Context, db *gorm.DB, ev *models.Event) (EventStats, error) {
	db = db.WithContext(ctx)
	st := EventStats{Capacity: ev.Capacity}

	var regs []struct {
		Status string
		N      int64
	}
	if err := db.Model(&models.EventRegistration{}).
		Select("status, COUNT(*) AS n").
		Where("event_id = ?", ev.ID).
		Group("status").
		Scan(&regs).Error; err != nil {
		return st, err
	}
	for _, r := range regs {
		switch r.Status {
		case models.RegistrationConfirmed:
			st.Registrations = r.N
		case models.RegistrationCancelled:
			st.Cancelled = r.N
		}
	}

	var fb struct {
		N   int64
		Avg *float64
	}
	if err := db.Model(&models.EventFeedback{}).
		Select("COUNT(*) AS n, AVG(rating) AS avg").
		Where("event_id = ?", ev.ID).
		Scan(&fb).Error; err != nil {
		return st, err
	}
	st.Feedbacks = fb.N
	if fb.Avg != nil {
		st.AverageRating = *fb.Avg
	}

	var money []struct {
		Type  string
		Total int64
	}
	if err := db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("event_id = ?", ev.ID).
		Group("type").
		Scan(&money).Error; err != nil {
		return st, err
	}
	for _, m := range money {
		switch m.Type {
		case models.TransactionIncome:
			st.Income = m.Total
		case models.TransactionExpense:
			st.Expense = m.Total
		}
	}
	st.Balance = st.Income - st.Expense
	return st, nil
}

type GroupStats struct {
	Members        int64            `json:"members"`
	Meetings       map[string]int64 `json:"meetings"`
	AttendanceRate float64          `json:"attendance_rate"`
}

func LoadGroupStats(ctx context.Context, db *gorm.DB, groupID string) (GroupStats, error) {
	db = db.WithContext(ctx)
	st := GroupStats{Meetings: map[string]int64{}}

	if err := db.Model(&models.Member{}).Where("small_group_id = ?", groupID).Count(&st.Members).Error; err != nil {
		return st, err
	}

	var rows []struct {
		Status string
		N      int64
	}
	if err := db.Model(&models.Meeting{}).
		Select("status, COUNT(*) AS n").
		Where("small_group_id = ?", groupID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return st, err
	}
	for _, r := range rows {
		st.Meetings[r.Status] = r.N
	}

	var att struct {
		Total   int64
		Present int64
	}
	if err := db.Table("meeting_attendances AS a").
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN a.present THEN 1 ELSE 0 END), 0) AS present").
		Joins("JOIN meetings m ON m.id = a.meeting_id").
		Where("m.small_group_id = ?", groupID).
		Scan(&att).Error; err != nil {
		return st, err
	}
	if att.Total > 0 {
		st.AttendanceRate = float64(att.Present) / float64(att.Total)
	}
	return st, nil
}
