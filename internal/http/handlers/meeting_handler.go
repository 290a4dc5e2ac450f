package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
)

func GetMeeting(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := loaded[models.Meeting](c)
		if err := db.WithContext(c.Request.Context()).Where("meeting_id = ?", m.ID).Find(&m.Attendance).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"meeting":     m,
			"permissions": permissions(engine(c, authz.KindMeeting)),
		})
	}
}

func UpdateMeeting(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Date      *string `json:"date" binding:"omitempty,date"`
			StartTime *string `json:"start_time" binding:"omitempty,clock"`
			EndTime   *string `json:"end_time" binding:"omitempty,clock"`
			Location  *string `json:"location" binding:"omitempty,max=255"`
			Status    *string `json:"status" binding:"omitempty,oneof=SCHEDULED DONE CANCELLED"`
			Notes     *string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m := loaded[models.Meeting](c)
		if in.Date != nil {
			m.Date = *parseDate(*in.Date)
		}
		if in.StartTime != nil {
			m.StartTime = *in.StartTime
		}
		if in.EndTime != nil {
			m.EndTime = *in.EndTime
		}
		if in.Location != nil {
			m.Location = *in.Location
		}
		if in.Status != nil {
			m.Status = *in.Status
		}
		if in.Notes != nil {
			m.Notes = *in.Notes
		}
		if err := db.WithContext(c.Request.Context()).Omit("Attendance").Save(m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   loadedFacts(c).MinistryID,
			Action:       "meeting.update",
			ResourceType: string(authz.KindMeeting),
			ResourceID:   m.ID,
			Metadata:     map[string]any{"status": m.Status},
		})
		c.JSON(http.StatusOK, gin.H{"meeting": m})
	}
}

// RecordAttendance upserts presence for members of the meeting's group and marks the
// meeting DONE.
func RecordAttendance(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Attendance []struct {
				MemberID string `json:"member_id" binding:"required"`
				Present  bool   `json:"present"`
			} `json:"attendance" binding:"required,dive"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m := loaded[models.Meeting](c)

		ids := make([]string, 0, len(in.Attendance))
		for _, a := range in.Attendance {
			ids = append(ids, a.MemberID)
		}
		var inGroup int64
		if err := db.WithContext(c.Request.Context()).Model(&models.Member{}).
			Where("id IN ? AND small_group_id = ?", dedupe(ids), m.SmallGroupID).
			Count(&inGroup).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if inGroup != int64(len(dedupe(ids))) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "member is not part of this small group"})
			return
		}

		rows := make([]models.MeetingAttendance, 0, len(in.Attendance))
		for _, a := range in.Attendance {
			rows = append(rows, models.MeetingAttendance{MeetingID: m.ID, MemberID: a.MemberID, Present: a.Present})
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if len(rows) > 0 {
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "meeting_id"}, {Name: "member_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"present"}),
				}).Create(&rows).Error; err != nil {
					return err
				}
			}
			return tx.Model(m).Update("status", models.MeetingDone).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		m.Status = models.MeetingDone
		m.Attendance = rows
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   loadedFacts(c).MinistryID,
			Action:       "meeting.attendance",
			ResourceType: string(authz.KindMeeting),
			ResourceID:   m.ID,
			Metadata:     map[string]any{"records": len(rows)},
		})
		c.JSON(http.StatusOK, gin.H{"meeting": m})
	}
}

func DeleteMeeting(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := loaded[models.Meeting](c)
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("meeting_id = ?", m.ID).Delete(&models.MeetingAttendance{}).Error; err != nil {
				return err
			}
			return tx.Delete(m).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   loadedFacts(c).MinistryID,
			Action:       "meeting.delete",
			ResourceType: string(authz.KindMeeting),
			ResourceID:   m.ID,
		})
		c.Status(http.StatusNoContent)
	}
}
