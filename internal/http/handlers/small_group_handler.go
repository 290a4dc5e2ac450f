package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/schedule"
	"ministry_hub/internal/store"
)

type smallGroupInput struct {
	MinistryID   string   `json:"ministry_id" binding:"required"`
	Name         string   `json:"name" binding:"required,max=200"`
	Description  string   `json:"description"`
	Street       string   `json:"street" binding:"max=200"`
	Number       string   `json:"number" binding:"max=20"`
	Neighborhood string   `json:"neighborhood" binding:"max=120"`
	City         string   `json:"city" binding:"max=120"`
	State        string   `json:"state" binding:"max=60"`
	ZipCode      string   `json:"zip_code" binding:"max=20"`
	Frequency    string   `json:"frequency" binding:"omitempty,frequency"`
	DayOfWeek    string   `json:"day_of_week" binding:"omitempty,weekday"`
	StartTime    string   `json:"start_time" binding:"omitempty,clock"`
	EndTime      string   `json:"end_time" binding:"omitempty,clock"`
	StartDate    string   `json:"start_date" binding:"omitempty,date"`
	LeaderIDs    []string `json:"leader_ids"`
}

func (in smallGroupInput) apply(g *models.SmallGroup) {
	g.MinistryID = in.MinistryID
	g.Name = strings.TrimSpace(in.Name)
	g.Description = in.Description
	g.Street, g.Number, g.Neighborhood = in.Street, in.Number, in.Neighborhood
	g.City, g.State, g.ZipCode = in.City, in.State, in.ZipCode
	g.Frequency = in.Frequency
	g.DayOfWeek = in.DayOfWeek
	g.StartTime = in.StartTime
	g.EndTime = in.EndTime
	g.StartDate = parseDate(in.StartDate)
}

// recurrence maps a group's meeting settings onto the schedule generator.
func recurrence(g *models.SmallGroup) schedule.Recurrence {
	rec := schedule.Recurrence{
		Frequency: schedule.Frequency(g.Frequency),
		DayOfWeek: schedule.Weekday(g.DayOfWeek),
		StartTime: g.StartTime,
		EndTime:   g.EndTime,
		Location:  schedule.Location(g.Street, g.Number, g.Neighborhood, g.City, g.State),
	}
	if g.StartDate != nil {
		rec.StartDate = *g.StartDate
	}
	return rec
}

func ListSmallGroups(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := principal(c).Engine(authz.KindSmallGroup, nil).Scope()
		q := store.Scoped(db.WithContext(c.Request.Context()), scope, "ministry_id")
		if c.Query("mine") == "true" {
			q = q.Where("id IN (?)", db.Model(&models.SmallGroupLeader{}).
				Select("small_group_id").
				Where("user_id = ?", principal(c).User.ID))
		}
		var out []models.SmallGroup
		if err := q.Preload("Leaders").Order("name").Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"small_groups": out})
	}
}

// CreateSmallGroup stores the group, its leaders and the meetings its recurrence yields
// up to the generation horizon, all in one transaction.
func CreateSmallGroup(db *gorm.DB, rec *activity.Recorder, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in smallGroupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		if !allowCreate(c, p, authz.KindSmallGroup, in.MinistryID) {
			return
		}
		leaders := dedupe(in.LeaderIDs)
		if !checkLeaders(c, db, leaders) {
			return
		}

		var g models.SmallGroup
		in.apply(&g)
		occ := schedule.Generate(recurrence(&g), now())

		var meetings []models.Meeting
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&g).Error; err != nil {
				return err
			}
			if err := store.ReplaceGroupLeaders(c.Request.Context(), tx, g.ID, leaders); err != nil {
				return err
			}
			var err error
			meetings, err = store.CreateMeetings(c.Request.Context(), tx, g.ID, occ)
			return err
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		rec.Record(c, p, activity.Entry{
			MinistryID:   g.MinistryID,
			Action:       "small_group.create",
			ResourceType: string(authz.KindSmallGroup),
			ResourceID:   g.ID,
			Metadata:     map[string]any{"name": g.Name, "meetings": len(meetings)},
		})
		c.JSON(http.StatusCreated, gin.H{
			"small_group":      g,
			"leader_ids":       leaders,
			"meetings_created": len(meetings),
		})
	}
}

func GetSmallGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"small_group": loaded[models.SmallGroup](c),
			"permissions": permissions(engine(c, authz.KindSmallGroup)),
		})
	}
}

// UpdateSmallGroup edits group details. Leaders and already generated meetings are not
// touched; leader_ids is ignored here.
func UpdateSmallGroup(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in smallGroupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		g := loaded[models.SmallGroup](c)
		if in.MinistryID != g.MinistryID && !allowCreate(c, p, authz.KindSmallGroup, in.MinistryID) {
			return
		}
		in.apply(g)
		if err := db.WithContext(c.Request.Context()).Omit("Leaders").Save(g).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   g.MinistryID,
			Action:       "small_group.update",
			ResourceType: string(authz.KindSmallGroup),
			ResourceID:   g.ID,
		})
		c.JSON(http.StatusOK, gin.H{"small_group": g})
	}
}

func DeleteSmallGroup(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		g := loaded[models.SmallGroup](c)
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("meeting_id IN (?)", tx.Model(&models.Meeting{}).Select("id").Where("small_group_id = ?", g.ID)).
				Delete(&models.MeetingAttendance{}).Error; err != nil {
				return err
			}
			if err := tx.Where("small_group_id = ?", g.ID).Delete(&models.Meeting{}).Error; err != nil {
				return err
			}
			if err := tx.Where("small_group_id = ?", g.ID).Delete(&models.SmallGroupLeader{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Member{}).Where("small_group_id = ?", g.ID).Update("small_group_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(g).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   g.MinistryID,
			Action:       "small_group.delete",
			ResourceType: string(authz.KindSmallGroup),
			ResourceID:   g.ID,
			Metadata:     map[string]any{"name": g.Name},
		})
		c.Status(http.StatusNoContent)
	}
}

func SetSmallGroupLeaders(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			LeaderIDs []string `json:"leader_ids"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		leaders := dedupe(in.LeaderIDs)
		if !checkLeaders(c, db, leaders) {
			return
		}
		g := loaded[models.SmallGroup](c)
		if err := store.ReplaceGroupLeaders(c.Request.Context(), db, g.ID, leaders); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   g.MinistryID,
			Action:       "small_group.leaders",
			ResourceType: string(authz.KindSmallGroup),
			ResourceID:   g.ID,
			Metadata:     map[string]any{"leader_ids": leaders},
		})
		c.JSON(http.StatusOK, gin.H{"leader_ids": leaders})
	}
}

// SetSmallGroupMembers places the given members of the group's ministry in the group.
func SetSmallGroupMembers(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			MemberIDs []string `json:"member_ids"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		g := loaded[models.SmallGroup](c)
		ids := dedupe(in.MemberIDs)
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Member{}).
				Where("small_group_id = ?", g.ID).
				Update("small_group_id", nil).Error; err != nil {
				return err
			}
			if len(ids) == 0 {
				return nil
			}
			return tx.Model(&models.Member{}).
				Where("id IN ? AND ministry_id = ?", ids, g.MinistryID).
				Update("small_group_id", g.ID).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   g.MinistryID,
			Action:       "small_group.members",
			ResourceType: string(authz.KindSmallGroup),
			ResourceID:   g.ID,
			Metadata:     map[string]any{"member_ids": ids},
		})
		c.JSON(http.StatusOK, gin.H{"member_ids": ids})
	}
}

func ListGroupMeetings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		g := loaded[models.SmallGroup](c)
		q := db.WithContext(c.Request.Context()).Where("small_group_id = ?", g.ID)
		if from := parseDate(c.Query("from")); from != nil {
			q = q.Where("date >= ?", *from)
		}
		if to := parseDate(c.Query("to")); to != nil {
			q = q.Where("date <= ?", *to)
		}
		var out []models.Meeting
		if err := q.Order("date").Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"meetings": out})
	}
}

// AddGroupMeeting schedules one extra meeting outside the recurrence.
func AddGroupMeeting(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Date      string `json:"date" binding:"required,date"`
			StartTime string `json:"start_time" binding:"required,clock"`
			EndTime   string `json:"end_time" binding:"omitempty,clock"`
			Location  string `json:"location" binding:"max=255"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		g := loaded[models.SmallGroup](c)
		loc := in.Location
		if loc == "" {
			loc = recurrence(g).Location
		}
		occ := schedule.Generate(schedule.Recurrence{
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			StartDate: *parseDate(in.Date),
			Location:  loc,
		}, time.Time{})
		if len(occ) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting date"})
			return
		}
		meetings, err := store.CreateMeetings(c.Request.Context(), db, g.ID, occ)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   g.MinistryID,
			Action:       "meeting.create",
			ResourceType: string(authz.KindMeeting),
			ResourceID:   meetings[0].ID,
		})
		c.JSON(http.StatusCreated, gin.H{"meeting": meetings[0]})
	}
}

func SmallGroupStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		g := loaded[models.SmallGroup](c)
		st, err := store.LoadGroupStats(c.Request.Context(), db, g.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": st})
	}
}
