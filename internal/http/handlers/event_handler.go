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
	"ministry_hub/internal/store"
)

type eventInput struct {
	MinistryID  string     `json:"ministry_id" binding:"required"`
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description"`
	Location    string     `json:"location" binding:"max=255"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at" binding:"omitempty,gtfield=StartsAt"`
	Capacity    *int       `json:"capacity" binding:"omitempty,min=1"`
	LeaderIDs   []string   `json:"leader_ids"`
}

func (in eventInput) apply(ev *models.Event) {
	ev.MinistryID = in.MinistryID
	ev.Title = strings.TrimSpace(in.Title)
	ev.Description = in.Description
	ev.Location = in.Location
	ev.StartsAt = in.StartsAt
	ev.EndsAt = in.EndsAt
	ev.Capacity = in.Capacity
}

func ListEvents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := principal(c).Engine(authz.KindEvent, nil).Scope()
		q := store.Scoped(db.WithContext(c.Request.Context()), scope, "ministry_id")
		if s := c.Query("status"); s != "" {
			q = q.Where("status = ?", s)
		}
		if c.Query("upcoming") == "true" {
			q = q.Where("starts_at >= ?", time.Now())
		}
		var out []models.Event
		if err := q.Preload("Leaders").Order("starts_at").Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": out})
	}
}

func CreateEvent(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in eventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		if !allowCreate(c, p, authz.KindEvent, in.MinistryID) {
			return
		}
		leaders := dedupe(in.LeaderIDs)
		if !checkLeaders(c, db, leaders) {
			return
		}

		ev := models.Event{Status: models.EventPlanned, CreatedByID: p.User.ID}
		in.apply(&ev)
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&ev).Error; err != nil {
				return err
			}
			return store.ReplaceEventLeaders(c.Request.Context(), tx, ev.ID, leaders)
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.create",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"title": ev.Title},
		})
		c.JSON(http.StatusCreated, gin.H{"event": ev, "leader_ids": leaders})
	}
}

func GetEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"event":       loaded[models.Event](c),
			"permissions": permissions(engine(c, authz.KindEvent)),
		})
	}
}

// UpdateEvent edits the event details. Leaders are changed through their own route.
func UpdateEvent(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in eventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		ev := loaded[models.Event](c)
		if in.MinistryID != ev.MinistryID && !allowCreate(c, p, authz.KindEvent, in.MinistryID) {
			return
		}
		in.apply(ev)
		if err := db.WithContext(c.Request.Context()).Omit("Leaders").Save(ev).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.update",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
		})
		c.JSON(http.StatusOK, gin.H{"event": ev})
	}
}

func DeleteEvent(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev := loaded[models.Event](c)
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			for _, m := range []any{&models.EventLeader{}, &models.EventRegistration{}, &models.EventFeedback{}} {
				if err := tx.Where("event_id = ?", ev.ID).Delete(m).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&models.Transaction{}).Where("event_id = ?", ev.ID).Update("event_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(ev).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.delete",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"title": ev.Title},
		})
		c.Status(http.StatusNoContent)
	}
}

func ChangeEventStatus(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Status string `json:"status" binding:"required,oneof=PLANNED OPEN CLOSED CANCELLED FINISHED"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ev := loaded[models.Event](c)
		if !models.EventTransitionAllowed(ev.Status, in.Status) {
			c.JSON(http.StatusConflict, gin.H{"error": "status change not allowed", "from": ev.Status, "to": in.Status})
			return
		}
		from := ev.Status
		if err := db.WithContext(c.Request.Context()).Model(ev).Update("status", in.Status).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ev.Status = in.Status
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.status",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"from": from, "to": in.Status},
		})
		c.JSON(http.StatusOK, gin.H{"event": ev})
	}
}

func SetEventLeaders(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
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
		ev := loaded[models.Event](c)
		if err := store.ReplaceEventLeaders(c.Request.Context(), db, ev.ID, leaders); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.leaders",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"leader_ids": leaders},
		})
		c.JSON(http.StatusOK, gin.H{"leader_ids": leaders})
	}
}

func EventStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := store.LoadEventStats(c.Request.Context(), db, loaded[models.Event](c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": st})
	}
}
