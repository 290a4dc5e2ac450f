package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

func registrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrEventFull), errors.Is(err, store.ErrAlreadyRegistered), errors.Is(err, store.ErrEventNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// RegisterSelf books a place for the current user.
func RegisterSelf(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		ev := loaded[models.Event](c)
		uid := p.User.ID
		reg := models.EventRegistration{UserID: &uid, Name: p.User.Name, Email: p.User.Email}
		if err := store.Register(c.Request.Context(), db, ev, &reg); err != nil {
			registrationError(c, err)
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.register",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"registration_id": reg.ID},
		})
		c.JSON(http.StatusCreated, gin.H{"registration": reg})
	}
}

// AddRegistration books a place for a member or a named guest.
func AddRegistration(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			MemberID string `json:"member_id"`
			Name     string `json:"name" binding:"required_without=MemberID,max=200"`
			Email    string `json:"email" binding:"omitempty,email"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ev := loaded[models.Event](c)
		reg := models.EventRegistration{Name: strings.TrimSpace(in.Name), Email: in.Email}
		if in.MemberID != "" {
			var m models.Member
			if err := db.WithContext(c.Request.Context()).First(&m, "id = ? AND ministry_id = ?", in.MemberID, ev.MinistryID).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown member"})
				return
			}
			reg.MemberID = &m.ID
			if reg.Name == "" {
				reg.Name = m.Name
			}
			if reg.Email == "" {
				reg.Email = m.Email
			}
		}
		if err := store.Register(c.Request.Context(), db, ev, &reg); err != nil {
			registrationError(c, err)
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.registration.add",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"registration_id": reg.ID, "name": reg.Name},
		})
		c.JSON(http.StatusCreated, gin.H{"registration": reg})
	}
}

func ListRegistrations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev := loaded[models.Event](c)
		q := db.WithContext(c.Request.Context()).Where("event_id = ?", ev.ID)
		if s := c.Query("status"); s != "" {
			q = q.Where("status = ?", s)
		}
		var out []models.EventRegistration
		if err := q.Order("created_at").Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"registrations": out})
	}
}

func CancelRegistration(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev := loaded[models.Event](c)
		res := db.WithContext(c.Request.Context()).Model(&models.EventRegistration{}).
			Where("id = ? AND event_id = ?", c.Param("registrationId"), ev.ID).
			Update("status", models.RegistrationCancelled)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.registration.cancel",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"registration_id": c.Param("registrationId")},
		})
		c.Status(http.StatusNoContent)
	}
}

// GiveFeedback stores one rating per user and event; a second call replaces the first.
func GiveFeedback(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Rating  int    `json:"rating" binding:"required,min=1,max=5"`
			Comment string `json:"comment" binding:"max=2000"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		ev := loaded[models.Event](c)

		fb := models.EventFeedback{EventID: ev.ID, UserID: p.User.ID}
		err := db.WithContext(c.Request.Context()).
			Where("event_id = ? AND user_id = ?", ev.ID, p.User.ID).
			Assign(models.EventFeedback{Rating: in.Rating, Comment: in.Comment}).
			FirstOrCreate(&fb).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   ev.MinistryID,
			Action:       "event.feedback",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"rating": in.Rating},
		})
		c.JSON(http.StatusOK, gin.H{"feedback": fb})
	}
}

func ListFeedback(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var out []models.EventFeedback
		if err := db.WithContext(c.Request.Context()).
			Where("event_id = ?", loaded[models.Event](c).ID).
			Order("created_at DESC").
			Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"feedback": out})
	}
}
