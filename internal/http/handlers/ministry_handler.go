package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

type ministryInput struct {
	Name        string `json:"name" binding:"required,max=200"`
	Slug        string `json:"slug" binding:"omitempty,max=200"`
	Description string `json:"description"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// ListMinistries returns the ministries the caller belongs to or administers.
func ListMinistries(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := principal(c).Engine(authz.KindMinistry, nil).Scope()
		var out []models.Ministry
		q := store.Scoped(db.WithContext(c.Request.Context()), scope, "id").Order("name")
		if err := q.Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ministries": out})
	}
}

func CreateMinistry(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ministryInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		if !allowCreate(c, p, authz.KindMinistry, "") {
			return
		}

		m := models.Ministry{
			Name:        strings.TrimSpace(in.Name),
			Slug:        slugify(in.Slug),
			Description: in.Description,
		}
		if m.Slug == "" {
			m.Slug = slugify(m.Name)
		}

		var existing int64
		if err := db.WithContext(c.Request.Context()).Model(&models.Ministry{}).Where("slug = ?", m.Slug).Count(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if existing > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already in use"})
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		rec.Record(c, p, activity.Entry{
			MinistryID:   m.ID,
			Action:       "ministry.create",
			ResourceType: string(authz.KindMinistry),
			ResourceID:   m.ID,
			Metadata:     map[string]any{"name": m.Name},
		})
		c.JSON(http.StatusCreated, gin.H{"ministry": m})
	}
}

func GetMinistry() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ministry":    loaded[models.Ministry](c),
			"permissions": permissions(engine(c, authz.KindMinistry)),
		})
	}
}

func UpdateMinistry(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ministryInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m := loaded[models.Ministry](c)
		m.Name = strings.TrimSpace(in.Name)
		m.Description = in.Description
		if s := slugify(in.Slug); s != "" {
			m.Slug = s
		}
		if err := db.WithContext(c.Request.Context()).Save(m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   m.ID,
			Action:       "ministry.update",
			ResourceType: string(authz.KindMinistry),
			ResourceID:   m.ID,
		})
		c.JSON(http.StatusOK, gin.H{"ministry": m})
	}
}

func DeleteMinistry(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := loaded[models.Ministry](c)
		if err := db.WithContext(c.Request.Context()).Delete(m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			Action:       "ministry.delete",
			ResourceType: string(authz.KindMinistry),
			ResourceID:   m.ID,
			Metadata:     map[string]any{"name": m.Name},
		})
		c.Status(http.StatusNoContent)
	}
}
