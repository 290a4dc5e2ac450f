package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

type memberInput struct {
	MinistryID   string `json:"ministry_id" binding:"required"`
	SmallGroupID string `json:"small_group_id"`
	Name         string `json:"name" binding:"required,max=200"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone" binding:"max=40"`
	BirthDate    string `json:"birth_date" binding:"omitempty,date"`
	Status       string `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE VISITOR"`
	Notes        string `json:"notes"`
}

func (in memberInput) apply(m *models.Member) {
	m.MinistryID = in.MinistryID
	m.SetSmallGroup(in.SmallGroupID)
	m.Name = strings.TrimSpace(in.Name)
	m.Email = strings.TrimSpace(strings.ToLower(in.Email))
	m.Phone = in.Phone
	m.BirthDate = parseDate(in.BirthDate)
	if in.Status != "" {
		m.Status = in.Status
	}
	m.Notes = in.Notes
}

// checkGroupMinistry rejects placing a member in a group of another ministry.
func checkGroupMinistry(c *gin.Context, db *gorm.DB, groupID, ministryID string) bool {
	if groupID == "" {
		return true
	}
	var g models.SmallGroup
	if err := db.WithContext(c.Request.Context()).Select("id", "ministry_id").First(&g, "id = ?", groupID).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown small group"})
		return false
	}
	if g.MinistryID != ministryID {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "small group belongs to another ministry"})
		return false
	}
	return true
}

func ListMembers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := principal(c).Engine(authz.KindMember, nil).Scope()
		q := store.Scoped(db.WithContext(c.Request.Context()), scope, "ministry_id")
		if g := c.Query("small_group_id"); g != "" {
			q = q.Where("small_group_id = ?", g)
		}
		if s := strings.TrimSpace(c.Query("q")); s != "" {
			like := "%" + s + "%"
			q = q.Where("(name LIKE ? OR email LIKE ?)", like, like)
		}
		var out []models.Member
		if err := q.Order("name").Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": out})
	}
}

func CreateMember(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in memberInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		if !allowCreate(c, p, authz.KindMember, in.MinistryID) {
			return
		}
		if !checkGroupMinistry(c, db, in.SmallGroupID, in.MinistryID) {
			return
		}
		var m models.Member
		in.apply(&m)
		if err := db.WithContext(c.Request.Context()).Create(&m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   m.MinistryID,
			Action:       "member.create",
			ResourceType: string(authz.KindMember),
			ResourceID:   m.ID,
			Metadata:     map[string]any{"name": m.Name},
		})
		c.JSON(http.StatusCreated, gin.H{"member": m})
	}
}

func GetMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"member":      loaded[models.Member](c),
			"permissions": permissions(engine(c, authz.KindMember)),
		})
	}
}

// UpdateMember edits a member. Moving it to another ministry needs create rights there.
func UpdateMember(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in memberInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		m := loaded[models.Member](c)
		if in.MinistryID != m.MinistryID && !allowCreate(c, p, authz.KindMember, in.MinistryID) {
			return
		}
		if !checkGroupMinistry(c, db, in.SmallGroupID, in.MinistryID) {
			return
		}
		in.apply(m)
		if err := db.WithContext(c.Request.Context()).Save(m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   m.MinistryID,
			Action:       "member.update",
			ResourceType: string(authz.KindMember),
			ResourceID:   m.ID,
		})
		c.JSON(http.StatusOK, gin.H{"member": m})
	}
}

func DeleteMember(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := loaded[models.Member](c)
		if err := db.WithContext(c.Request.Context()).Delete(m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   m.MinistryID,
			Action:       "member.delete",
			ResourceType: string(authz.KindMember),
			ResourceID:   m.ID,
			Metadata:     map[string]any{"name": m.Name},
		})
		c.Status(http.StatusNoContent)
	}
}
