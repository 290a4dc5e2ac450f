package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/auth"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

// ListUsers returns the accounts attached to the caller's ministries.
func ListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := principal(c).Engine(authz.KindUser, nil).Scope()
		q := store.Scoped(db.WithContext(c.Request.Context()), scope, "ministry_id", "master_ministry_id")
		if role := c.Query("role"); role != "" {
			q = q.Where("role = ?", role)
		}
		var users []models.User
		if err := q.Order("name").Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// userMinistry is the ministry an account is created in: the administered one for
// MASTER, otherwise the leader ministry.
func userMinistry(role, ministryID, masterMinistryID string) string {
	if role == string(authz.RoleMaster) {
		return masterMinistryID
	}
	return ministryID
}

// CreateUser inserts a new user
func CreateUser(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Email            string `json:"email" binding:"required,email"`
			Name             string `json:"name" binding:"required"`
			Password         string `json:"password" binding:"required,min=8"`
			Role             string `json:"role" binding:"required,oneof=ADMIN MASTER LEADER"`
			MinistryID       string `json:"ministry_id"`
			MasterMinistryID string `json:"master_ministry_id"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if in.Role == string(authz.RoleMaster) && in.MasterMinistryID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "master_ministry_id is required for MASTER"})
			return
		}

		p := principal(c)
		if !allowCreate(c, p, authz.KindUser, userMinistry(in.Role, in.MinistryID, in.MasterMinistryID)) {
			return
		}
		if !p.Engine(authz.KindUser, nil).CanAssignRole(in.Role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "reason": authz.ReasonRoleNotAllowed})
			return
		}

		in.Email = strings.TrimSpace(strings.ToLower(in.Email))
		var existing int64
		if err := db.WithContext(c.Request.Context()).Model(&models.User{}).
			Where("email = ?", in.Email).
			Count(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if existing > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
			return
		}

		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}
		user := models.User{
			Email:        in.Email,
			Name:         strings.TrimSpace(in.Name),
			Role:         in.Role,
			Status:       models.UserActive,
			PasswordHash: hash,
		}
		user.SetMinistry(in.MinistryID)
		user.SetMasterMinistry(in.MasterMinistryID)

		if err := db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   userMinistry(user.Role, in.MinistryID, in.MasterMinistryID),
			Action:       "user.create",
			ResourceType: string(authz.KindUser),
			ResourceID:   user.ID,
			Metadata:     map[string]any{"email": user.Email, "role": user.Role},
		})
		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}

func GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": loaded[models.User](c)})
	}
}

// UpdateUser changes name, role and ministry placement. Moving an account into another
// ministry needs create rights there. A role change needs the right to grant both the
// current and the new role.
func UpdateUser(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Name             *string `json:"name" binding:"omitempty,min=1"`
			Role             *string `json:"role" binding:"omitempty,oneof=ADMIN MASTER LEADER"`
			MinistryID       *string `json:"ministry_id"`
			MasterMinistryID *string `json:"master_ministry_id"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		u := loaded[models.User](c)

		if in.Name != nil {
			u.Name = strings.TrimSpace(*in.Name)
		}
		if in.Role != nil && *in.Role != u.Role {
			e := p.Engine(authz.KindUser, nil)
			if !e.CanAssignRole(u.Role) || !e.CanAssignRole(*in.Role) {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "reason": authz.ReasonRoleNotAllowed})
				return
			}
			u.Role = *in.Role
		}
		if in.MinistryID != nil {
			u.SetMinistry(*in.MinistryID)
		}
		if in.MasterMinistryID != nil {
			u.SetMasterMinistry(*in.MasterMinistryID)
		}
		target := userMinistry(u.Role, models.Deref(u.MinistryID), models.Deref(u.MasterMinistryID))
		if target != loadedFacts(c).MinistryID && !allowCreate(c, p, authz.KindUser, target) {
			return
		}

		if err := db.WithContext(c.Request.Context()).Save(u).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   target,
			Action:       "user.update",
			ResourceType: string(authz.KindUser),
			ResourceID:   u.ID,
			Metadata:     map[string]any{"role": u.Role},
		})
		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}

// SetUserStatus activates or suspends an account. Nobody suspends themselves.
func SetUserStatus(db *gorm.DB, rec *activity.Recorder, status models.UserStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		u := loaded[models.User](c)
		if u.ID == p.User.ID && status != models.UserActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot suspend your own account"})
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(u).Update("status", status).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		u.Status = status
		rec.Record(c, p, activity.Entry{
			MinistryID:   loadedFacts(c).MinistryID,
			Action:       "user.status",
			ResourceType: string(authz.KindUser),
			ResourceID:   u.ID,
			Metadata:     map[string]any{"status": status},
		})
		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}

// ResetPassword sets a new password on another account.
func ResetPassword(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Password string `json:"password" binding:"required,min=8"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		u := loaded[models.User](c)
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(u).Update("password_hash", hash).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   loadedFacts(c).MinistryID,
			Action:       "user.password",
			ResourceType: string(authz.KindUser),
			ResourceID:   u.ID,
		})
		c.Status(http.StatusNoContent)
	}
}

// SetUserMinistries replaces the extra ministries a LEADER belongs to.
func SetUserMinistries(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			MinistryIDs []string `json:"ministry_ids" binding:"dive,required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		for _, id := range in.MinistryIDs {
			if !allowCreate(c, p, authz.KindUser, id) {
				return
			}
		}
		u := loaded[models.User](c)
		var ministries []models.Ministry
		if len(in.MinistryIDs) > 0 {
			if err := db.WithContext(c.Request.Context()).Where("id IN ?", in.MinistryIDs).Find(&ministries).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
		if len(ministries) != len(dedupe(in.MinistryIDs)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown ministry"})
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(u).Association("Ministries").Replace(ministries); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   loadedFacts(c).MinistryID,
			Action:       "user.ministries",
			ResourceType: string(authz.KindUser),
			ResourceID:   u.ID,
			Metadata:     map[string]any{"ministry_ids": in.MinistryIDs},
		})
		c.JSON(http.StatusOK, gin.H{"ministry_ids": in.MinistryIDs})
	}
}
