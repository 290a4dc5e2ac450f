package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/auth"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
)

// MeHandler returns the current user together with the ministries it can list from.
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		scope := p.Engine(authz.KindMinistry, nil).Scope()
		c.JSON(http.StatusOK, gin.H{
			"user":         p.User,
			"ministry_ids": p.MinistryIDs,
			"scope":        gin.H{"all": scope.All, "ministry_ids": scope.MinistryIDs},
		})
	}
}

// ChangeOwnPassword lets the current user replace its password.
func ChangeOwnPassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Current string `json:"current_password" binding:"required"`
			New     string `json:"new_password" binding:"required,min=8"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		if !auth.CheckPassword(p.User.PasswordHash, in.Current) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is wrong"})
			return
		}
		hash, err := auth.HashPassword(in.New)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(&models.User{}).
			Where("id = ?", p.User.ID).
			Update("password_hash", hash).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
