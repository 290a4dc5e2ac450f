package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/auth"
	"ministry_hub/internal/models"
)

// LoginHandler authenticates the user and returns JWT
func LoginHandler(db *gorm.DB, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		email := strings.TrimSpace(strings.ToLower(input.Email))
		if err := db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		if !auth.CheckPassword(user.PasswordHash, input.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		if user.Status != models.UserActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account suspended"})
			return
		}

		tokenString, err := auth.IssueToken(&user, jwtSecret, ttl, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
			return
		}

		// Browser clients get the token as a cookie; API clients read it from the body.
		c.SetCookie("token", tokenString, int(ttl.Seconds()), "/", "", false, true)

		c.JSON(http.StatusOK, gin.H{
			"token": tokenString,
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
				"name":  user.Name,
				"role":  user.Role,
			},
		})
	}
}

// LogoutHandler clears the session cookie.
func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("token", "", -1, "/", "", false, true)
		c.Status(http.StatusNoContent)
	}
}
