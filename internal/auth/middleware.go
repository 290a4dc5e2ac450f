package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

const (
	claimsKey    = "claims"
	principalKey = "principal"
)

// JWT returns a Gin middleware that validates JWT tokens from
// either the Authorization header or a "token" cookie and loads
// the acting user fresh from the database.
func JWT(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.GetHeader("Authorization")

		// Fallback: read from cookie if no Authorization header
		if tokenStr == "" {
			if cookie, err := c.Cookie("token"); err == nil {
				tokenStr = "Bearer " + cookie
			}
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))

		claims, err := ParseToken(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		p, err := store.LoadPrincipal(c.Request.Context(), db, claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if p.User.Status != models.UserActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account suspended"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(principalKey, p)
		c.Next()
	}
}

// FromContext returns the principal set by JWT.
func FromContext(c *gin.Context) (*store.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*store.Principal)
	return p, ok
}

// SetPrincipal stores p on the request context. JWT uses it; tests use it to skip tokens.
func SetPrincipal(c *gin.Context, p *store.Principal) {
	c.Set(principalKey, p)
}
