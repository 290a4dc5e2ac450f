package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/store"
)

// dedupe drops empty and repeated ids, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// checkLeaders verifies every id names an existing user; it answers 400 otherwise.
func checkLeaders(c *gin.Context, db *gorm.DB, ids []string) bool {
	n, err := store.CountUsers(c.Request.Context(), db, ids)
	if err != nil {
		abortErr(c, err)
		return false
	}
	if n != int64(len(ids)) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown leader"})
		return false
	}
	return true
}
