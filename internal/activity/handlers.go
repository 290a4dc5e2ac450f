package activity

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"ministry_hub/internal/auth"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

// Visible reports whether p may see a. Entries without a ministry are visible to ADMIN only.
func Visible(p *store.Principal, a models.Activity) bool {
	facts := &authz.ResourceFacts{MinistryID: models.Deref(a.MinistryID)}
	return p.Engine(authz.KindMinistry, facts).CanView()
}

// List pages through the activity the caller can see, newest first.
func List(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.FromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := 20
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}

		var afterID int64
		if cursorStr := c.Query("after_id"); cursorStr != "" {
			if parsed, err := strconv.ParseInt(cursorStr, 10, 64); err == nil && parsed > 0 {
				afterID = parsed
			}
		}

		search := strings.TrimSpace(c.Query("q"))

		scope := p.Engine(authz.KindMinistry, nil).Scope()
		query := store.Scoped(db.WithContext(c.Request.Context()).Model(&models.Activity{}), scope, "ministry_id").Order("id DESC")
		if ministry := c.Query("ministry_id"); ministry != "" {
			query = query.Where("ministry_id = ?", ministry)
		}
		if afterID > 0 {
			query = query.Where("id < ?", afterID)
		}
		if search != "" {
			like := "%" + search + "%"
			query = query.Where("(initiator_name LIKE ? OR action LIKE ? OR resource_type LIKE ? OR ip LIKE ?)",
				like, like, like, like)
		}

		var logs []models.Activity
		if err := query.Limit(limit + 1).Find(&logs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var nextCursor *int64
		if len(logs) > limit {
			next := logs[limit-1].ID
			logs = logs[:limit]
			nextCursor = &next
		}

		c.JSON(http.StatusOK, gin.H{
			"logs":        logs,
			"next_cursor": nextCursor,
		})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Stream pushes new activity the caller can see over a websocket.
func Stream(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.FromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		feed, cancel := hub.Subscribe(func(a models.Activity) bool { return Visible(p, a) })
		defer cancel()

		// Reader: only pongs and close frames are expected.
		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case a, ok := <-feed:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(a); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
