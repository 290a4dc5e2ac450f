// Package activity keeps the audit trail of mutations and streams it to subscribers.
package activity

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

// Entry describes one successful mutation.
type Entry struct {
	MinistryID   string
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]any
}

type Recorder struct {
	DB  *gorm.DB
	Hub *Hub
	Log *slog.Logger
}

// Record stores e on behalf of p and publishes it. Failures are logged; the mutation
// it describes has already succeeded.
func (r *Recorder) Record(c *gin.Context, p *store.Principal, e Entry) {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	meta["initiator_email"] = p.User.Email
	metaJSON, _ := json.Marshal(meta)

	row := models.Activity{
		UserID:        p.User.ID,
		Action:        e.Action,
		ResourceType:  e.ResourceType,
		ResourceID:    e.ResourceID,
		IP:            c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
		InitiatorName: p.User.Name,
		Metadata:      datatypes.JSON(metaJSON),
		CreatedAt:     time.Now(),
	}
	if e.MinistryID != "" {
		id := e.MinistryID
		row.MinistryID = &id
	}
	if err := r.DB.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		if r.Log != nil {
			r.Log.Error("record activity", "action", e.Action, "resource_id", e.ResourceID, "err", err)
		}
		return
	}
	if r.Hub != nil {
		r.Hub.Publish(row)
	}
}
