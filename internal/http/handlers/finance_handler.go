package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

type transactionInput struct {
	Type        string    `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Amount      int64     `json:"amount" binding:"required,gt=0"`
	Description string    `json:"description" binding:"max=255"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (in transactionInput) apply(t *models.Transaction) {
	t.Type = in.Type
	t.Amount = in.Amount
	t.Description = in.Description
	t.OccurredAt = in.OccurredAt
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now()
	}
}

func ListTransactions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := principal(c).Engine(authz.KindFinance, nil).Scope()
		q := store.Scoped(db.WithContext(c.Request.Context()), scope, "ministry_id")
		if m := c.Query("ministry_id"); m != "" {
			q = q.Where("ministry_id = ?", m)
		}
		if t := c.Query("type"); t != "" {
			q = q.Where("type = ?", t)
		}
		var out []models.Transaction
		if err := q.Order("occurred_at DESC").Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": out})
	}
}

// CreateTransaction adds a ministry-level entry. Event entries go through the event.
func CreateTransaction(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			transactionInput
			MinistryID string `json:"ministry_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		if !allowCreate(c, p, authz.KindFinance, in.MinistryID) {
			return
		}
		t := models.Transaction{MinistryID: in.MinistryID, CreatedByID: p.User.ID}
		in.apply(&t)
		if err := db.WithContext(c.Request.Context()).Create(&t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   t.MinistryID,
			Action:       "finance.create",
			ResourceType: string(authz.KindFinance),
			ResourceID:   t.ID,
			Metadata:     map[string]any{"type": t.Type, "amount": t.Amount},
		})
		c.JSON(http.StatusCreated, gin.H{"transaction": t})
	}
}

func GetTransaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"transaction": loaded[models.Transaction](c)})
	}
}

func UpdateTransaction(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in transactionInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		t := loaded[models.Transaction](c)
		in.apply(t)
		if err := db.WithContext(c.Request.Context()).Save(t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   t.MinistryID,
			Action:       "finance.update",
			ResourceType: string(authz.KindFinance),
			ResourceID:   t.ID,
		})
		c.JSON(http.StatusOK, gin.H{"transaction": t})
	}
}

func DeleteTransaction(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		t := loaded[models.Transaction](c)
		if err := db.WithContext(c.Request.Context()).Delete(t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, principal(c), activity.Entry{
			MinistryID:   t.MinistryID,
			Action:       "finance.delete",
			ResourceType: string(authz.KindFinance),
			ResourceID:   t.ID,
		})
		c.Status(http.StatusNoContent)
	}
}

func ListEventTransactions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var out []models.Transaction
		if err := db.WithContext(c.Request.Context()).
			Where("event_id = ?", loaded[models.Event](c).ID).
			Order("occurred_at DESC").
			Find(&out).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": out})
	}
}

// CreateEventTransaction books an entry against an event. Leaders of the event may do
// this even though they cannot create ministry-level entries.
func CreateEventTransaction(db *gorm.DB, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in transactionInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := principal(c)
		ev := loaded[models.Event](c)
		t := models.Transaction{MinistryID: ev.MinistryID, CreatedByID: p.User.ID}
		t.SetEvent(ev.ID)
		in.apply(&t)
		if err := db.WithContext(c.Request.Context()).Create(&t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec.Record(c, p, activity.Entry{
			MinistryID:   t.MinistryID,
			Action:       "event.finance.create",
			ResourceType: string(authz.KindEvent),
			ResourceID:   ev.ID,
			Metadata:     map[string]any{"transaction_id": t.ID, "type": t.Type, "amount": t.Amount},
		})
		c.JSON(http.StatusCreated, gin.H{"transaction": t})
	}
}
