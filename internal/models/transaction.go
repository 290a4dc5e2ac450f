package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TransactionIncome  = "INCOME"
	TransactionExpense = "EXPENSE"
)

// Transaction is a finance entry of a ministry, optionally tied to an event.
// Amounts are in cents.
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:36"`
	MinistryID  string    `gorm:"size:36;index;not null"`
	EventID     *string   `gorm:"size:36;index"`
	Type        string    `gorm:"size:16;not null"`
	Amount      int64     `gorm:"not null"`
	Description string    `gorm:"size:255"`
	OccurredAt  time.Time `gorm:"index"`
	CreatedByID string    `gorm:"size:36"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error { return ensureID(&t.ID) }

// SetEvent ties the entry to an event; "" detaches it.
func (t *Transaction) SetEvent(id string) { t.EventID = nullable(id) }
