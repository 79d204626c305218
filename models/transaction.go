package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a recorded expense. Rows are never updated or deleted.
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	ExpenseDate   Date            `gorm:"type:date;not null" json:"expense_date"`
	ExpenseType   ExpenseType     `gorm:"size:32;not null" json:"expense_type"`
	ExpenseAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"expense_amount"`
}
