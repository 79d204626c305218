package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBalance is the opening main balance of every new user.
var DefaultBalance = decimal.NewFromInt(10000)

// User holds the balances of one ledger owner.
type User struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Username            string          `gorm:"size:255;not null;uniqueIndex" json:"username"`
	CurrentBalance      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:10000" json:"current_balance"`
	RothIRAContribution decimal.Decimal `gorm:"column:roth_ira_contribution;type:numeric(14,2);not null;default:0" json:"roth_ira_contribution"`
	HighYieldSavings    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"high_yield_savings"`
	// GhostBudget holds surcharges collected since the last claim or continue-saving.
	GhostBudget  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"ghost_budget"`
	Transactions []Transaction   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

// NewUser returns a user with the opening balances.
func NewUser(username string) User {
	return User{
		Username:            username,
		CurrentBalance:      DefaultBalance,
		RothIRAContribution: decimal.Zero,
		HighYieldSavings:    decimal.Zero,
		GhostBudget:         decimal.Zero,
	}
}
