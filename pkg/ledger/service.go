// Package ledger records expenses and keeps each user's balances: the main
// balance, the ghost budget holding surcharges on unnecessary spending, and
// the retirement and savings sub-accounts the ghost budget can be moved to.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"ghostbudget/models"
	"ghostbudget/pkg/charge"
	"ghostbudget/pkg/classifier"
	"ghostbudget/pkg/features"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Charge types reported for a processed expense.
const (
	ChargeReal = "real"
	ChargeFake = "fake"
)

var two = decimal.NewFromInt(2)

// Service is the ledger update orchestrator. It is built once at startup and
// shared by all requests.
type Service struct {
	store        *Store
	model        classifier.Classifier
	demoUsername string
}

// NewService wires the store and the classifier. demoUsername names the user
// that ProcessExpense acts on when no user id is given.
func NewService(store *Store, model classifier.Classifier, demoUsername string) *Service {
	return &Service{store: store, model: model, demoUsername: demoUsername}
}

func (s *Service) Store() *Store {
	return s.store
}

// ExpenseInput is a raw expense observation.
type ExpenseInput struct {
	Date   models.Date
	Type   string
	Amount decimal.Decimal
}

// ExpenseResult describes the effect of ProcessExpense.
type ExpenseResult struct {
	UserID         uint            `json:"user_id"`
	TransactionID  uint            `json:"transaction_id"`
	Amount         decimal.Decimal `json:"amount"`
	FinalCharge    decimal.Decimal `json:"final_charge"`
	ChargeType     string          `json:"charge_type"`
	Prediction     int             `json:"prediction"`
	Probability    *float64        `json:"probability"`
	Difference     decimal.Decimal `json:"difference"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	GhostBudget    decimal.Decimal `json:"ghost_budget"`
}

// Predict encodes and classifies in without touching the ledger.
func (s *Service) Predict(ctx context.Context, in ExpenseInput) (classifier.Prediction, error) {
	pred, _, err := s.classify(in)
	return pred, err
}

func (s *Service) classify(in ExpenseInput) (classifier.Prediction, models.ExpenseType, error) {
	if in.Date.IsZero() {
		return classifier.Prediction{}, "", validationf("expense_date is required")
	}
	et := models.ExpenseType(in.Type)
	enc, err := features.Encode(in.Date, et, in.Amount.InexactFloat64())
	if err != nil {
		return classifier.Prediction{}, "", validation(err)
	}
	pred, err := s.model.Predict(enc.Features)
	if err != nil {
		return classifier.Prediction{}, "", fmt.Errorf("classify: %w", err)
	}
	return pred, et, nil
}

// ProcessExpense classifies an expense, surcharges it when it is unnecessary,
// debits the user's balance by the final charge, credits the surcharge to the
// ghost budget and records the transaction, all in one commit. A nil userID
// selects the demo user, which is created on first use.
func (s *Service) ProcessExpense(ctx context.Context, userID *uint, in ExpenseInput) (*ExpenseResult, error) {
	if err := checkAmount(in.Amount); err != nil {
		return nil, err
	}
	pred, et, err := s.classify(in)
	if err != nil {
		return nil, err
	}

	res := &ExpenseResult{
		Amount:      in.Amount,
		FinalCharge: in.Amount,
		ChargeType:  ChargeReal,
		Prediction:  pred.Label,
		Probability: pred.Probability,
		Difference:  decimal.Zero,
	}
	if pred.Label == classifier.LabelUnnecessary {
		res.FinalCharge = charge.Adjusted(in.Amount, charge.UnnecessarySignal).Round(2)
		res.ChargeType = ChargeFake
		res.Difference = res.FinalCharge.Sub(in.Amount)
	}

	id, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u, err := s.store.MutateUser(ctx, id, func(tx *gorm.DB, u *models.User) error {
		u.CurrentBalance = u.CurrentBalance.Sub(res.FinalCharge)
		u.GhostBudget = u.GhostBudget.Add(res.Difference)
		t := models.Transaction{UserID: u.ID, ExpenseDate: in.Date, ExpenseType: et, ExpenseAmount: in.Amount}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}
		res.TransactionID = t.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.UserID = u.ID
	res.CurrentBalance = u.CurrentBalance
	res.GhostBudget = u.GhostBudget
	return res, nil
}

func (s *Service) resolveUser(ctx context.Context, userID *uint) (uint, error) {
	if userID != nil {
		return *userID, nil
	}
	u, err := s.store.EnsureUser(ctx, s.demoUsername)
	if err != nil {
		return 0, fmt.Errorf("resolve demo user: %w", err)
	}
	return u.ID, nil
}

// Claim moves the whole ghost budget back into the main balance. Calling it
// again right away changes nothing.
func (s *Service) Claim(ctx context.Context, userID uint) (*models.User, error) {
	return s.store.MutateUser(ctx, userID, func(_ *gorm.DB, u *models.User) error {
		u.CurrentBalance = u.CurrentBalance.Add(u.GhostBudget)
		u.GhostBudget = decimal.Zero
		return nil
	})
}

// ContinueSaving splits the ghost budget evenly between the Roth IRA and the
// high-yield savings account. Each half is rounded down to the cent, so an
// odd cent is dropped.
func (s *Service) ContinueSaving(ctx context.Context, userID uint) (*models.User, error) {
	return s.store.MutateUser(ctx, userID, func(_ *gorm.DB, u *models.User) error {
		half := u.GhostBudget.Div(two).RoundFloor(2)
		u.RothIRAContribution = u.RothIRAContribution.Add(half)
		u.HighYieldSavings = u.HighYieldSavings.Add(half)
		u.GhostBudget = decimal.Zero
		return nil
	})
}

// CreateUser registers username with opening balances.
func (s *Service) CreateUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationf("username required")
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}
	u := models.NewUser(username)
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// ListUserTransactions returns the user's transactions, newest first.
func (s *Service) ListUserTransactions(ctx context.Context, id uint) ([]models.Transaction, error) {
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, id)
}

// TransactionInput is a transaction recorded without classification.
type TransactionInput struct {
	UserID uint
	Date   models.Date
	Type   string
	Amount decimal.Decimal
}

// RecordTransaction stores a transaction as given. Balances are not touched.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	et, err := models.ParseExpenseType(in.Type)
	if err != nil {
		return nil, validation(err)
	}
	if in.Date.IsZero() {
		return nil, validationf("expense_date is required")
	}
	if err := checkAmount(in.Amount); err != nil {
		return nil, err
	}
	t := models.Transaction{UserID: in.UserID, ExpenseDate: in.Date, ExpenseType: et, ExpenseAmount: in.Amount}
	if err := s.store.CreateTransaction(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// FinancialsUpdate overwrites every balance of a user.
type FinancialsUpdate struct {
	UserID              uint
	CurrentBalance      decimal.Decimal
	RothIRAContribution decimal.Decimal
	HighYieldSavings    decimal.Decimal
	GhostBudget         decimal.Decimal
}

// UpdateFinancials replaces the balances of a user without checking them
// against the transaction history.
func (s *Service) UpdateFinancials(ctx context.Context, in FinancialsUpdate) (*models.User, error) {
	return s.store.MutateUser(ctx, in.UserID, func(_ *gorm.DB, u *models.User) error {
		u.CurrentBalance = in.CurrentBalance
		u.RothIRAContribution = in.RothIRAContribution
		u.HighYieldSavings = in.HighYieldSavings
		u.GhostBudget = in.GhostBudget
		return nil
	})
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return validationf("amount must be positive")
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return validationf("amount has more than two decimal places")
	}
	return nil
}
