package ledger

import (
	"context"
	"errors"
	"strings"

	"ghostbudget/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists users and transactions.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for tools that run ad-hoc queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// CreateUser inserts u. A duplicate username yields ErrUsernameTaken.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// EnsureUser returns the user named username, creating it with opening
// balances when absent.
func (s *Store) EnsureUser(ctx context.Context, username string) (*models.User, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	nu := models.NewUser(username)
	if err := s.CreateUser(ctx, &nu); err != nil {
		if errors.Is(err, ErrUsernameTaken) { // created concurrently
			return s.GetUserByUsername(ctx, username)
		}
		return nil, err
	}
	return &nu, nil
}

// CreateTransaction inserts t after checking that its owner exists. Nothing
// is written when the owner is missing.
func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Select("id").First(&owner, t.UserID).Error; err != nil {
			return notFound(err)
		}
		return tx.Create(t).Error
	})
}

func (s *Store) ListTransactions(ctx context.Context, userID uint) ([]models.Transaction, error) {
	items := []models.Transaction{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("expense_date desc, id desc").Find(&items).Error
	return items, err
}

// MutateUser loads user id under a row lock, applies fn and writes the four
// balance columns back, all in one database transaction. fn may use tx to
// write related rows; returning an error rolls everything back.
func (s *Store) MutateUser(ctx context.Context, id uint, fn func(tx *gorm.DB, u *models.User) error) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == DriverPostgres {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&u, id).Error; err != nil {
			return notFound(err)
		}
		if err := fn(tx, &u); err != nil {
			return err
		}
		return tx.Model(&u).Updates(map[string]any{
			"current_balance":       u.CurrentBalance,
			"roth_ira_contribution": u.RothIRAContribution,
			"high_yield_savings":    u.HighYieldSavings,
			"ghost_budget":          u.GhostBudget,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "UNIQUE constraint failed")
}
