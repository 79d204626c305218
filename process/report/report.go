package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"ghostbudget/models"
	"ghostbudget/pkg/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TypeTotal is the spending of one expense type within the month.
type TypeTotal struct {
	ExpenseType models.ExpenseType
	Count       int64
	Total       decimal.Decimal
}

// Report is a month-bounded spending summary for one user.
type Report struct {
	User         models.User
	Month        time.Time
	Totals       []TypeTotal
	Count        int64
	Total        decimal.Decimal
	Transactions []models.Transaction
}

// Build collects the report for username and month (YYYY-MM, UTC).
func Build(ctx context.Context, gdb *gorm.DB, username, month string) (*Report, error) {
	user, err := ledger.NewStore(gdb).GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := models.NewDate(t)
	end := models.NewDate(t.AddDate(0, 1, 0))

	q := gdb.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND expense_date >= ? AND expense_date < ?", user.ID, start, end).
		Session(&gorm.Session{})

	var rows []struct {
		ExpenseType string
		Count       int64
		Total       decimal.Decimal
	}
	if err := q.Select("expense_type, COUNT(*) AS count, COALESCE(SUM(expense_amount), 0) AS total").
		Group("expense_type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	byType := make(map[models.ExpenseType]TypeTotal, len(rows))
	for _, r := range rows {
		byType[models.ExpenseType(r.ExpenseType)] = TypeTotal{ExpenseType: models.ExpenseType(r.ExpenseType), Count: r.Count, Total: r.Total}
	}

	rep := &Report{User: *user, Month: start.Time, Total: decimal.Zero}
	for _, et := range models.ExpenseTypes() {
		tt, ok := byType[et]
		if !ok {
			tt = TypeTotal{ExpenseType: et, Total: decimal.Zero}
		}
		rep.Totals = append(rep.Totals, tt)
		rep.Count += tt.Count
		rep.Total = rep.Total.Add(tt.Total)
	}
	if err := q.Order("expense_date, id").Find(&rep.Transactions).Error; err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	return rep, nil
}

// Print writes the report as text. With list set every transaction is printed.
func Print(w io.Writer, rep *Report, list bool) {
	fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", rep.User.Username, rep.Month.Format("2006-01"))
	fmt.Fprintf(w, "  records=%d total_amount=%s\n", rep.Count, rep.Total.StringFixed(2))
	for _, tt := range rep.Totals {
		fmt.Fprintf(w, "  %-13s records=%d total=%s\n", tt.ExpenseType, tt.Count, tt.Total.StringFixed(2))
	}
	fmt.Fprintf(w, "  balance=%s ghost_budget=%s roth_ira=%s high_yield_savings=%s\n",
		rep.User.CurrentBalance.StringFixed(2), rep.User.GhostBudget.StringFixed(2),
		rep.User.RothIRAContribution.StringFixed(2), rep.User.HighYieldSavings.StringFixed(2))
	if list {
		for _, r := range rep.Transactions {
			fmt.Fprintf(w, "%d|%s|%s|%s\n", r.ID, r.ExpenseDate, r.ExpenseType, r.ExpenseAmount.StringFixed(2))
		}
	}
}
