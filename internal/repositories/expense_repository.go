package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"plufi-chat/internal/models"
)

// ExpenseRepository backs the legacy expense tracker.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, userID int, name string, amount float64, category string, date time.Time) (models.Expense, error)
	ListExpenses(ctx context.Context, userID int, category string, limit, offset int) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID int) (bool, error)
	CategorySummary(ctx context.Context, userID int) ([]models.CategoryTotal, error)
	MonthlySummary(ctx context.Context, userID, limit int) ([]models.MonthTotal, error)
}

// ExpenseRepo is a sqlx implementation of ExpenseRepository.
type ExpenseRepo struct {
	db *sqlx.DB
}

// NewExpenseRepo constructs an ExpenseRepo.
func NewExpenseRepo(db *sqlx.DB) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

// CreateExpense inserts an expense owned by the user.
func (r *ExpenseRepo) CreateExpense(ctx context.Context, userID int, name string, amount float64, category string, date time.Time) (models.Expense, error) {
	var expense models.Expense
	err := r.db.GetContext(ctx, &expense,
		`INSERT INTO expenses (user_id, name, amount, category, expense_date)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, user_id, name, amount, category, expense_date, created_at`,
		userID, name, amount, category, date)
	return expense, err
}

// ListExpenses returns the user's expenses, newest first.
func (r *ExpenseRepo) ListExpenses(ctx context.Context, userID int, category string, limit, offset int) ([]models.Expense, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id, user_id, name, amount, category, expense_date, created_at
              FROM expenses WHERE user_id=$1`
	args := []any{userID}
	if category != "" {
		query += ` AND category=$2`
		args = append(args, category)
	}
	query += ` ORDER BY expense_date DESC, id DESC`
	args = append(args, limit, offset)
	if category != "" {
		query += ` LIMIT $3 OFFSET $4`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}

	var expenses []models.Expense
	err := r.db.SelectContext(ctx, &expenses, query, args...)
	return expenses, err
}

// DeleteExpense removes an expense if the user owns it.
func (r *ExpenseRepo) DeleteExpense(ctx context.Context, userID, expenseID int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id=$1 AND user_id=$2`, expenseID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// CategorySummary totals spend per category.
func (r *ExpenseRepo) CategorySummary(ctx context.Context, userID int) ([]models.CategoryTotal, error) {
	var totals []models.CategoryTotal
	err := r.db.SelectContext(ctx, &totals,
		`SELECT category, COALESCE(SUM(amount), 0) AS total
         FROM expenses WHERE user_id=$1
         GROUP BY category
         ORDER BY total DESC, category ASC`, userID)
	return totals, err
}

// MonthlySummary totals spend per calendar month, most recent first.
func (r *ExpenseRepo) MonthlySummary(ctx context.Context, userID, limit int) ([]models.MonthTotal, error) {
	if limit <= 0 || limit > 36 {
		limit = 12
	}
	var totals []models.MonthTotal
	err := r.db.SelectContext(ctx, &totals,
		`SELECT to_char(expense_date, 'YYYY-MM') AS month,
                COUNT(*) AS count,
                COALESCE(SUM(amount), 0) AS total
         FROM expenses WHERE user_id=$1
         GROUP BY month
         ORDER BY month DESC
         LIMIT $2`, userID, limit)
	return totals, err
}
