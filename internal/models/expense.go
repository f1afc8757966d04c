package models

import (
	"database/sql"
	"time"
)

// Expense is a row of the legacy expense tracker.
type Expense struct {
	ID          int           `db:"id" json:"id"`
	UserID      sql.NullInt64 `db:"user_id" json:"-"`
	Name        string        `db:"name" json:"name"`
	Amount      float64       `db:"amount" json:"amount"`
	Category    string        `db:"category" json:"category"`
	ExpenseDate time.Time     `db:"expense_date" json:"expense_date"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// CategoryTotal aggregates spend per category.
type CategoryTotal struct {
	Category string  `db:"category" json:"category"`
	Total    float64 `db:"total" json:"total"`
}

// MonthTotal aggregates spend per calendar month.
type MonthTotal struct {
	Month string  `db:"month" json:"month"`
	Count int     `db:"count" json:"count"`
	Total float64 `db:"total" json:"total"`
}
