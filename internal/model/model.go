package model

import "time"

// User mirrors the Telegram account that owns expenses. Name fields may be
// empty when Telegram does not provide them; empty values never overwrite
// stored ones on upsert.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	CreatedAt time.Time `db:"created_at"`
}

// Category is a spending category. Names are unique; the default set is
// seeded at startup and existing rows are never overwritten.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Icon string `db:"icon"`
}

// ExpenseDraft carries the fields needed to record a new expense.
// ConfirmKey deduplicates retried confirmations of the same draft.
type ExpenseDraft struct {
	UserID      int64
	CategoryID  int64
	Amount      float64
	Description *string
	OccurredAt  time.Time
	ConfirmKey  string
}

// Expense is a committed ledger row. Rows are immutable once written.
type Expense struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      float64   `db:"amount"`
	CategoryID  int64     `db:"category_id"`
	Description *string   `db:"description"`
	OccurredAt  time.Time `db:"occurred_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// ExpenseWithCategory joins an expense with its category display fields for
// listings.
type ExpenseWithCategory struct {
	ID           int64     `db:"id"`
	Amount       float64   `db:"amount"`
	Description  *string   `db:"description"`
	OccurredAt   time.Time `db:"occurred_at"`
	CategoryName string    `db:"category_name"`
	CategoryIcon string    `db:"category_icon"`
}

// CategoryTotal is one per-category subtotal inside Stats.
type CategoryTotal struct {
	Name  string  `db:"name"`
	Icon  string  `db:"icon"`
	Total float64 `db:"total"`
}

// Stats aggregates spending over the trailing window. Total is zero, not an
// error, when no expenses fall inside the window.
type Stats struct {
	Total       float64
	PerCategory []CategoryTotal
	WindowDays  int
}
