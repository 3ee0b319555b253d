// Package ledger implements durable storage for users, categories, and
// expense records on top of Postgres. It is the single source of truth for
// committed expenses; conversational scratch state lives elsewhere.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akihotaki/NextExpense/internal/logger"
	"github.com/akihotaki/NextExpense/internal/model"
	"log/slog"
)

// Store provides ledger operations over a pooled database handle.
type Store struct {
	db *sqlx.DB
}

// New wraps an already connected database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// UpsertUser inserts the user on first contact and refreshes name fields on
// later contacts. Empty incoming fields never blank stored values.
func (s *Store) UpsertUser(ctx context.Context, u model.User) error {
	const q = `
		INSERT INTO users (id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			username   = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
			last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name)`
	if _, err := s.db.ExecContext(ctx, q, u.ID, u.Username, u.FirstName, u.LastName); err != nil {
		logger.Ledger.Error("user upsert failed",
			slog.String("event", "user.upsert"),
			slog.Int64("user_id", u.ID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// GetUser fetches a user row by its Telegram identifier.
func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `SELECT id, username, first_name, last_name, created_at FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// ListCategories returns every category ordered by name so rendered keyboards
// are deterministic.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := s.db.SelectContext(ctx, &cats, `SELECT id, name, icon FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// GetCategory resolves a category by id. Callers must treat ErrNotFound as
// fatal to any in-progress flow referencing the id.
func (s *Store) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	var cat model.Category
	err := s.db.GetContext(ctx, &cat, `SELECT id, name, icon FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return cat, nil
}

// RecordExpense writes a single expense row and returns its id. The insert is
// idempotent on the draft's confirm key: replaying the same draft after an
// unknown-status timeout converges to the originally written row instead of
// duplicating it.
func (s *Store) RecordExpense(ctx context.Context, draft model.ExpenseDraft) (int64, error) {
	if draft.Amount <= 0 {
		return 0, ErrNonPositiveAmount
	}
	occurred := draft.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	key := draft.ConfirmKey
	if key == "" {
		key = uuid.NewString()
	}

	const q = `
		INSERT INTO expenses (user_id, amount, category_id, description, occurred_at, confirm_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (confirm_key) DO NOTHING
		RETURNING id`
	var id int64
	err := s.db.GetContext(ctx, &id, q, draft.UserID, draft.Amount, draft.CategoryID, draft.Description, occurred, key)
	if errors.Is(err, sql.ErrNoRows) {
		// The key already landed on a previous attempt; surface that row.
		if err := s.db.GetContext(ctx, &id, `SELECT id FROM expenses WHERE confirm_key = $1`, key); err != nil {
			return 0, fmt.Errorf("resolve replayed expense: %w", err)
		}
		logger.Ledger.Info("expense replay deduplicated",
			slog.String("event", "expense.record"),
			slog.Int64("user_id", draft.UserID),
			slog.Int64("expense_id", id),
		)
		return id, nil
	}
	if err != nil {
		logger.Ledger.Error("expense insert failed",
			slog.String("event", "expense.record"),
			slog.Int64("user_id", draft.UserID),
			slog.Int64("category_id", draft.CategoryID),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("record expense: %w", err)
	}

	logger.Ledger.Info("expense recorded",
		slog.String("event", "expense.record"),
		slog.Int64("user_id", draft.UserID),
		slog.Int64("expense_id", id),
		slog.Int64("category_id", draft.CategoryID),
	)
	return id, nil
}

// ListRecentExpenses returns up to limit expenses for the user, most recent
// first. Higher id wins ties so replays of the same timestamp stay stable.
func (s *Store) ListRecentExpenses(ctx context.Context, userID int64, limit int) ([]model.ExpenseWithCategory, error) {
	if limit <= 0 {
		limit = 5
	}
	const q = `
		SELECT e.id, e.amount, e.description, e.occurred_at,
		       c.name AS category_name, c.icon AS category_icon
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
		ORDER BY e.occurred_at DESC, e.id DESC
		LIMIT $2`
	var rows []model.ExpenseWithCategory
	if err := s.db.SelectContext(ctx, &rows, q, userID, limit); err != nil {
		return nil, fmt.Errorf("list recent expenses: %w", err)
	}
	return rows, nil
}

// ExpenseStats computes total spending and per-category subtotals over the
// trailing window. An empty window yields a zero total, not an error.
func (s *Store) ExpenseStats(ctx context.Context, userID int64, windowDays int) (model.Stats, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	stats := model.Stats{WindowDays: windowDays}

	const totalQ = `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE user_id = $1 AND occurred_at >= $2`
	if err := s.db.GetContext(ctx, &stats.Total, totalQ, userID, since); err != nil {
		return model.Stats{}, fmt.Errorf("expense stats total: %w", err)
	}

	const perCategoryQ = `
		SELECT c.name, c.icon, SUM(e.amount) AS total
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1 AND e.occurred_at >= $2
		GROUP BY c.id, c.name, c.icon
		ORDER BY total DESC, c.name`
	if err := s.db.SelectContext(ctx, &stats.PerCategory, perCategoryQ, userID, since); err != nil {
		return model.Stats{}, fmt.Errorf("expense stats by category: %w", err)
	}
	return stats, nil
}
