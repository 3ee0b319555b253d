package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/akihotaki/NextExpense/internal/logger"
	"github.com/akihotaki/NextExpense/internal/model"
	"log/slog"
)

// defaultCategories is the fixed category set every installation starts
// with. Seeding is idempotent: existing rows keep their name and icon.
var defaultCategories = []model.Category{
	{Name: "Food", Icon: "🍔"},
	{Name: "Transport", Icon: "🚌"},
	{Name: "Shopping", Icon: "🛍️"},
	{Name: "Entertainment", Icon: "🎮"},
	{Name: "Bills", Icon: "📄"},
	{Name: "Health", Icon: "💊"},
	{Name: "Other", Icon: "📦"},
}

// SeedCategories inserts the default categories, skipping any name that is
// already present. Safe to run on every startup.
func SeedCategories(ctx context.Context, db *sqlx.DB) error {
	inserted := 0
	for _, cat := range defaultCategories {
		res, err := db.ExecContext(ctx,
			`INSERT INTO categories (name, icon) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			cat.Name, cat.Icon,
		)
		if err != nil {
			logger.SEED.Error("category seed failed",
				slog.String("event", "seed.categories"),
				slog.String("name", cat.Name),
				slog.String("err", err.Error()),
			)
			return err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	logger.SEED.Info("categories seeded",
		slog.String("event", "seed.categories"),
		slog.Int("count", inserted),
		slog.Int("total", len(defaultCategories)),
	)
	return nil
}
