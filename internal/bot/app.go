package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akihotaki/NextExpense/internal/bootstrap"
	"github.com/akihotaki/NextExpense/internal/database"
	"github.com/akihotaki/NextExpense/internal/flow"
	"github.com/akihotaki/NextExpense/internal/ledger"
	"github.com/akihotaki/NextExpense/internal/logger"
	tg "github.com/akihotaki/NextExpense/internal/telegram"
	"github.com/akihotaki/NextExpense/internal/telegram/commands"
	"github.com/akihotaki/NextExpense/internal/telegram/router"

	"log/slog"
)

// App wires the expense tracker together: ledger store, conversation flow,
// command registry, and the background sweeper.
type App struct {
	cfg     *Config
	db      *sqlx.DB
	store   *ledger.Store
	machine *flow.Machine
	reg     *tg.Registry
	sweeper *Sweeper
}

// Bootstrap initializes logging, the database (with migrations and category
// seeding), and builds the application.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Seeders:  []bootstrap.Seeder{database.SeedCategories},
	})
	if err != nil {
		return nil, err
	}

	store := ledger.New(res.DB)
	machine := flow.NewMachine(store, flow.NewMemoryStore())
	machine.SetOpTimeout(time.Duration(cfg.Flow.OpTimeoutSeconds) * time.Second)

	app := &App{
		cfg:     cfg,
		db:      res.DB,
		store:   store,
		machine: machine,
	}
	app.sweeper = NewSweeper(machine, cfg.Flow.SweepSchedule, time.Duration(cfg.Flow.StateTTLMinutes)*time.Minute)
	app.reg = app.buildRegistry()
	return app, nil
}

func (a *App) buildRegistry() *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.onStart,
		Description: "Register and show the welcome message",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.onHelp,
		Description: "Show available commands",
	})
	reg.RegisterCommand("/add", commands.Command{
		Handler:     a.onAdd,
		Description: "Add a new expense",
	})
	reg.RegisterCommand("/recent", commands.Command{
		Handler:     a.onRecent,
		Description: "Show your recent expenses",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.onStats,
		Description: "Show spending statistics",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.onCancel,
		Description: "Cancel the current expense entry",
		Hidden:      true,
	})

	_ = reg.RegisterCallback(cbCategory, a.onCategoryCallback)
	_ = reg.RegisterCallback(cbConfirm, a.onConfirmCallback)
	_ = reg.RegisterCallback(cbCancel, a.onCancelCallback)

	reg.SetTextFallback(a.onUnknownText)
	reg.SetCallbackNotFound(a.UnknownCallback())
	return reg
}

// TelegramRunOptions assembles routes and middleware for the bot runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	var routes []tg.Route
	routes = append(routes, router.CommandRoutes(a.reg)...)
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{NotFound: a.UnknownCallback()}))
	routes = append(routes, router.TextRoutes(a, a.reg, router.TextOptions{
		UnknownText:     a.UnknownText(),
		UnknownDocument: a.UnknownDocument(),
	})...)

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			a.sweeper.Stop()
			if err := a.db.Close(); err != nil {
				logger.DB.Warn("db close failed",
					slog.String("event", "db.close"),
					slog.String("err", err.Error()),
				)
			}
			return nil
		},
	}, nil
}
