package bot

import (
	"fmt"
	"strings"

	"github.com/akihotaki/NextExpense/internal/logger"
	"github.com/akihotaki/NextExpense/internal/model"
	tghelpers "github.com/akihotaki/NextExpense/internal/telegram/helpers"

	"log/slog"
	tele "gopkg.in/telebot.v4"
)

const helpText = "💰 *NextExpense*\n\n" +
	"/add — record a new expense\n" +
	"/recent — show your recent expenses\n" +
	"/stats — spending summary by category\n" +
	"/help — show this message"

const unknownText = "I didn't catch that. Use /add to record an expense or /help to see what I can do."

func (a *App) onStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	err := a.store.UpsertUser(ctx, model.User{
		ID:        sender.ID,
		Username:  sender.Username,
		FirstName: sender.FirstName,
		LastName:  sender.LastName,
	})
	if err != nil {
		logger.Warn(ctx, "bot", "user.upsert_failed",
			slog.Int64("user_id", sender.ID),
			slog.String("err", err.Error()),
		)
	}

	name := strings.TrimSpace(sender.FirstName)
	if stored, err := tghelpers.CurrentUser[model.User](ctx, a.store, sender.ID); err == nil && stored.FirstName != "" {
		name = stored.FirstName
	}
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi %s! I track your expenses.\n\n%s", name, helpText)
	return tghelpers.SendMD(c, text)
}

func (a *App) onHelp(c tele.Context) error {
	return tghelpers.SendMD(c, helpText)
}

func (a *App) onAdd(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	resp, err := a.machine.Begin(ctx, c.Sender().ID)
	return a.reply(c, resp, err)
}

func (a *App) onCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	resp := a.machine.Cancel(ctx, c.Sender().ID)
	return tghelpers.SendMD(c, resp.Text)
}

func (a *App) onRecent(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	items, err := a.store.ListRecentExpenses(ctx, c.Sender().ID, a.cfg.Flow.RecentLimit)
	if err != nil {
		_ = tghelpers.SendText(c, "Could not load your expenses. Please try again.")
		return err
	}
	return tghelpers.SendMD(c, renderRecent(items, a.cfg.Flow.RecentLimit))
}

func (a *App) onStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	stats, err := a.store.ExpenseStats(ctx, c.Sender().ID, a.cfg.Flow.StatsWindowDays)
	if err != nil {
		_ = tghelpers.SendText(c, "Could not load your statistics. Please try again.")
		return err
	}
	return tghelpers.SendMD(c, renderStats(stats))
}

func (a *App) onUnknownText(c tele.Context) error {
	return tghelpers.SendText(c, unknownText)
}
