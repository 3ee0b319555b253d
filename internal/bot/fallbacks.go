package bot

import (
	tghelpers "github.com/akihotaki/NextExpense/internal/telegram/helpers"
	"github.com/akihotaki/NextExpense/internal/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

var _ ui.FallbackProvider = (*App)(nil)

// UnknownText answers free text that matches neither a command nor an
// active flow step.
func (a *App) UnknownText() tele.HandlerFunc {
	return a.onUnknownText
}

// UnknownDocument answers file uploads, which the tracker does not accept.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I can't process files. Use /add to record an expense.")
	}
}

// UnknownCallback answers button presses from keyboards this build no
// longer knows about.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		_ = c.Respond(&tele.CallbackResponse{Text: "This action is no longer valid."})
		return nil
	}
}
