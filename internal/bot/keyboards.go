package bot

import (
	"strconv"

	"github.com/akihotaki/NextExpense/internal/flow"
	"github.com/akihotaki/NextExpense/internal/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

const categoryButtonsPerRow = 2

// markupFor translates flow choices into an inline keyboard. Category
// choices carry the category id as payload; confirm and cancel carry none.
func markupFor(resp flow.Response) *tele.ReplyMarkup {
	if len(resp.Choices) == 0 {
		return nil
	}
	btns := make([]keyboard.InlineBtn, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		btns = append(btns, buttonFor(ch))
	}
	return keyboard.InlineButtonsNPerRow(btns, categoryButtonsPerRow)
}

func buttonFor(ch flow.Choice) keyboard.InlineBtn {
	if id, ok := flow.ParseCategoryToken(ch.Token); ok {
		return keyboard.InlineBtn{
			Text:   ch.Label,
			Unique: cbCategory,
			Data:   strconv.FormatInt(id, 10),
		}
	}
	switch ch.Token {
	case flow.TokenConfirm:
		return keyboard.InlineBtn{Text: ch.Label, Unique: cbConfirm}
	default:
		return keyboard.InlineBtn{Text: ch.Label, Unique: cbCancel}
	}
}
