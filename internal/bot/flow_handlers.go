package bot

import (
	"github.com/akihotaki/NextExpense/internal/flow"
	"github.com/akihotaki/NextExpense/internal/telegram/callbacks"
	tghelpers "github.com/akihotaki/NextExpense/internal/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques for the add-expense flow keyboards.
const (
	cbCategory = "flow_category"
	cbConfirm  = "flow_confirm"
	cbCancel   = "flow_cancel"
)

// reply delivers a flow response to the user. Recoverable flow errors were
// already answered by the response text, so they are not propagated as
// handler failures.
func (a *App) reply(c tele.Context, resp flow.Response, err error) error {
	if resp.Text != "" {
		if sendErr := tghelpers.SendMD(c, resp.Text, markupFor(resp)); sendErr != nil {
			return sendErr
		}
	}
	if err != nil && !flow.Recoverable(err) {
		return err
	}
	return nil
}

func (a *App) onCategoryCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	categoryID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "This action is no longer valid.")
	}
	resp, err := a.machine.SelectCategory(ctx, c.Sender().ID, categoryID)
	return a.reply(c, resp, err)
}

func (a *App) onConfirmCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	resp, err := a.machine.Confirm(ctx, c.Sender().ID)
	return a.reply(c, resp, err)
}

func (a *App) onCancelCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	resp := a.machine.Cancel(ctx, c.Sender().ID)
	return a.reply(c, resp, nil)
}

// ManagerHandler consumes free text while a flow is active. Together with
// the machine's InProgress it satisfies the text router's FSM contract.
func (a *App) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	resp, err := a.machine.HandleText(ctx, c.Sender().ID, c.Text())
	return a.reply(c, resp, err)
}

// InProgress reports whether the user has an active add-expense flow.
func (a *App) InProgress(userID int64) bool {
	return a.machine.InProgress(userID)
}
