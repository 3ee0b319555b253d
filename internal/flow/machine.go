package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akihotaki/NextExpense/internal/ledger"
	"github.com/akihotaki/NextExpense/internal/logger"
	"github.com/akihotaki/NextExpense/internal/model"
	"log/slog"
)

// Ledger is the narrow slice of the ledger store the flow depends on.
type Ledger interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (model.Category, error)
	RecordExpense(ctx context.Context, draft model.ExpenseDraft) (int64, error)
}

const defaultOpTimeout = 5 * time.Second

// User-facing texts. Telegram Markdown, rendered verbatim by the transport.
const (
	msgChooseCategory = "💸 *Add Expense*\n\nChoose a category for your expense:"
	msgEnterAmount    = "Now enter the *expense amount* (e.g. 10.5 or 25):"
	msgEnterNote      = "✍️ Optional: add a *description* for this expense, or send `-` to skip:"
	msgAmountInvalid  = "Invalid amount. Please enter a number (e.g. 10.5 or 25)."
	msgAmountNotPos   = "Amount must be a positive number. Please try again."
	msgCategoryGone   = "That category no longer exists. Please start again with /add."
	msgStoreFailure   = "Something went wrong on our side. Please try again."
	msgSaveFailed     = "❌ Failed to save the expense. Press Confirm to retry or Cancel to discard."
	msgCancelled      = "❌ Expense entry cancelled."
	msgStale          = "This action is no longer valid."
	msgNoFlow         = "There is no expense entry in progress. Start one with /add."
)

// Machine walks users through the add-expense flow. All transitions for one
// user are serialized, so read-decide-write never interleaves with another
// update from the same user.
type Machine struct {
	ledger    Ledger
	states    Store
	locks     *userLocks
	opTimeout time.Duration
}

// NewMachine wires the flow against a ledger and a conversation state store.
func NewMachine(l Ledger, s Store) *Machine {
	return &Machine{
		ledger:    l,
		states:    s,
		locks:     newUserLocks(),
		opTimeout: defaultOpTimeout,
	}
}

// SetOpTimeout bounds individual ledger calls made by the machine.
func (m *Machine) SetOpTimeout(d time.Duration) {
	if d > 0 {
		m.opTimeout = d
	}
}

func (m *Machine) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, m.opTimeout)
}

// InProgress reports whether the user has an active flow.
func (m *Machine) InProgress(userID int64) bool {
	st, ok := m.states.Get(userID)
	return ok && st.Step != StepNone
}

// CurrentStep returns the user's step, StepNone when no flow is active.
func (m *Machine) CurrentStep(userID int64) Step {
	if st, ok := m.states.Get(userID); ok {
		return st.Step
	}
	return StepNone
}

// Begin starts (or restarts) the add-expense flow. An in-progress flow is
// discarded without confirmation.
func (m *Machine) Begin(ctx context.Context, userID int64) (Response, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	cctx, cancel := m.opCtx(ctx)
	defer cancel()
	cats, err := m.ledger.ListCategories(cctx)
	if err != nil {
		return Response{Text: msgStoreFailure}, &StoreError{Op: "list categories", Err: err}
	}
	if len(cats) == 0 {
		return Response{Text: msgStoreFailure}, &NotFoundError{What: "categories"}
	}

	if prev, ok := m.states.Get(userID); ok && prev.Step != StepNone {
		logger.Debug(ctx, "flow", "flow.replaced",
			slog.Int64("user_id", userID),
			slog.String("step", string(prev.Step)),
		)
	}
	m.states.Set(userID, State{Step: StepAwaitingCategory, UpdatedAt: time.Now()})

	choices := make([]Choice, 0, len(cats)+1)
	for _, cat := range cats {
		choices = append(choices, Choice{
			Label: cat.Icon + " " + cat.Name,
			Token: CategoryToken(cat.ID),
		})
	}
	choices = append(choices, Choice{Label: "❌ Cancel", Token: TokenCancel})
	return Response{Text: msgChooseCategory, Choices: choices}, nil
}

// SelectCategory stores the chosen category and advances to the amount
// prompt. Selection tokens from an out-of-date keyboard are rejected as
// stale and leave state untouched.
func (m *Machine) SelectCategory(ctx context.Context, userID, categoryID int64) (Response, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	st, ok := m.states.Get(userID)
	if !ok || st.Step != StepAwaitingCategory {
		return Response{Text: msgStale}, &StaleInputError{Step: m.stepOf(st, ok)}
	}

	cctx, cancel := m.opCtx(ctx)
	defer cancel()
	cat, err := m.ledger.GetCategory(cctx, categoryID)
	if errors.Is(err, ledger.ErrNotFound) {
		m.states.Clear(userID)
		return Response{Text: msgCategoryGone}, &NotFoundError{What: "category"}
	}
	if err != nil {
		return Response{Text: msgStoreFailure}, &StoreError{Op: "get category", Err: err}
	}

	st.Step = StepAwaitingAmount
	st.Pending.CategoryID = cat.ID
	st.UpdatedAt = time.Now()
	m.states.Set(userID, st)

	text := fmt.Sprintf("✅ %s *%s* selected.\n\n%s", cat.Icon, cat.Name, msgEnterAmount)
	return Response{Text: text}, nil
}

// HandleText consumes free text, disambiguated solely by the current step:
// an amount while awaiting the amount, a description while awaiting the
// description. Text outside a flow is answered with a hint and ignored.
func (m *Machine) HandleText(ctx context.Context, userID int64, text string) (Response, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	st, ok := m.states.Get(userID)
	switch {
	case ok && st.Step == StepAwaitingAmount:
		return m.handleAmount(st, text)
	case ok && st.Step == StepAwaitingDescription:
		return m.handleDescription(ctx, st, text)
	default:
		return Response{Text: msgNoFlow}, &StaleInputError{Step: m.stepOf(st, ok)}
	}
}

func (m *Machine) handleAmount(st State, text string) (Response, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Response{Text: msgAmountInvalid}, &ValidationError{Reason: "amount not a number"}
	}
	if amount <= 0 {
		return Response{Text: msgAmountNotPos}, &ValidationError{Reason: "amount not positive"}
	}

	st.Step = StepAwaitingDescription
	st.Pending.Amount = amount
	st.UpdatedAt = time.Now()
	m.states.Set(st.UserID, st)
	return Response{Text: msgEnterNote}, nil
}

func (m *Machine) handleDescription(ctx context.Context, st State, text string) (Response, error) {
	var description *string
	if text != "-" {
		description = &text
	}

	// Re-resolve the category purely for display; if it vanished since
	// selection the flow fails closed instead of defaulting.
	cctx, cancel := m.opCtx(ctx)
	defer cancel()
	cat, err := m.ledger.GetCategory(cctx, st.Pending.CategoryID)
	if errors.Is(err, ledger.ErrNotFound) {
		m.states.Clear(st.UserID)
		return Response{Text: msgCategoryGone}, &NotFoundError{What: "category"}
	}
	if err != nil {
		return Response{Text: msgStoreFailure}, &StoreError{Op: "get category", Err: err}
	}

	st.Step = StepAwaitingConfirmation
	st.Pending.Description = description
	st.Pending.ConfirmKey = uuid.NewString()
	st.UpdatedAt = time.Now()
	m.states.Set(st.UserID, st)

	var b strings.Builder
	b.WriteString("🧾 *Confirm expense?*\n\n")
	fmt.Fprintf(&b, "Category: %s *%s*\n", cat.Icon, cat.Name)
	fmt.Fprintf(&b, "Amount: *$%.2f*\n", st.Pending.Amount)
	if description != nil {
		fmt.Fprintf(&b, "Description: %s\n", *description)
	}
	b.WriteString("\nPlease confirm or cancel:")
	return Response{Text: b.String(), Choices: confirmChoices()}, nil
}

// Confirm commits the pending expense. This is the only transition with a
// durable side effect. On a write failure the state stays in
// AwaitingConfirmation so the user can simply press confirm again; the
// confirm key makes that retry idempotent.
func (m *Machine) Confirm(ctx context.Context, userID int64) (Response, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	st, ok := m.states.Get(userID)
	if !ok || st.Step != StepAwaitingConfirmation {
		return Response{Text: msgStale}, &StaleInputError{Step: m.stepOf(st, ok)}
	}

	cctx, cancel := m.opCtx(ctx)
	defer cancel()
	expenseID, err := m.ledger.RecordExpense(cctx, model.ExpenseDraft{
		UserID:      userID,
		CategoryID:  st.Pending.CategoryID,
		Amount:      st.Pending.Amount,
		Description: st.Pending.Description,
		ConfirmKey:  st.Pending.ConfirmKey,
	})
	if errors.Is(err, ledger.ErrNonPositiveAmount) {
		m.states.Clear(userID)
		return Response{Text: msgAmountNotPos + " Please start again with /add."},
			&ValidationError{Reason: "amount rejected by ledger"}
	}
	if err != nil {
		return Response{Text: msgSaveFailed, Choices: confirmChoices()}, &StoreError{Op: "record expense", Err: err}
	}

	m.states.Clear(userID)
	logger.Info(ctx, "flow", "flow.committed",
		slog.Int64("user_id", userID),
		slog.Int64("expense_id", expenseID),
	)
	text := fmt.Sprintf("✅ Expense of *$%.2f* saved!", st.Pending.Amount)
	if st.Pending.Description != nil {
		text += "\nDescription: " + *st.Pending.Description
	}
	return Response{Text: text}, nil
}

// Cancel discards any in-progress flow. It always succeeds, whatever the
// current step.
func (m *Machine) Cancel(ctx context.Context, userID int64) Response {
	unlock := m.locks.lock(userID)
	defer unlock()

	m.states.Clear(userID)
	logger.Debug(ctx, "flow", "flow.cancelled", slog.Int64("user_id", userID))
	return Response{Text: msgCancelled}
}

// SweepStale clears conversation states idle for longer than ttl and returns
// how many were dropped. Abandoned flows otherwise pin their scratch state
// forever.
func (m *Machine) SweepStale(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	swept := 0
	for _, userID := range m.states.StaleUsers(cutoff) {
		unlock := m.locks.lock(userID)
		if st, ok := m.states.Get(userID); ok && st.UpdatedAt.Before(cutoff) {
			m.states.Clear(userID)
			swept++
		}
		unlock()
	}
	return swept
}

func (m *Machine) stepOf(st State, ok bool) Step {
	if !ok {
		return StepNone
	}
	return st.Step
}

func confirmChoices() []Choice {
	return []Choice{
		{Label: "✅ Confirm", Token: TokenConfirm},
		{Label: "❌ Cancel", Token: TokenCancel},
	}
}
