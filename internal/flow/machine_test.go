package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/akihotaki/NextExpense/internal/ledger"
	"github.com/akihotaki/NextExpense/internal/model"
)

type recorded struct {
	id    int64
	draft model.ExpenseDraft
}

// fakeLedger mimics the ledger contract, including amount validation and
// confirm-key deduplication.
type fakeLedger struct {
	mu         sync.Mutex
	categories []model.Category
	expenses   []recorded
	nextID     int64

	listErr    error
	getErr     error
	recordErr  error
	recordFail int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		categories: []model.Category{
			{ID: 1, Name: "Food", Icon: "🍔"},
			{ID: 2, Name: "Transport", Icon: "🚌"},
		},
	}
}

func (f *fakeLedger) ListCategories(ctx context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Category(nil), f.categories...), nil
}

func (f *fakeLedger) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.Category{}, f.getErr
	}
	for _, cat := range f.categories {
		if cat.ID == id {
			return cat, nil
		}
	}
	return model.Category{}, ledger.ErrNotFound
}

func (f *fakeLedger) RecordExpense(ctx context.Context, draft model.ExpenseDraft) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordFail > 0 {
		f.recordFail--
		return 0, fmt.Errorf("write: %w", errors.New("connection reset"))
	}
	if f.recordErr != nil {
		return 0, f.recordErr
	}
	if draft.Amount <= 0 {
		return 0, ledger.ErrNonPositiveAmount
	}
	for _, e := range f.expenses {
		if e.draft.ConfirmKey != "" && e.draft.ConfirmKey == draft.ConfirmKey {
			return e.id, nil
		}
	}
	f.nextID++
	f.expenses = append(f.expenses, recorded{id: f.nextID, draft: draft})
	return f.nextID, nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.expenses)
}

func newTestMachine() (*Machine, *fakeLedger, Store) {
	fl := newFakeLedger()
	store := NewMemoryStore()
	return NewMachine(fl, store), fl, store
}

// Drives the flow up to the confirmation step for user 7 with Food / 12.50 /
// skipped description.
func driveToConfirmation(t *testing.T, m *Machine) {
	t.Helper()
	ctx := context.Background()
	if _, err := m.Begin(ctx, 7); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := m.SelectCategory(ctx, 7, 1); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	if _, err := m.HandleText(ctx, 7, "12.50"); err != nil {
		t.Fatalf("amount: %v", err)
	}
	if _, err := m.HandleText(ctx, 7, "-"); err != nil {
		t.Fatalf("description: %v", err)
	}
	if got := m.CurrentStep(7); got != StepAwaitingConfirmation {
		t.Fatalf("step = %s, want %s", got, StepAwaitingConfirmation)
	}
}

func TestFullFlowCommitsExactlyOneExpense(t *testing.T) {
	m, fl, _ := newTestMachine()
	driveToConfirmation(t, m)

	resp, err := m.Confirm(context.Background(), 7)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !strings.Contains(resp.Text, "$12.50") {
		t.Fatalf("success text missing amount: %q", resp.Text)
	}
	if fl.count() != 1 {
		t.Fatalf("expenses = %d, want 1", fl.count())
	}
	got := fl.expenses[0].draft
	if got.UserID != 7 || got.CategoryID != 1 || got.Amount != 12.50 {
		t.Fatalf("unexpected draft: %+v", got)
	}
	if got.Description != nil {
		t.Fatalf("description = %q, want absent", *got.Description)
	}
	if got.ConfirmKey == "" {
		t.Fatal("expected confirm key to be assigned")
	}
	if m.InProgress(7) {
		t.Fatal("state should be cleared after commit")
	}
}

func TestBeginListsCategoriesWithCancel(t *testing.T) {
	m, _, _ := newTestMachine()
	resp, err := m.Begin(context.Background(), 7)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(resp.Choices) != 3 {
		t.Fatalf("choices = %d, want 2 categories + cancel", len(resp.Choices))
	}
	if resp.Choices[0].Token != CategoryToken(1) {
		t.Fatalf("first token = %q", resp.Choices[0].Token)
	}
	if last := resp.Choices[len(resp.Choices)-1]; last.Token != TokenCancel {
		t.Fatalf("last token = %q, want %q", last.Token, TokenCancel)
	}
}

func TestAmountValidationKeepsStep(t *testing.T) {
	m, fl, _ := newTestMachine()
	ctx := context.Background()
	if _, err := m.Begin(ctx, 7); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := m.SelectCategory(ctx, 7, 1); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}

	for _, bad := range []string{"abc", "", "-3", "0", "12.5.0"} {
		resp, err := m.HandleText(ctx, 7, bad)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("input %q: err = %v, want ValidationError", bad, err)
		}
		if resp.Text == "" {
			t.Fatalf("input %q: expected re-prompt text", bad)
		}
		if got := m.CurrentStep(7); got != StepAwaitingAmount {
			t.Fatalf("input %q moved step to %s", bad, got)
		}
	}
	if fl.count() != 0 {
		t.Fatalf("invalid amounts created %d expenses", fl.count())
	}

	// A corrected amount still goes through.
	if _, err := m.HandleText(ctx, 7, "25"); err != nil {
		t.Fatalf("valid amount rejected: %v", err)
	}
	if got := m.CurrentStep(7); got != StepAwaitingDescription {
		t.Fatalf("step = %s, want %s", got, StepAwaitingDescription)
	}
}

func TestAmountAcceptsCommaSeparator(t *testing.T) {
	m, fl, _ := newTestMachine()
	ctx := context.Background()
	_, _ = m.Begin(ctx, 7)
	_, _ = m.SelectCategory(ctx, 7, 1)
	if _, err := m.HandleText(ctx, 7, " 10,50 "); err != nil {
		t.Fatalf("comma amount rejected: %v", err)
	}
	if _, err := m.HandleText(ctx, 7, "-"); err != nil {
		t.Fatalf("description: %v", err)
	}
	if _, err := m.Confirm(ctx, 7); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if fl.expenses[0].draft.Amount != 10.50 {
		t.Fatalf("amount = %v, want 10.50", fl.expenses[0].draft.Amount)
	}
}

func TestDescriptionStoredVerbatim(t *testing.T) {
	m, fl, _ := newTestMachine()
	ctx := context.Background()
	_, _ = m.Begin(ctx, 7)
	_, _ = m.SelectCategory(ctx, 7, 2)
	_, _ = m.HandleText(ctx, 7, "20")

	resp, err := m.HandleText(ctx, 7, "bus ticket")
	if err != nil {
		t.Fatalf("description: %v", err)
	}
	if !strings.Contains(resp.Text, "bus ticket") {
		t.Fatalf("summary missing description: %q", resp.Text)
	}
	if _, err := m.Confirm(ctx, 7); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	got := fl.expenses[0].draft.Description
	if got == nil || *got != "bus ticket" {
		t.Fatalf("description = %v, want %q", got, "bus ticket")
	}
}

func TestConfirmWithoutFlowCreatesNothing(t *testing.T) {
	m, fl, _ := newTestMachine()
	resp, err := m.Confirm(context.Background(), 7)
	var se *StaleInputError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StaleInputError", err)
	}
	if resp.Text == "" {
		t.Fatal("expected a neutral notice")
	}
	if fl.count() != 0 {
		t.Fatalf("stale confirm created %d expenses", fl.count())
	}
}

func TestStaleCategorySelectionRejected(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()
	driveToConfirmation(t, m)

	// A category button from the first keyboard arrives after the flow
	// already advanced; it must not rewind or mutate anything.
	_, err := m.SelectCategory(ctx, 7, 2)
	var se *StaleInputError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StaleInputError", err)
	}
	if got := m.CurrentStep(7); got != StepAwaitingConfirmation {
		t.Fatalf("step = %s, stale input must not transition", got)
	}
}

func TestAddReplacesInProgressFlow(t *testing.T) {
	m, fl, store := newTestMachine()
	ctx := context.Background()
	_, _ = m.Begin(ctx, 7)
	_, _ = m.SelectCategory(ctx, 7, 2)
	_, _ = m.HandleText(ctx, 7, "99")

	// Starting over discards the accumulated input.
	if _, err := m.Begin(ctx, 7); err != nil {
		t.Fatalf("second Begin: %v", err)
	}
	st, ok := store.Get(7)
	if !ok || st.Step != StepAwaitingCategory {
		t.Fatalf("state = %+v, want fresh %s", st, StepAwaitingCategory)
	}
	if st.Pending.CategoryID != 0 || st.Pending.Amount != 0 {
		t.Fatalf("pending not reset: %+v", st.Pending)
	}

	// The restarted flow commits its own values only.
	_, _ = m.SelectCategory(ctx, 7, 1)
	_, _ = m.HandleText(ctx, 7, "5")
	_, _ = m.HandleText(ctx, 7, "-")
	if _, err := m.Confirm(ctx, 7); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if fl.count() != 1 || fl.expenses[0].draft.Amount != 5 {
		t.Fatalf("expenses = %+v, want single row of 5", fl.expenses)
	}
}

func TestCategoryVanishedAbortsFlow(t *testing.T) {
	m, fl, _ := newTestMachine()
	ctx := context.Background()
	_, _ = m.Begin(ctx, 7)
	_, _ = m.SelectCategory(ctx, 7, 1)
	_, _ = m.HandleText(ctx, 7, "12.50")

	// Category disappears between selection and the confirmation summary.
	fl.mu.Lock()
	fl.categories = fl.categories[1:]
	fl.mu.Unlock()

	resp, err := m.HandleText(ctx, 7, "-")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if !strings.Contains(resp.Text, "/add") {
		t.Fatalf("abort message should tell the user to restart: %q", resp.Text)
	}
	if m.InProgress(7) {
		t.Fatal("flow must abort to none")
	}
	if fl.count() != 0 {
		t.Fatal("aborted flow must not write")
	}
}

func TestStoreFailureDuringConfirmKeepsState(t *testing.T) {
	m, fl, store := newTestMachine()
	ctx := context.Background()
	driveToConfirmation(t, m)
	before, _ := store.Get(7)

	fl.mu.Lock()
	fl.recordFail = 1
	fl.mu.Unlock()

	resp, err := m.Confirm(ctx, 7)
	var stErr *StoreError
	if !errors.As(err, &stErr) {
		t.Fatalf("err = %v, want StoreError", err)
	}
	if len(resp.Choices) == 0 {
		t.Fatal("failure response should re-offer confirm/cancel")
	}
	st, ok := store.Get(7)
	if !ok || st.Step != StepAwaitingConfirmation {
		t.Fatalf("state after failed write = %+v, want retained", st)
	}
	if st.Pending.ConfirmKey != before.Pending.ConfirmKey {
		t.Fatal("confirm key must survive a failed write")
	}

	// The retry reuses the same key and commits exactly once.
	if _, err := m.Confirm(ctx, 7); err != nil {
		t.Fatalf("retry Confirm: %v", err)
	}
	if fl.count() != 1 {
		t.Fatalf("expenses = %d, want 1", fl.count())
	}
	if fl.expenses[0].draft.ConfirmKey != before.Pending.ConfirmKey {
		t.Fatal("retry must reuse the original confirm key")
	}
}

func TestStoreFailureOnBeginLeavesNoState(t *testing.T) {
	m, fl, _ := newTestMachine()
	fl.listErr = errors.New("down")
	resp, err := m.Begin(context.Background(), 7)
	var stErr *StoreError
	if !errors.As(err, &stErr) {
		t.Fatalf("err = %v, want StoreError", err)
	}
	if strings.Contains(resp.Text, "down") {
		t.Fatalf("internal error leaked to user: %q", resp.Text)
	}
	if m.InProgress(7) {
		t.Fatal("read failure must not leave a dangling flow")
	}
}

func TestCancelAlwaysClears(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()

	// Cancel with nothing in progress still succeeds.
	if resp := m.Cancel(ctx, 7); resp.Text == "" {
		t.Fatal("expected cancellation notice")
	}

	for _, stop := range []func(){
		func() { _, _ = m.Begin(ctx, 7) },
		func() { _, _ = m.SelectCategory(ctx, 7, 1) },
		func() { _, _ = m.HandleText(ctx, 7, "12.50") },
		func() { _, _ = m.HandleText(ctx, 7, "-") },
	} {
		stop()
		m.Cancel(ctx, 7)
		if m.InProgress(7) {
			t.Fatal("cancel must clear state from any step")
		}
		_, _ = m.Begin(ctx, 7)
	}
}

func TestConcurrentConfirmCommitsOnce(t *testing.T) {
	m, fl, _ := newTestMachine()
	driveToConfirmation(t, m)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Confirm(context.Background(), 7)
		}()
	}
	wg.Wait()

	if fl.count() != 1 {
		t.Fatalf("concurrent confirms produced %d expenses, want 1", fl.count())
	}
	if m.InProgress(7) {
		t.Fatal("state should be cleared")
	}
}

func TestUsersDoNotInterleave(t *testing.T) {
	m, fl, _ := newTestMachine()
	ctx := context.Background()

	var wg sync.WaitGroup
	for u := int64(1); u <= 4; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, _ = m.Begin(ctx, userID)
			_, _ = m.SelectCategory(ctx, userID, 1)
			_, _ = m.HandleText(ctx, userID, "10")
			_, _ = m.HandleText(ctx, userID, "-")
			_, _ = m.Confirm(ctx, userID)
		}(u)
	}
	wg.Wait()

	if fl.count() != 4 {
		t.Fatalf("expenses = %d, want 4", fl.count())
	}
	seen := make(map[int64]bool)
	for _, e := range fl.expenses {
		if seen[e.draft.UserID] {
			t.Fatalf("user %d committed twice", e.draft.UserID)
		}
		seen[e.draft.UserID] = true
	}
}

func TestRecoverable(t *testing.T) {
	if !Recoverable(&ValidationError{Reason: "x"}) {
		t.Fatal("ValidationError should be recoverable")
	}
	if !Recoverable(&StaleInputError{Step: StepNone}) {
		t.Fatal("StaleInputError should be recoverable")
	}
	if Recoverable(&StoreError{Op: "x", Err: errors.New("y")}) {
		t.Fatal("StoreError is not recoverable")
	}
	if Recoverable(&NotFoundError{What: "category"}) {
		t.Fatal("NotFoundError is not recoverable")
	}
	if Recoverable(nil) {
		t.Fatal("nil is not recoverable")
	}
}
