package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/akihotaki/NextExpense/internal/flow"
	"github.com/akihotaki/NextExpense/internal/model"
)

func TestRenderStats(t *testing.T) {
	stats := model.Stats{
		Total:      30,
		WindowDays: 30,
		PerCategory: []model.CategoryTotal{
			{Name: "Transport", Icon: "🚌", Total: 20},
			{Name: "Food", Icon: "🍔", Total: 10},
		},
	}

	out := renderStats(stats)
	if !strings.Contains(out, "Total: *$30.00*") {
		t.Errorf("missing total, got:\n%s", out)
	}
	if !strings.Contains(out, "🚌 Transport: $20.00 (67%)") {
		t.Errorf("missing transport line, got:\n%s", out)
	}
	if !strings.Contains(out, "🍔 Food: $10.00 (33%)") {
		t.Errorf("missing food line, got:\n%s", out)
	}
	if strings.Index(out, "Transport") > strings.Index(out, "Food") {
		t.Errorf("categories out of order, got:\n%s", out)
	}
}

func TestRenderStatsCapsCategories(t *testing.T) {
	stats := model.Stats{Total: 7, WindowDays: 30}
	for i := 0; i < 7; i++ {
		stats.PerCategory = append(stats.PerCategory, model.CategoryTotal{
			Name: string(rune('A' + i)), Icon: "📦", Total: 1,
		})
	}

	out := renderStats(stats)
	if strings.Contains(out, "📦 F:") || strings.Contains(out, "📦 G:") {
		t.Errorf("more than five categories rendered:\n%s", out)
	}
	if !strings.Contains(out, "📦 E:") {
		t.Errorf("fifth category missing:\n%s", out)
	}
}

func TestRenderStatsEmptyWindow(t *testing.T) {
	out := renderStats(model.Stats{WindowDays: 30})
	if !strings.Contains(out, "No expenses in the last 30 days") {
		t.Errorf("unexpected empty-window text: %s", out)
	}
}

func TestRenderRecent(t *testing.T) {
	desc := "coffee *to go*"
	items := []model.ExpenseWithCategory{
		{
			Amount:       12.5,
			Description:  &desc,
			OccurredAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			CategoryName: "Food",
			CategoryIcon: "🍔",
		},
		{
			Amount:       3,
			OccurredAt:   time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
			CategoryName: "Transport",
			CategoryIcon: "🚌",
		},
	}

	out := renderRecent(items, 5)
	if !strings.Contains(out, "🍔 *Food* — $12.50 (Aug 30)") {
		t.Errorf("missing food entry, got:\n%s", out)
	}
	if !strings.Contains(out, "🚌 *Transport* — $3.00 (Aug 29)") {
		t.Errorf("missing transport entry, got:\n%s", out)
	}
	if strings.Contains(out, "*to go*") {
		t.Errorf("description markdown not escaped, got:\n%s", out)
	}
	if strings.Index(out, "Food") > strings.Index(out, "Transport") {
		t.Errorf("entries out of order, got:\n%s", out)
	}
	if strings.Contains(out, "Showing the most recent entries only") {
		t.Errorf("truncation hint should not appear below the limit, got:\n%s", out)
	}

	out = renderRecent(items[:1], 1)
	if !strings.Contains(out, "Showing the most recent entries only") {
		t.Errorf("truncation hint missing at the limit, got:\n%s", out)
	}
}

func TestRenderRecentEmpty(t *testing.T) {
	out := renderRecent(nil, 5)
	if !strings.Contains(out, "/add") {
		t.Errorf("empty listing should point at /add, got: %s", out)
	}
}

func TestButtonFor(t *testing.T) {
	b := buttonFor(flow.Choice{Label: "🍔 Food", Token: flow.CategoryToken(7)})
	if b.Unique != cbCategory || b.Data != "7" || b.Text != "🍔 Food" {
		t.Errorf("unexpected category button: %+v", b)
	}

	b = buttonFor(flow.Choice{Label: "✅ Confirm", Token: flow.TokenConfirm})
	if b.Unique != cbConfirm || b.Data != "" {
		t.Errorf("unexpected confirm button: %+v", b)
	}

	b = buttonFor(flow.Choice{Label: "❌ Cancel", Token: flow.TokenCancel})
	if b.Unique != cbCancel {
		t.Errorf("unexpected cancel button: %+v", b)
	}
}

func TestMarkupForNoChoices(t *testing.T) {
	if m := markupFor(flow.Response{Text: "plain"}); m != nil {
		t.Errorf("expected nil markup, got %+v", m)
	}
}

func TestMarkupForRows(t *testing.T) {
	resp := flow.Response{Choices: []flow.Choice{
		{Label: "A", Token: flow.CategoryToken(1)},
		{Label: "B", Token: flow.CategoryToken(2)},
		{Label: "C", Token: flow.CategoryToken(3)},
	}}
	m := markupFor(resp)
	if m == nil {
		t.Fatal("expected markup")
	}
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.InlineKeyboard))
	}
	if len(m.InlineKeyboard[0]) != 2 || len(m.InlineKeyboard[1]) != 1 {
		t.Errorf("unexpected row shape: %d/%d", len(m.InlineKeyboard[0]), len(m.InlineKeyboard[1]))
	}
}
