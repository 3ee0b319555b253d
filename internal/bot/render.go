package bot

import (
	"fmt"
	"strings"

	"github.com/akihotaki/NextExpense/internal/model"
	"github.com/akihotaki/NextExpense/internal/telegram/format"
)

// statsTopCategories caps how many per-category lines /stats shows.
const statsTopCategories = 5

// renderRecent formats a /recent listing. Descriptions are user input and
// get escaped so they cannot break the Markdown envelope.
func renderRecent(items []model.ExpenseWithCategory, limit int) string {
	if len(items) == 0 {
		return "🧾 No expenses recorded yet. Start with /add."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧾 *Your last %d expense(s):*\n\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "%s *%s* — $%.2f (%s)",
			it.CategoryIcon, it.CategoryName, it.Amount, it.OccurredAt.Format("Jan 2"))
		if desc := format.DerefString(it.Description, ""); desc != "" {
			b.WriteString("\n    " + escapeMD(desc))
		}
		b.WriteString("\n")
	}
	if len(items) == limit {
		b.WriteString("\nShowing the most recent entries only.")
	}
	return b.String()
}

// renderStats formats the /stats summary with per-category shares.
func renderStats(stats model.Stats) string {
	if stats.Total == 0 {
		return fmt.Sprintf("📈 No expenses in the last %d days.", stats.WindowDays)
	}

	top := stats.PerCategory
	if len(top) > statsTopCategories {
		top = top[:statsTopCategories]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 *Spending, last %d days*\n\n", stats.WindowDays)
	fmt.Fprintf(&b, "Total: *$%.2f*\n\n", stats.Total)
	for _, ct := range top {
		share := 0.0
		if stats.Total > 0 {
			share = ct.Total / stats.Total * 100
		}
		fmt.Fprintf(&b, "%s %s: $%.2f (%.0f%%)\n", ct.Icon, ct.Name, ct.Total, share)
	}
	return b.String()
}

func escapeMD(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}
