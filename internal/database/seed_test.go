package database

import "testing"

func TestDefaultCategories(t *testing.T) {
	want := map[string]string{
		"Food":          "🍔",
		"Transport":     "🚌",
		"Shopping":      "🛍️",
		"Entertainment": "🎮",
		"Bills":         "📄",
		"Health":        "💊",
		"Other":         "📦",
	}

	if len(defaultCategories) != len(want) {
		t.Fatalf("default set has %d categories, want %d", len(defaultCategories), len(want))
	}

	seen := make(map[string]bool, len(defaultCategories))
	for _, cat := range defaultCategories {
		if seen[cat.Name] {
			t.Errorf("duplicate category name %q", cat.Name)
		}
		seen[cat.Name] = true

		icon, ok := want[cat.Name]
		if !ok {
			t.Errorf("unexpected category %q", cat.Name)
			continue
		}
		if cat.Icon != icon {
			t.Errorf("category %q icon = %q, want %q", cat.Name, cat.Icon, icon)
		}
		if cat.ID != 0 {
			t.Errorf("category %q carries a preset id %d", cat.Name, cat.ID)
		}
	}
}
