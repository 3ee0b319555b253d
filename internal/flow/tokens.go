package flow

import (
	"strconv"
	"strings"
)

// Tokens attached to choices. A token is only honored while the step that
// issued it is still the user's current step.
const (
	TokenConfirm = "confirm"
	TokenCancel  = "cancel"

	categoryTokenPrefix = "category:"
)

// CategoryToken builds the selection token for a category id.
func CategoryToken(id int64) string {
	return categoryTokenPrefix + strconv.FormatInt(id, 10)
}

// ParseCategoryToken extracts the category id from a selection token.
func ParseCategoryToken(token string) (int64, bool) {
	raw, ok := strings.CutPrefix(token, categoryTokenPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
