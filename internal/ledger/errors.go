package ledger

import "errors"

var (
	// ErrNotFound reports that a requested row does not exist. Flows treat a
	// missing category as fatal and abort rather than guessing a default.
	ErrNotFound = errors.New("ledger: not found")

	// ErrNonPositiveAmount rejects expense amounts that are zero or negative
	// before they reach storage.
	ErrNonPositiveAmount = errors.New("ledger: amount must be positive")
)
