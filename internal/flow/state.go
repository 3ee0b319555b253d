package flow

import "time"

// Step identifies where a user currently is inside the add-expense flow.
type Step string

const (
	// StepNone indicates there is no active flow for the user.
	StepNone Step = "none"
	// StepAwaitingCategory means the category keyboard is showing.
	StepAwaitingCategory Step = "awaiting_category"
	// StepAwaitingAmount means the user was prompted for an amount.
	StepAwaitingAmount Step = "awaiting_amount"
	// StepAwaitingDescription means the user was prompted for a description.
	StepAwaitingDescription Step = "awaiting_description"
	// StepAwaitingConfirmation means the summary is showing and the flow
	// waits for confirm or cancel.
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// Pending accumulates partial expense input between independent updates.
// ConfirmKey is assigned when the flow reaches confirmation and rides along
// to the ledger so retried confirms cannot double-insert.
type Pending struct {
	CategoryID  int64
	Amount      float64
	Description *string
	ConfirmKey  string
}

// State is the conversational scratch state for one user. At most one State
// exists per user; starting a new flow replaces any previous one.
type State struct {
	UserID    int64
	Step      Step
	Pending   Pending
	UpdatedAt time.Time
}

// Choice is one selectable option attached to a Response. Token is opaque to
// the transport and only valid while the issuing step is current.
type Choice struct {
	Label string
	Token string
}

// Response is the transport-agnostic outcome of handling one inbound action.
type Response struct {
	Text    string
	Choices []Choice
}
