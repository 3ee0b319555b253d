// Package flow drives the multi-step add-expense conversation. It owns the
// per-user conversation state and is deliberately transport-agnostic: inbound
// actions arrive as plain method calls and prompts leave as Response values,
// so the Telegram layer only renders and routes.
package flow
