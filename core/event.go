package core

import "context"

type (
	// Event describes a successful mutation for live feed subscribers.
	Event struct {
		Resource string `json:"resource"` // "picture", "note" or "comment"
		Action   string `json:"action"`   // "created", "updated" or "deleted"
		ID       int64  `json:"id"`
		Owner    Owner  `json:"owner"`
	}

	// Notifier publishes events. Implementations must not block the caller.
	Notifier interface {
		Notify(ctx context.Context, event Event)
	}
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)
