package domain

import "time"

// HistoryAction captures what changed in a history entry.
type HistoryAction string

const (
	ActionCreated  HistoryAction = "CREATED"
	ActionStatus   HistoryAction = "STATUS_CHANGE"
	ActionAssigned HistoryAction = "ASSIGNED"
	ActionFeedback HistoryAction = "FEEDBACK"
)

// ComplaintHistory is an immutable audit trail entry.
type ComplaintHistory struct {
	ID          int64
	ComplaintID int64
	ActorID     int64
	Action      HistoryAction
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
