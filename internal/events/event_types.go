package events

import (
	"time"

	"github.com/spec-kit/complaint-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated           EventType = "complaint_created"
	EventComplaintStatusChanged     EventType = "complaint_status_changed"
	EventComplaintAssigned          EventType = "complaint_assigned"
	EventComplaintFeedbackSubmitted EventType = "complaint_feedback_submitted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   int64       `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ComplaintID int64     `json:"complaint_id"`
	Actor       Actor     `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	Category domain.ComplaintCategory `json:"category"`
	Priority domain.ComplaintPriority `json:"priority"`
	Title    string                   `json:"title"`
	Deadline *time.Time               `json:"deadline,omitempty"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	SubmitterID int64                  `json:"submitter_id"`
	OldStatus   domain.ComplaintStatus `json:"old_status"`
	NewStatus   domain.ComplaintStatus `json:"new_status"`
	Notes       *string                `json:"notes,omitempty"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	AssigneeID int64 `json:"assignee_id"`
}

// ComplaintFeedbackPayload payload.
type ComplaintFeedbackPayload struct {
	Rating int `json:"rating"`
}
