// Package lifecycle holds the complaint state machine and the deadline policy.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/complaint-portal/internal/domain"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

const (
	MinRating = 1
	MaxRating = 5
)

var allowedTransitions = map[domain.ComplaintStatus][]domain.ComplaintStatus{
	domain.StatusOpen:       {domain.StatusAssigned},
	domain.StatusAssigned:   {domain.StatusInProgress},
	domain.StatusInProgress: {domain.StatusResolved},
	domain.StatusResolved:   {},
}

var deadlineByPriority = map[domain.ComplaintPriority]time.Duration{
	domain.PriorityLow:      168 * time.Hour,
	domain.PriorityMedium:   72 * time.Hour,
	domain.PriorityHigh:     24 * time.Hour,
	domain.PriorityCritical: 4 * time.Hour,
}

// NextStatuses returns the statuses reachable from current in one step.
func NextStatuses(current domain.ComplaintStatus) []domain.ComplaintStatus {
	next := allowedTransitions[current]
	out := make([]domain.ComplaintStatus, len(next))
	copy(out, next)
	return out
}

// IsValidTransition reports whether current -> next is an edge of the lifecycle graph.
func IsValidTransition(current, next domain.ComplaintStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// DeadlineDuration maps a priority to its resolution window. Unknown priorities get the Medium window.
func DeadlineDuration(priority domain.ComplaintPriority) time.Duration {
	if d, ok := deadlineByPriority[priority]; ok {
		return d
	}
	return deadlineByPriority[domain.PriorityMedium]
}

// ComputeDeadline returns createdAt plus the priority's resolution window.
func ComputeDeadline(priority domain.ComplaintPriority, createdAt time.Time) time.Time {
	return createdAt.Add(DeadlineDuration(priority))
}

// Transition validates a status-only change and returns the patch to persist.
// Open -> Assigned is rejected here because it must carry an assignee; see Assign.
func Transition(complaint *domain.Complaint, requested domain.ComplaintStatus, notes *string) (domain.ComplaintPatch, error) {
	if !requested.Valid() {
		return domain.ComplaintPatch{}, apperrors.NewFieldError("status", "invalid status value")
	}
	if !IsValidTransition(complaint.Status, requested) {
		return domain.ComplaintPatch{}, invalidTransition(complaint.Status, requested, "")
	}
	if requested == domain.StatusAssigned {
		return domain.ComplaintPatch{}, invalidTransition(complaint.Status, requested, "assignment requires an assignee")
	}

	status := requested
	patch := domain.ComplaintPatch{Status: &status}
	if notes != nil {
		n := strings.TrimSpace(*notes)
		if n != "" {
			patch.ResolutionNotes = &n
		}
	}
	return patch, nil
}

// Assign moves an Open complaint to Assigned with the given assignee in one step.
func Assign(complaint *domain.Complaint, assigneeID int64) (domain.ComplaintPatch, error) {
	if complaint.Status != domain.StatusOpen {
		return domain.ComplaintPatch{}, invalidTransition(complaint.Status, domain.StatusAssigned, "only open complaints can be assigned")
	}
	status := domain.StatusAssigned
	id := assigneeID
	return domain.ComplaintPatch{Status: &status, AssigneeID: &id}, nil
}

// SubmitFeedback validates feedback for a resolved complaint. Feedback is accepted once.
func SubmitFeedback(complaint *domain.Complaint, feedback string, rating int) (domain.ComplaintPatch, error) {
	fields := apperrors.FieldErrors{}
	feedback = strings.TrimSpace(feedback)
	if len(feedback) < 5 {
		fields.Add("feedback", "feedback must be at least 5 characters")
	}
	if rating < MinRating || rating > MaxRating {
		fields.Add("feedback_rating", fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	if err := fields.Err(); err != nil {
		return domain.ComplaintPatch{}, err
	}

	if complaint.Status != domain.StatusResolved {
		return domain.ComplaintPatch{}, apperrors.NewInvalidState(
			"feedback can only be given for resolved complaints",
			map[string]any{"current": complaint.Status},
		)
	}
	if complaint.HasFeedback() {
		return domain.ComplaintPatch{}, apperrors.NewAlreadyRated("feedback was already submitted for this complaint")
	}

	r := rating
	return domain.ComplaintPatch{Feedback: &feedback, FeedbackRating: &r}, nil
}

func invalidTransition(current, requested domain.ComplaintStatus, reason string) error {
	allowed := NextStatuses(current)
	names := make([]string, 0, len(allowed))
	for _, s := range allowed {
		names = append(names, string(s))
	}
	valid := strings.Join(names, ", ")
	if valid == "" {
		valid = "None"
	}
	msg := fmt.Sprintf("invalid status transition from %s to %s. Valid next status: %s", current, requested, valid)
	if reason != "" {
		msg += " (" + reason + ")"
	}
	return apperrors.NewInvalidTransition(msg, map[string]any{
		"current":   current,
		"requested": requested,
		"allowed":   allowed,
	})
}
