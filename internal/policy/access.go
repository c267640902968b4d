// Package policy decides whether an actor may perform an operation on a complaint.
// Decisions depend only on the actor's role and id and on the complaint's ownership fields.
package policy

import (
	"github.com/spec-kit/complaint-portal/internal/domain"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

// Operation enumerates the complaint operations guarded by the policy.
type Operation string

const (
	OpCreate       Operation = "create"
	OpRead         Operation = "read"
	OpUpdateStatus Operation = "update_status"
	OpAssign       Operation = "assign"
	OpFeedback     Operation = "feedback"
	OpStats        Operation = "stats"
)

// CanAccess returns nil when actor may perform op on complaint. complaint may be nil for
// operations that do not target a single record (create, stats).
func CanAccess(actor *domain.Actor, complaint *domain.Complaint, op Operation) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	switch actor.Role {
	case domain.RoleAdmin:
		return adminAccess(actor, complaint, op)
	case domain.RoleStaff:
		return staffAccess(actor, complaint, op)
	case domain.RoleUser:
		return userAccess(actor, complaint, op)
	default:
		return apperrors.NewForbidden("unknown role")
	}
}

// Allowed is the boolean form of CanAccess.
func Allowed(actor *domain.Actor, complaint *domain.Complaint, op Operation) bool {
	return CanAccess(actor, complaint, op) == nil
}

func adminAccess(actor *domain.Actor, complaint *domain.Complaint, op Operation) error {
	switch op {
	case OpCreate, OpStats:
		return nil
	case OpRead, OpUpdateStatus, OpAssign:
		return requireComplaint(complaint)
	case OpFeedback:
		// feedback belongs to whoever filed the complaint, admins included
		if err := requireComplaint(complaint); err != nil {
			return err
		}
		if complaint.SubmitterID != actor.ID {
			return apperrors.NewForbidden("only the submitter can give feedback")
		}
		return nil
	default:
		return apperrors.NewForbidden("unsupported operation")
	}
}

func staffAccess(actor *domain.Actor, complaint *domain.Complaint, op Operation) error {
	switch op {
	case OpCreate:
		return apperrors.NewForbidden("staff cannot file complaints")
	case OpAssign:
		return apperrors.NewForbidden("only admins can assign complaints")
	case OpStats:
		return apperrors.NewForbidden("only admins can view statistics")
	case OpFeedback:
		return apperrors.NewForbidden("only the submitter can give feedback")
	case OpRead, OpUpdateStatus:
		if err := requireComplaint(complaint); err != nil {
			return err
		}
		if complaint.AssigneeID == nil || *complaint.AssigneeID != actor.ID {
			return apperrors.NewForbidden("this complaint is not assigned to you")
		}
		return nil
	default:
		return apperrors.NewForbidden("unsupported operation")
	}
}

func userAccess(actor *domain.Actor, complaint *domain.Complaint, op Operation) error {
	switch op {
	case OpCreate:
		return nil
	case OpUpdateStatus, OpAssign:
		return apperrors.NewForbidden("users cannot change status or assignee")
	case OpStats:
		return apperrors.NewForbidden("only admins can view statistics")
	case OpRead, OpFeedback:
		if err := requireComplaint(complaint); err != nil {
			return err
		}
		if complaint.SubmitterID != actor.ID {
			return apperrors.NewForbidden("you can only access your own complaints")
		}
		return nil
	default:
		return apperrors.NewForbidden("unsupported operation")
	}
}

func requireComplaint(complaint *domain.Complaint) error {
	if complaint == nil {
		return apperrors.NewForbidden("complaint required")
	}
	return nil
}
