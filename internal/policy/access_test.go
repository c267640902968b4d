package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/policy"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

func ptr[T any](v T) *T { return &v }

func TestCanAccess(t *testing.T) {
	admin := &domain.Actor{ID: 1, Role: domain.RoleAdmin}
	staff := &domain.Actor{ID: 2, Role: domain.RoleStaff}
	otherStaff := &domain.Actor{ID: 3, Role: domain.RoleStaff}
	user := &domain.Actor{ID: 4, Role: domain.RoleUser}
	otherUser := &domain.Actor{ID: 5, Role: domain.RoleUser}

	assigned := &domain.Complaint{ID: 10, SubmitterID: 4, AssigneeID: ptr(int64(2)), Status: domain.StatusAssigned}
	open := &domain.Complaint{ID: 11, SubmitterID: 4, Status: domain.StatusOpen}

	tests := []struct {
		name      string
		actor     *domain.Actor
		complaint *domain.Complaint
		op        policy.Operation
		wantCode  string
	}{
		{"admin reads any", admin, assigned, policy.OpRead, ""},
		{"admin updates any", admin, open, policy.OpUpdateStatus, ""},
		{"admin assigns", admin, open, policy.OpAssign, ""},
		{"admin stats", admin, nil, policy.OpStats, ""},
		{"admin creates", admin, nil, policy.OpCreate, ""},
		{"admin cannot rate others' complaint", admin, assigned, policy.OpFeedback, apperrors.CodeForbidden},

		{"staff reads assigned", staff, assigned, policy.OpRead, ""},
		{"staff updates assigned", staff, assigned, policy.OpUpdateStatus, ""},
		{"staff reads unassigned", staff, open, policy.OpRead, apperrors.CodeForbidden},
		{"staff reads other staff's", otherStaff, assigned, policy.OpRead, apperrors.CodeForbidden},
		{"staff updates other staff's", otherStaff, assigned, policy.OpUpdateStatus, apperrors.CodeForbidden},
		{"staff cannot create", staff, nil, policy.OpCreate, apperrors.CodeForbidden},
		{"staff cannot assign", staff, assigned, policy.OpAssign, apperrors.CodeForbidden},
		{"staff cannot stats", staff, nil, policy.OpStats, apperrors.CodeForbidden},

		{"user reads own", user, assigned, policy.OpRead, ""},
		{"user rates own", user, assigned, policy.OpFeedback, ""},
		{"user creates", user, nil, policy.OpCreate, ""},
		{"user reads other's", otherUser, assigned, policy.OpRead, apperrors.CodeForbidden},
		{"user rates other's", otherUser, assigned, policy.OpFeedback, apperrors.CodeForbidden},
		{"user cannot set status", user, assigned, policy.OpUpdateStatus, apperrors.CodeForbidden},
		{"user cannot assign", user, open, policy.OpAssign, apperrors.CodeForbidden},

		{"no actor", nil, open, policy.OpRead, apperrors.CodeUnauthorized},
		{"unknown role", &domain.Actor{ID: 2, Role: "Administrator"}, assigned, policy.OpRead, apperrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.CanAccess(tt.actor, tt.complaint, tt.op)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestCanAccess_RoleIsSoleDeterminant(t *testing.T) {
	// Staff whose name/email look administrative still only see assigned work.
	staff := &domain.Actor{ID: 7, Role: domain.RoleStaff, Name: "Admin Team", Email: "admin@example.com"}
	for _, complaint := range []*domain.Complaint{
		{ID: 1, SubmitterID: 7, Status: domain.StatusOpen},
		{ID: 2, SubmitterID: 1, AssigneeID: ptr(int64(8)), Status: domain.StatusInProgress},
	} {
		assert.False(t, policy.Allowed(staff, complaint, policy.OpRead))
	}
}
