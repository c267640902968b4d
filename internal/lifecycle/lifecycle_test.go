package lifecycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/lifecycle"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

func TestComputeDeadline(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		priority domain.ComplaintPriority
		want     time.Duration
	}{
		{domain.PriorityLow, 168 * time.Hour},
		{domain.PriorityMedium, 72 * time.Hour},
		{domain.PriorityHigh, 24 * time.Hour},
		{domain.PriorityCritical, 4 * time.Hour},
		{"Urgent", 72 * time.Hour},
		{"", 72 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			got := lifecycle.ComputeDeadline(tt.priority, created)
			assert.True(t, got.Equal(created.Add(tt.want)))
			// deterministic for identical inputs
			assert.Equal(t, got, lifecycle.ComputeDeadline(tt.priority, created))
		})
	}
}

func TestTransitionTable(t *testing.T) {
	all := domain.Statuses
	legal := map[[2]domain.ComplaintStatus]bool{
		{domain.StatusOpen, domain.StatusAssigned}:       true,
		{domain.StatusAssigned, domain.StatusInProgress}: true,
		{domain.StatusInProgress, domain.StatusResolved}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]domain.ComplaintStatus{from, to}], lifecycle.IsValidTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.Empty(t, lifecycle.NextStatuses(domain.StatusResolved))
}

func TestReachableFromOpen(t *testing.T) {
	seen := map[domain.ComplaintStatus]bool{domain.StatusOpen: true}
	queue := []domain.ComplaintStatus{domain.StatusOpen}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range lifecycle.NextStatuses(cur) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	assert.Len(t, seen, 4)
	for _, s := range domain.Statuses {
		assert.True(t, seen[s])
	}
}

func TestTransition(t *testing.T) {
	t.Run("skipping a step fails", func(t *testing.T) {
		c := &domain.Complaint{Status: domain.StatusOpen}
		_, err := lifecycle.Transition(c, domain.StatusResolved, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))

		de := apperrors.ToDomainError(err)
		assert.Equal(t, domain.StatusOpen, de.Details["current"])
		assert.Equal(t, []domain.ComplaintStatus{domain.StatusAssigned}, de.Details["allowed"])
		assert.Contains(t, de.Message, "Valid next status: Assigned")
	})

	t.Run("open to assigned needs assign", func(t *testing.T) {
		c := &domain.Complaint{Status: domain.StatusOpen}
		_, err := lifecycle.Transition(c, domain.StatusAssigned, nil)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))
	})

	t.Run("resolved is terminal", func(t *testing.T) {
		c := &domain.Complaint{Status: domain.StatusResolved}
		for _, s := range domain.Statuses {
			_, err := lifecycle.Transition(c, s, nil)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))
		}
		_, err := lifecycle.Transition(c, domain.StatusInProgress, nil)
		assert.Contains(t, err.Error(), "Valid next status: None")
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		c := &domain.Complaint{Status: domain.StatusAssigned}
		_, err := lifecycle.Transition(c, "Pending", nil)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	})

	t.Run("success carries notes and only status", func(t *testing.T) {
		c := &domain.Complaint{Status: domain.StatusInProgress}
		notes := "  replaced the valve  "
		patch, err := lifecycle.Transition(c, domain.StatusResolved, &notes)
		require.NoError(t, err)
		require.NotNil(t, patch.Status)
		assert.Equal(t, domain.StatusResolved, *patch.Status)
		require.NotNil(t, patch.ResolutionNotes)
		assert.Equal(t, "replaced the valve", *patch.ResolutionNotes)
		assert.Nil(t, patch.AssigneeID)
		assert.Nil(t, patch.Feedback)
	})
}

func TestAssign(t *testing.T) {
	c := &domain.Complaint{Status: domain.StatusOpen}
	patch, err := lifecycle.Assign(c, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, *patch.Status)
	assert.Equal(t, int64(42), *patch.AssigneeID)

	for _, s := range []domain.ComplaintStatus{domain.StatusAssigned, domain.StatusInProgress, domain.StatusResolved} {
		_, err := lifecycle.Assign(&domain.Complaint{Status: s}, 42)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition), "status %s", s)
	}
}

func TestSubmitFeedback(t *testing.T) {
	resolved := func() *domain.Complaint { return &domain.Complaint{Status: domain.StatusResolved} }

	t.Run("accepts first feedback", func(t *testing.T) {
		patch, err := lifecycle.SubmitFeedback(resolved(), "quick fix, thanks", 5)
		require.NoError(t, err)
		assert.Equal(t, "quick fix, thanks", *patch.Feedback)
		assert.Equal(t, 5, *patch.FeedbackRating)
	})

	t.Run("not resolved", func(t *testing.T) {
		_, err := lifecycle.SubmitFeedback(&domain.Complaint{Status: domain.StatusInProgress}, "still broken", 2)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidState))
	})

	t.Run("second submission rejected", func(t *testing.T) {
		c := resolved()
		patch, err := lifecycle.SubmitFeedback(c, "great work", 4)
		require.NoError(t, err)
		patch.Apply(c)
		_, err = lifecycle.SubmitFeedback(c, "changed my mind", 1)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyRated))
		assert.Equal(t, 4, *c.FeedbackRating)
	})

	t.Run("rating out of range", func(t *testing.T) {
		for _, rating := range []int{0, 6, -1} {
			_, err := lifecycle.SubmitFeedback(resolved(), "fine work", rating)
			require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
			fields := apperrors.ToDomainError(err).Details["fields"].(map[string]any)
			assert.Contains(t, fields, "feedback_rating")
		}
	})
}
