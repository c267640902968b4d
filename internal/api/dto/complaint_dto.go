package dto

import (
	"time"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/query"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Priority    string  `json:"priority"`
	Location    *string `json:"location"`
	Attachments *string `json:"attachments"`
}

// UpdateStatusRequest payload. Either field may be omitted, not both.
type UpdateStatusRequest struct {
	Status          string  `json:"status"`
	ResolutionNotes *string `json:"resolution_notes"`
}

// AssignRequest payload.
type AssignRequest struct {
	StaffID int64 `json:"staff_id"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Feedback       string `json:"feedback"`
	FeedbackRating *int   `json:"feedback_rating"`
}

// ComplaintResponse is the wire form of a complaint.
type ComplaintResponse struct {
	ID              int64                    `json:"id"`
	UserID          int64                    `json:"user_id"`
	StaffID         *int64                   `json:"staff_id"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Category        domain.ComplaintCategory `json:"category"`
	Priority        domain.ComplaintPriority `json:"priority"`
	Location        *string                  `json:"location"`
	Status          domain.ComplaintStatus   `json:"status"`
	Attachments     *string                  `json:"attachments"`
	ResolutionNotes *string                  `json:"resolution_notes"`
	Feedback        *string                  `json:"feedback"`
	FeedbackRating  *int                     `json:"feedback_rating"`
	DeadlineAt      *time.Time               `json:"deadline_at"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	UserName        string                   `json:"user_name,omitempty"`
	UserEmail       string                   `json:"user_email,omitempty"`
	StaffName       *string                  `json:"staff_name,omitempty"`
	IsOverdue       bool                     `json:"is_overdue"`
}

// Pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// ComplaintEnvelope is the response body of single-complaint endpoints.
type ComplaintEnvelope struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message,omitempty"`
	Complaint *ComplaintResponse `json:"complaint,omitempty"`
}

// ComplaintListEnvelope is the response body of the list endpoint.
type ComplaintListEnvelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Complaints []ComplaintResponse `json:"complaints"`
	Pagination Pagination          `json:"pagination"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID        int64                `json:"id"`
	ActorID   int64                `json:"actor_id"`
	Action    domain.HistoryAction `json:"action"`
	OldValue  map[string]any       `json:"old_value,omitempty"`
	NewValue  map[string]any       `json:"new_value,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// CategoryCount is one row of the per-category breakdown.
type CategoryCount struct {
	Category domain.ComplaintCategory `json:"category"`
	Count    int64                    `json:"count"`
}

// StatsBody holds status totals.
type StatsBody struct {
	Total      int64           `json:"total"`
	Open       int64           `json:"open"`
	Assigned   int64           `json:"assigned"`
	InProgress int64           `json:"inProgress"`
	Resolved   int64           `json:"resolved"`
	ByCategory []CategoryCount `json:"byCategory"`
}

// StatsResponse is the admin overview body.
type StatsResponse struct {
	Success            bool      `json:"success"`
	Stats              StatsBody `json:"stats"`
	AvgResolutionHours float64   `json:"avgResolutionHours"`
	AvgRating          float64   `json:"avgRating"`
}

// NewComplaintResponse maps a complaint to its wire form. now drives is_overdue.
func NewComplaintResponse(c *domain.Complaint, now time.Time) ComplaintResponse {
	return ComplaintResponse{
		ID:              c.ID,
		UserID:          c.SubmitterID,
		StaffID:         c.AssigneeID,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Priority:        c.Priority,
		Location:        c.Location,
		Status:          c.Status,
		Attachments:     c.AttachmentURL,
		ResolutionNotes: c.ResolutionNotes,
		Feedback:        c.Feedback,
		FeedbackRating:  c.FeedbackRating,
		DeadlineAt:      c.Deadline,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		UserName:        c.SubmitterName,
		UserEmail:       c.SubmitterEmail,
		StaffName:       c.AssigneeName,
		IsOverdue:       c.IsOverdue(now),
	}
}

// NewComplaintPage maps a result page. complaints is always a non-nil slice.
func NewComplaintPage(page *query.Page, now time.Time) ComplaintListEnvelope {
	items := make([]ComplaintResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewComplaintResponse(&page.Items[i], now))
	}
	return ComplaintListEnvelope{
		Success:    true,
		Complaints: items,
		Pagination: Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.TotalCount,
			TotalPages: page.TotalPages,
			HasNext:    page.HasNext,
			HasPrev:    page.HasPrev,
		},
	}
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(entries []domain.ComplaintHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse{
			ID:        e.ID,
			ActorID:   e.ActorID,
			Action:    e.Action,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// NewStatsResponse maps the admin overview.
func NewStatsResponse(s *domain.ComplaintStats) StatsResponse {
	byCategory := make([]CategoryCount, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		byCategory = append(byCategory, CategoryCount{Category: c.Category, Count: c.Count})
	}
	return StatsResponse{
		Success: true,
		Stats: StatsBody{
			Total:      s.Total,
			Open:       s.Open,
			Assigned:   s.Assigned,
			InProgress: s.InProgress,
			Resolved:   s.Resolved,
			ByCategory: byCategory,
		},
		AvgResolutionHours: s.AvgResolutionHours,
		AvgRating:          s.AvgRating,
	}
}
