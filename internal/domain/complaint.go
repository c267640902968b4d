package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusOpen       ComplaintStatus = "Open"
	StatusAssigned   ComplaintStatus = "Assigned"
	StatusInProgress ComplaintStatus = "In-progress"
	StatusResolved   ComplaintStatus = "Resolved"
)

// Statuses lists every status in lifecycle order.
var Statuses = []ComplaintStatus{StatusOpen, StatusAssigned, StatusInProgress, StatusResolved}

// Valid reports whether s is one of the known statuses.
func (s ComplaintStatus) Valid() bool {
	for _, candidate := range Statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ComplaintPriority enumerates urgency levels.
type ComplaintPriority string

const (
	PriorityLow      ComplaintPriority = "Low"
	PriorityMedium   ComplaintPriority = "Medium"
	PriorityHigh     ComplaintPriority = "High"
	PriorityCritical ComplaintPriority = "Critical"
)

// Priorities lists the accepted priorities.
var Priorities = []ComplaintPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p ComplaintPriority) Valid() bool {
	for _, candidate := range Priorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ComplaintCategory classifies the facility area a complaint concerns.
type ComplaintCategory string

const (
	CategoryPlumbing   ComplaintCategory = "plumbing"
	CategoryElectrical ComplaintCategory = "electrical"
	CategoryFacility   ComplaintCategory = "facility"
	CategoryCleaning   ComplaintCategory = "cleaning"
	CategorySecurity   ComplaintCategory = "security"
	CategoryOther      ComplaintCategory = "other"
)

// Categories lists the accepted categories.
var Categories = []ComplaintCategory{
	CategoryPlumbing,
	CategoryElectrical,
	CategoryFacility,
	CategoryCleaning,
	CategorySecurity,
	CategoryOther,
}

func (c ComplaintCategory) Valid() bool {
	for _, candidate := range Categories {
		if candidate == c {
			return true
		}
	}
	return false
}

// Complaint is the aggregate for facility complaints.
type Complaint struct {
	ID              int64
	SubmitterID     int64
	AssigneeID      *int64
	Title           string
	Description     string
	Category        ComplaintCategory
	Priority        ComplaintPriority
	Location        *string
	Status          ComplaintStatus
	AttachmentURL   *string
	ResolutionNotes *string
	Feedback        *string
	FeedbackRating  *int
	Deadline        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined from users on reads.
	SubmitterName  string
	SubmitterEmail string
	AssigneeName   *string
}

// IsOverdue reports whether an unresolved complaint is past its deadline.
func (c *Complaint) IsOverdue(now time.Time) bool {
	if c.Deadline == nil || c.Status == StatusResolved {
		return false
	}
	return now.After(*c.Deadline)
}

// HasFeedback reports whether feedback was already recorded.
func (c *Complaint) HasFeedback() bool {
	return c.Feedback != nil || c.FeedbackRating != nil
}

// ComplaintPatch lists the fields a single mutation changes. Nil fields are untouched.
type ComplaintPatch struct {
	Status          *ComplaintStatus
	AssigneeID      *int64
	ResolutionNotes *string
	Feedback        *string
	FeedbackRating  *int
}

// Empty reports whether the patch changes nothing.
func (p ComplaintPatch) Empty() bool {
	return p.Status == nil && p.AssigneeID == nil && p.ResolutionNotes == nil &&
		p.Feedback == nil && p.FeedbackRating == nil
}

// Apply copies the patch onto c.
func (p ComplaintPatch) Apply(c *Complaint) {
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.AssigneeID != nil {
		id := *p.AssigneeID
		c.AssigneeID = &id
	}
	if p.ResolutionNotes != nil {
		notes := *p.ResolutionNotes
		c.ResolutionNotes = &notes
	}
	if p.Feedback != nil {
		feedback := *p.Feedback
		c.Feedback = &feedback
	}
	if p.FeedbackRating != nil {
		rating := *p.FeedbackRating
		c.FeedbackRating = &rating
	}
}

// CategoryCount is one row of the per-category breakdown.
type CategoryCount struct {
	Category ComplaintCategory
	Count    int64
}

// ComplaintStats aggregates complaint counts for the admin overview.
type ComplaintStats struct {
	Total              int64
	Open               int64
	Assigned           int64
	InProgress         int64
	Resolved           int64
	ByCategory         []CategoryCount
	AvgResolutionHours float64
	AvgRating          float64
}
