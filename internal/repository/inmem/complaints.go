package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/query"
	"github.com/spec-kit/complaint-portal/internal/repository"
)

var (
	_ repository.ComplaintRepository        = (*ComplaintRepo)(nil)
	_ repository.ComplaintHistoryRepository = (*ComplaintRepo)(nil)
	_ repository.UserRepository             = (*UserRepo)(nil)
)

// ComplaintRepo stores complaints and their history. It implements both
// repository.ComplaintRepository and repository.ComplaintHistoryRepository.
type ComplaintRepo struct {
	mu         sync.RWMutex
	now        func() time.Time
	users      *UserRepo
	nextID     int64
	nextHistID int64
	complaints map[int64]domain.Complaint
	history    map[int64][]domain.ComplaintHistory
	failWith   error
}

func NewComplaintRepo(users *UserRepo, now func() time.Time) *ComplaintRepo {
	if now == nil {
		now = time.Now
	}
	r := &ComplaintRepo{
		now:        now,
		users:      users,
		complaints: map[int64]domain.Complaint{},
		history:    map[int64][]domain.ComplaintHistory{},
	}
	if users != nil {
		users.OnDelete(r.userDeleted)
	}
	return r
}

// userDeleted mirrors the foreign keys: submitted complaints and their history cascade,
// assignments fall back to no assignee.
func (r *ComplaintRepo) userDeleted(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.complaints {
		switch {
		case c.SubmitterID == userID:
			delete(r.complaints, id)
			delete(r.history, id)
		case c.AssigneeID != nil && *c.AssigneeID == userID:
			c.AssigneeID = nil
			r.complaints[id] = c
		}
	}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (r *ComplaintRepo) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *ComplaintRepo) Create(_ context.Context, complaint *domain.Complaint, entry *domain.ComplaintHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	r.nextID++
	complaint.ID = r.nextID
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = r.now()
	}
	complaint.UpdatedAt = complaint.CreatedAt
	r.complaints[complaint.ID] = clone(*complaint)
	if entry != nil {
		entry.ComplaintID = complaint.ID
		r.appendHistory(entry)
	}
	return nil
}

func (r *ComplaintRepo) GetByID(_ context.Context, id int64) (*domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	complaint, ok := r.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := r.joined(complaint)
	return &out, nil
}

func (r *ComplaintRepo) List(_ context.Context, criteria query.Criteria) ([]domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	matched := r.matching(criteria)
	sort.Slice(matched, func(i, j int) bool { return query.Less(&matched[i], &matched[j]) })

	offset := criteria.Offset()
	if offset >= len(matched) {
		return []domain.Complaint{}, nil
	}
	end := offset + query.ClampLimit(criteria.Limit)
	if end > len(matched) {
		end = len(matched)
	}
	page := matched[offset:end]
	for i := range page {
		page[i] = r.joined(page[i])
	}
	return page, nil
}

func (r *ComplaintRepo) Count(_ context.Context, criteria query.Criteria) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	return int64(len(r.matching(criteria))), nil
}

func (r *ComplaintRepo) Update(_ context.Context, id int64, patch domain.ComplaintPatch, entry *domain.ComplaintHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if patch.Empty() {
		return nil
	}

	complaint, ok := r.complaints[id]
	if !ok {
		return pgx.ErrNoRows
	}
	patch.Apply(&complaint)
	complaint.UpdatedAt = r.now()
	r.complaints[id] = clone(complaint)
	if entry != nil {
		entry.ComplaintID = id
		r.appendHistory(entry)
	}
	return nil
}

func (r *ComplaintRepo) Stats(_ context.Context) (*domain.ComplaintStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	stats := &domain.ComplaintStats{ByCategory: []domain.CategoryCount{}}
	byCategory := map[domain.ComplaintCategory]int64{}
	var resolutionHours, ratingSum float64
	var rated int64

	for _, c := range r.complaints {
		stats.Total++
		byCategory[c.Category]++
		switch c.Status {
		case domain.StatusOpen:
			stats.Open++
		case domain.StatusAssigned:
			stats.Assigned++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusResolved:
			stats.Resolved++
			resolutionHours += c.UpdatedAt.Sub(c.CreatedAt).Hours()
		}
		if c.FeedbackRating != nil {
			rated++
			ratingSum += float64(*c.FeedbackRating)
		}
	}
	for category, count := range byCategory {
		stats.ByCategory = append(stats.ByCategory, domain.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		return stats.ByCategory[i].Category < stats.ByCategory[j].Category
	})
	if stats.Resolved > 0 {
		stats.AvgResolutionHours = resolutionHours / float64(stats.Resolved)
	}
	if rated > 0 {
		stats.AvgRating = ratingSum / float64(rated)
	}
	return stats, nil
}

func (r *ComplaintRepo) ListByComplaint(_ context.Context, complaintID int64) ([]domain.ComplaintHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	entries := r.history[complaintID]
	out := make([]domain.ComplaintHistory, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *ComplaintRepo) appendHistory(entry *domain.ComplaintHistory) {
	r.nextHistID++
	entry.ID = r.nextHistID
	entry.CreatedAt = r.now()
	r.history[entry.ComplaintID] = append(r.history[entry.ComplaintID], *entry)
}

func (r *ComplaintRepo) matching(criteria query.Criteria) []domain.Complaint {
	matched := []domain.Complaint{}
	for _, c := range r.complaints {
		if criteria.Matches(&c) {
			matched = append(matched, clone(c))
		}
	}
	return matched
}

func (r *ComplaintRepo) joined(c domain.Complaint) domain.Complaint {
	c = clone(c)
	if r.users == nil {
		return c
	}
	if name, email, ok := r.users.name(c.SubmitterID); ok {
		c.SubmitterName = name
		c.SubmitterEmail = email
	}
	if c.AssigneeID != nil {
		if name, _, ok := r.users.name(*c.AssigneeID); ok {
			c.AssigneeName = &name
		}
	}
	return c
}

func clone(c domain.Complaint) domain.Complaint {
	c.AssigneeID = clonePtr(c.AssigneeID)
	c.Location = clonePtr(c.Location)
	c.AttachmentURL = clonePtr(c.AttachmentURL)
	c.ResolutionNotes = clonePtr(c.ResolutionNotes)
	c.Feedback = clonePtr(c.Feedback)
	c.FeedbackRating = clonePtr(c.FeedbackRating)
	c.Deadline = clonePtr(c.Deadline)
	c.AssigneeName = clonePtr(c.AssigneeName)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
