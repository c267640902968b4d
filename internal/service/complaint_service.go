package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/events"
	"github.com/spec-kit/complaint-portal/internal/lifecycle"
	"github.com/spec-kit/complaint-portal/internal/policy"
	"github.com/spec-kit/complaint-portal/internal/query"
	"github.com/spec-kit/complaint-portal/internal/repository"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

const (
	titleMinLen       = 5
	titleMaxLen       = 200
	descriptionMinLen = 10
	locationMaxLen    = 200
	attachmentMaxLen  = 500
)

// StatsCache caches the admin overview between mutations. Get reports the generation it
// observed; Set must drop the write when Invalidate ran after that generation was read.
type StatsCache interface {
	Get(ctx context.Context) (*domain.ComplaintStats, int64, error)
	Set(ctx context.Context, generation int64, stats *domain.ComplaintStats) error
	Invalidate(ctx context.Context) error
}

// ComplaintService coordinates complaint workflows.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	history    repository.ComplaintHistoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	cache      StatsCache
	logger     *zap.Logger
	now        func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	HistoryRepo   repository.ComplaintHistoryRepository
	UserRepo      repository.UserRepository
	Dispatcher    events.Dispatcher
	StatsCache    StatsCache
	Logger        *zap.Logger
	Clock         func() time.Time
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	Title         string
	Description   string
	Category      string
	Priority      string
	Location      *string
	AttachmentURL *string
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	s := &ComplaintService{
		complaints: deps.ComplaintRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.StatsCache,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create files a new Open complaint for the actor.
func (s *ComplaintService) Create(ctx context.Context, actor *domain.Actor, input ComplaintCreateInput) (*domain.Complaint, error) {
	if err := policy.CanAccess(actor, nil, policy.OpCreate); err != nil {
		return nil, err
	}
	complaint, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	// Postgres keeps microseconds; truncating keeps deadline == createdAt + window after a round trip.
	createdAt := s.now().UTC().Truncate(time.Microsecond)
	deadline := lifecycle.ComputeDeadline(complaint.Priority, createdAt)
	complaint.SubmitterID = actor.ID
	complaint.Status = domain.StatusOpen
	complaint.CreatedAt = createdAt
	complaint.Deadline = &deadline

	entry := &domain.ComplaintHistory{
		ActorID:  actor.ID,
		Action:   domain.ActionCreated,
		NewValue: map[string]any{"status": domain.StatusOpen, "priority": complaint.Priority},
	}
	if err := s.complaints.Create(ctx, complaint, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.afterMutation(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       eventActor(actor),
		Payload: events.ComplaintCreatedPayload{
			Category: complaint.Category,
			Priority: complaint.Priority,
			Title:    complaint.Title,
			Deadline: complaint.Deadline,
		},
	})
	return s.load(ctx, complaint.ID)
}

// List returns the actor's visible complaints matching filter.
func (s *ComplaintService) List(ctx context.Context, actor *domain.Actor, filter query.Filter) (*query.Page, error) {
	criteria, err := query.Build(actor, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.complaints.List(ctx, criteria)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.complaints.Count(ctx, criteria)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	page := query.NewPage(items, total, criteria)
	return &page, nil
}

// GetByID fetches a complaint the actor may read.
func (s *ComplaintService) GetByID(ctx context.Context, actor *domain.Actor, id int64) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccess(actor, complaint, policy.OpRead); err != nil {
		return nil, err
	}
	return complaint, nil
}

// History lists audit entries of a complaint the actor may read.
func (s *ComplaintService) History(ctx context.Context, actor *domain.Actor, id int64) ([]domain.ComplaintHistory, error) {
	if _, err := s.GetByID(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.ComplaintHistory{}, nil
	}
	entries, err := s.history.ListByComplaint(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if entries == nil {
		entries = []domain.ComplaintHistory{}
	}
	return entries, nil
}

// UpdateStatus moves a complaint along the lifecycle and/or records resolution notes.
// The transition is validated against a fresh read of the stored status.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *domain.Actor, id int64, newStatus domain.ComplaintStatus, notes *string) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	hasNotes := notes != nil && strings.TrimSpace(*notes) != ""
	if newStatus == "" && !hasNotes {
		return nil, apperrors.NewFieldError("status", "status or resolution_notes is required")
	}

	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccess(actor, complaint, policy.OpUpdateStatus); err != nil {
		return nil, err
	}

	var patch domain.ComplaintPatch
	if newStatus != "" {
		patch, err = lifecycle.Transition(complaint, newStatus, notes)
		if err != nil {
			return nil, err
		}
	} else {
		trimmed := strings.TrimSpace(*notes)
		patch.ResolutionNotes = &trimmed
	}

	entry := &domain.ComplaintHistory{
		ActorID:  actor.ID,
		Action:   domain.ActionStatus,
		OldValue: map[string]any{"status": complaint.Status},
		NewValue: map[string]any{"status": complaint.Status},
	}
	if patch.Status != nil {
		entry.NewValue["status"] = *patch.Status
	}
	if patch.ResolutionNotes != nil {
		entry.NewValue["resolution_notes"] = *patch.ResolutionNotes
	}
	if err := s.complaints.Update(ctx, id, patch, entry); err != nil {
		return nil, s.mapStoreError(err, id)
	}

	if patch.Status != nil {
		s.afterMutation(ctx, events.Event{
			Type:        events.EventComplaintStatusChanged,
			ComplaintID: id,
			Actor:       eventActor(actor),
			Payload: events.ComplaintStatusChangedPayload{
				SubmitterID: complaint.SubmitterID,
				OldStatus:   complaint.Status,
				NewStatus:   *patch.Status,
				Notes:       patch.ResolutionNotes,
			},
		})
	} else {
		s.invalidateStats(ctx)
	}
	return s.load(ctx, id)
}

// Assign hands an Open complaint to a staff member, moving it to Assigned.
func (s *ComplaintService) Assign(ctx context.Context, actor *domain.Actor, id, assigneeID int64) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if assigneeID <= 0 {
		return nil, apperrors.NewFieldError("staff_id", "invalid staff ID")
	}

	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccess(actor, complaint, policy.OpAssign); err != nil {
		return nil, err
	}

	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if assignee.Role != domain.RoleStaff {
		return nil, apperrors.NewInvalidAssignee("assignee must be a staff member", map[string]any{
			"staff_id": assigneeID,
			"role":     assignee.Role,
		})
	}

	patch, err := lifecycle.Assign(complaint, assignee.ID)
	if err != nil {
		return nil, err
	}
	entry := &domain.ComplaintHistory{
		ActorID:  actor.ID,
		Action:   domain.ActionAssigned,
		OldValue: map[string]any{"status": complaint.Status, "assignee_id": complaint.AssigneeID},
		NewValue: map[string]any{"status": *patch.Status, "assignee_id": assignee.ID},
	}
	if err := s.complaints.Update(ctx, id, patch, entry); err != nil {
		return nil, s.mapStoreError(err, id)
	}

	s.afterMutation(ctx, events.Event{
		Type:        events.EventComplaintAssigned,
		ComplaintID: id,
		Actor:       eventActor(actor),
		Payload:     events.ComplaintAssignedPayload{AssigneeID: assignee.ID},
	})
	return s.load(ctx, id)
}

// SubmitFeedback records the submitter's one-time rating of a resolved complaint.
func (s *ComplaintService) SubmitFeedback(ctx context.Context, actor *domain.Actor, id int64, feedback string, rating int) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccess(actor, complaint, policy.OpFeedback); err != nil {
		return nil, err
	}

	patch, err := lifecycle.SubmitFeedback(complaint, feedback, rating)
	if err != nil {
		return nil, err
	}
	entry := &domain.ComplaintHistory{
		ActorID:  actor.ID,
		Action:   domain.ActionFeedback,
		NewValue: map[string]any{"feedback_rating": *patch.FeedbackRating},
	}
	if err := s.complaints.Update(ctx, id, patch, entry); err != nil {
		return nil, s.mapStoreError(err, id)
	}

	s.afterMutation(ctx, events.Event{
		Type:        events.EventComplaintFeedbackSubmitted,
		ComplaintID: id,
		Actor:       eventActor(actor),
		Payload:     events.ComplaintFeedbackPayload{Rating: *patch.FeedbackRating},
	})
	return s.load(ctx, id)
}

// Stats returns the admin overview. Empty stores yield zero values.
func (s *ComplaintService) Stats(ctx context.Context, actor *domain.Actor) (*domain.ComplaintStats, error) {
	if err := policy.CanAccess(actor, nil, policy.OpStats); err != nil {
		return nil, err
	}
	cacheable := false
	var generation int64
	if s.cache != nil {
		cached, gen, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.logger.Warn("stats cache read failed", zap.Error(err))
		case cached != nil:
			return cached, nil
		default:
			cacheable, generation = true, gen
		}
	}

	stats, err := s.complaints.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.ByCategory == nil {
		stats.ByCategory = []domain.CategoryCount{}
	}
	if cacheable {
		if err := s.cache.Set(ctx, generation, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *ComplaintService) load(ctx context.Context, id int64) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, id)
	}
	return complaint, nil
}

func (s *ComplaintService) mapStoreError(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
	}
	return apperrors.MapError(err)
}

func (s *ComplaintService) afterMutation(ctx context.Context, event events.Event) {
	s.invalidateStats(ctx)
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *ComplaintService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func validateCreate(input ComplaintCreateInput) (*domain.Complaint, error) {
	fields := apperrors.FieldErrors{}

	title := strings.TrimSpace(input.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		fields.Add("title", "title is required")
	case n < titleMinLen || n > titleMaxLen:
		fields.Add("title", "title must be between 5 and 200 characters")
	}

	description := strings.TrimSpace(input.Description)
	switch n := utf8.RuneCountInString(description); {
	case n == 0:
		fields.Add("description", "description is required")
	case n < descriptionMinLen:
		fields.Add("description", "description must be at least 10 characters long")
	}

	category := domain.ComplaintCategory(strings.TrimSpace(input.Category))
	if category == "" {
		fields.Add("category", "category is required")
	} else if !category.Valid() {
		fields.Add("category", "invalid category selected")
	}

	priority := domain.ComplaintPriority(strings.TrimSpace(input.Priority))
	if priority == "" {
		priority = domain.PriorityMedium
	} else if !priority.Valid() {
		fields.Add("priority", "invalid priority selected")
	}

	location := trimmedOrNil(input.Location)
	if location != nil && utf8.RuneCountInString(*location) > locationMaxLen {
		fields.Add("location", "location cannot exceed 200 characters")
	}
	attachment := trimmedOrNil(input.AttachmentURL)
	if attachment != nil && len(*attachment) > attachmentMaxLen {
		fields.Add("attachments", "attachment URL is too long")
	}

	if err := fields.Err(); err != nil {
		return nil, err
	}
	return &domain.Complaint{
		Title:         title,
		Description:   description,
		Category:      category,
		Priority:      priority,
		Location:      location,
		AttachmentURL: attachment,
	}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func eventActor(actor *domain.Actor) events.Actor {
	return events.Actor{ID: actor.ID, Role: actor.Role}
}
