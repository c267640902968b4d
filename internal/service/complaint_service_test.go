package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/events"
	"github.com/spec-kit/complaint-portal/internal/query"
	"github.com/spec-kit/complaint-portal/internal/repository/inmem"
	"github.com/spec-kit/complaint-portal/internal/service"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

type fixture struct {
	svc        *service.ComplaintService
	complaints *inmem.ComplaintRepo
	users      *inmem.UserRepo
	published  []events.Event
	cache      *fakeCache
	now        time.Time

	admin *domain.Actor
	staff *domain.Actor
	alice *domain.Actor
	bob   *domain.Actor
}

type fakeCache struct {
	stats       *domain.ComplaintStats
	invalidated int64
	failing     bool
}

func (c *fakeCache) Get(context.Context) (*domain.ComplaintStats, int64, error) {
	if c.failing {
		return nil, 0, errors.New("redis unavailable")
	}
	return c.stats, c.invalidated, nil
}

func (c *fakeCache) Set(_ context.Context, generation int64, stats *domain.ComplaintStats) error {
	if c.failing {
		return errors.New("redis unavailable")
	}
	if generation == c.invalidated {
		c.stats = stats
	}
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidated++
	c.stats = nil
	if c.failing {
		return errors.New("redis unavailable")
	}
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), cache: &fakeCache{}}
	clock := func() time.Time { return f.now }

	f.users = inmem.NewUserRepo(clock)
	f.complaints = inmem.NewComplaintRepo(f.users, clock)
	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range []events.EventType{
		events.EventComplaintCreated,
		events.EventComplaintStatusChanged,
		events.EventComplaintAssigned,
		events.EventComplaintFeedbackSubmitted,
	} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}

	f.svc = service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: f.complaints,
		HistoryRepo:   f.complaints,
		UserRepo:      f.users,
		Dispatcher:    dispatcher,
		StatsCache:    f.cache,
		Clock:         clock,
	})

	f.admin = f.seedUser(t, "Ada Admin", "admin@example.com", domain.RoleAdmin)
	f.staff = f.seedUser(t, "Sam Staff", "staff@example.com", domain.RoleStaff)
	f.alice = f.seedUser(t, "Alice", "alice@example.com", domain.RoleUser)
	f.bob = f.seedUser(t, "Bob", "bob@example.com", domain.RoleUser)
	return f
}

func (f *fixture) seedUser(t *testing.T, name, email string, role domain.Role) *domain.Actor {
	t.Helper()
	user := &domain.User{Name: name, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.users.Create(context.Background(), user))
	return domain.ActorFromUser(user)
}

func (f *fixture) create(t *testing.T, actor *domain.Actor, title string, priority domain.ComplaintPriority) *domain.Complaint {
	t.Helper()
	c, err := f.svc.Create(context.Background(), actor, service.ComplaintCreateInput{
		Title:       title,
		Description: "The description is long enough.",
		Category:    string(domain.CategoryPlumbing),
		Priority:    string(priority),
	})
	require.NoError(t, err)
	return c
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestComplaintService_CreateComputesDeadlineAndJoinsSubmitter(t *testing.T) {
	f := newFixture(t)

	c := f.create(t, f.alice, "Leaking sink", domain.PriorityHigh)

	assert.Equal(t, domain.StatusOpen, c.Status)
	assert.Equal(t, f.alice.ID, c.SubmitterID)
	assert.Nil(t, c.AssigneeID)
	require.NotNil(t, c.Deadline)
	assert.Equal(t, f.now.Add(24*time.Hour), *c.Deadline)
	assert.Equal(t, 24*time.Hour, c.Deadline.Sub(c.CreatedAt))
	assert.Equal(t, "Alice", c.SubmitterName)
	assert.Equal(t, "alice@example.com", c.SubmitterEmail)

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventComplaintCreated, f.published[0].Type)
	assert.NotEmpty(t, f.published[0].ID)
	assert.Equal(t, int64(1), f.cache.invalidated)
}

func TestComplaintService_CreateDefaultsPriorityToMedium(t *testing.T) {
	f := newFixture(t)

	c := f.create(t, f.alice, "Broken lamp", "")

	assert.Equal(t, domain.PriorityMedium, c.Priority)
	assert.Equal(t, 72*time.Hour, c.Deadline.Sub(c.CreatedAt))
}

func TestComplaintService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	longLocation := make([]byte, 201)
	for i := range longLocation {
		longLocation[i] = 'x'
	}
	loc := string(longLocation)

	_, err := f.svc.Create(context.Background(), f.alice, service.ComplaintCreateInput{
		Title:       "Hey",
		Description: "short",
		Category:    "weather",
		Priority:    "Urgent",
		Location:    &loc,
	})

	requireCode(t, err, apperrors.CodeValidation)
	fields := apperrors.ToDomainError(err).Details["fields"].(map[string]any)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "priority")
	assert.Contains(t, fields, "location")
	assert.Empty(t, f.published)
}

func TestComplaintService_CreateAuthorization(t *testing.T) {
	f := newFixture(t)
	input := service.ComplaintCreateInput{Title: "Leaking sink", Description: "Water everywhere in kitchen", Category: "plumbing"}

	_, err := f.svc.Create(context.Background(), nil, input)
	requireCode(t, err, apperrors.CodeUnauthorized)

	_, err = f.svc.Create(context.Background(), f.staff, input)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Create(context.Background(), f.admin, input)
	assert.NoError(t, err)
}

func TestComplaintService_ListPaginatesWithinScope(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.create(t, f.alice, fmt.Sprintf("Complaint %02d", i), domain.PriorityLow)
		f.now = f.now.Add(time.Minute)
	}
	f.create(t, f.bob, "Bob's complaint", domain.PriorityLow)

	page, err := f.svc.List(context.Background(), f.alice, query.Filter{Page: 2, Limit: 5})

	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	assert.Equal(t, int64(25), page.TotalCount)
	assert.Equal(t, 5, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrev)
	assert.Equal(t, "Complaint 19", page.Items[0].Title)
	for _, c := range page.Items {
		assert.Equal(t, f.alice.ID, c.SubmitterID)
	}

	all, err := f.svc.List(context.Background(), f.admin, query.Filter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(26), all.TotalCount)
	assert.Equal(t, query.MaxLimit, all.Limit)
	assert.Len(t, all.Items, 26)
}

func TestComplaintService_ListFilters(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.alice, "Water leak upstairs", domain.PriorityHigh)
	f.create(t, f.alice, "Broken window", domain.PriorityLow)

	page, err := f.svc.List(context.Background(), f.admin, query.Filter{Search: "LEAK", Priority: "High"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Water leak upstairs", page.Items[0].Title)

	_, err = f.svc.List(context.Background(), f.admin, query.Filter{Status: "Closed"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestComplaintService_StaffSeesOnlyAssigned(t *testing.T) {
	f := newFixture(t)
	assigned := f.create(t, f.alice, "Assigned one", domain.PriorityMedium)
	other := f.create(t, f.alice, "Unassigned one", domain.PriorityMedium)
	_, err := f.svc.Assign(context.Background(), f.admin, assigned.ID, f.staff.ID)
	require.NoError(t, err)

	page, err := f.svc.List(context.Background(), f.staff, query.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, assigned.ID, page.Items[0].ID)

	_, err = f.svc.GetByID(context.Background(), f.staff, other.ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestComplaintService_GetByID(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)

	got, err := f.svc.GetByID(context.Background(), f.alice, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.svc.GetByID(context.Background(), f.bob, c.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.GetByID(context.Background(), f.admin, 999)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestComplaintService_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, f.alice, "Leaking sink", domain.PriorityHigh)

	c, err := f.svc.Assign(ctx, f.admin, c.ID, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, c.Status)
	require.NotNil(t, c.AssigneeName)
	assert.Equal(t, "Sam Staff", *c.AssigneeName)

	c, err = f.svc.UpdateStatus(ctx, f.staff, c.ID, domain.StatusInProgress, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, c.Status)

	notes := "  Replaced the washer  "
	c, err = f.svc.UpdateStatus(ctx, f.staff, c.ID, domain.StatusResolved, &notes)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, c.Status)
	require.NotNil(t, c.ResolutionNotes)
	assert.Equal(t, "Replaced the washer", *c.ResolutionNotes)

	_, err = f.svc.UpdateStatus(ctx, f.staff, c.ID, domain.StatusOpen, nil)
	requireCode(t, err, apperrors.CodeInvalidTransition)

	c, err = f.svc.SubmitFeedback(ctx, f.alice, c.ID, "Fixed quickly", 5)
	require.NoError(t, err)
	require.NotNil(t, c.FeedbackRating)
	assert.Equal(t, 5, *c.FeedbackRating)

	_, err = f.svc.SubmitFeedback(ctx, f.alice, c.ID, "Changed my mind", 1)
	requireCode(t, err, apperrors.CodeAlreadyRated)

	history, err := f.svc.History(ctx, f.alice, c.ID)
	require.NoError(t, err)
	actions := make([]domain.HistoryAction, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	assert.Equal(t, []domain.HistoryAction{
		domain.ActionCreated,
		domain.ActionAssigned,
		domain.ActionStatus,
		domain.ActionStatus,
		domain.ActionFeedback,
	}, actions)

	types := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		types = append(types, e.Type)
	}
	assert.Equal(t, []events.EventType{
		events.EventComplaintCreated,
		events.EventComplaintAssigned,
		events.EventComplaintStatusChanged,
		events.EventComplaintStatusChanged,
		events.EventComplaintFeedbackSubmitted,
	}, types)
}

func TestComplaintService_UpdateStatusRevalidatesAgainstStoredStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)
	_, err := f.svc.Assign(ctx, f.admin, c.ID, f.staff.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.staff, c.ID, domain.StatusInProgress, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admin, c.ID, domain.StatusInProgress, nil)
	requireCode(t, err, apperrors.CodeInvalidTransition)
}

func TestComplaintService_UpdateStatusRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)

	_, err := f.svc.UpdateStatus(ctx, f.alice, c.ID, domain.StatusInProgress, nil)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.UpdateStatus(ctx, f.admin, c.ID, domain.StatusAssigned, nil)
	requireCode(t, err, apperrors.CodeInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, f.admin, c.ID, "Closed", nil)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.UpdateStatus(ctx, f.admin, c.ID, "", nil)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.UpdateStatus(ctx, f.admin, 404, domain.StatusInProgress, nil)
	requireCode(t, err, apperrors.CodeNotFound)

	notes := "Waiting on parts"
	updated, err := f.svc.UpdateStatus(ctx, f.admin, c.ID, "", &notes)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, updated.Status)
	assert.Equal(t, "Waiting on parts", *updated.ResolutionNotes)
}

func TestComplaintService_AssignRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)

	_, err := f.svc.Assign(ctx, f.staff, c.ID, f.staff.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Assign(ctx, f.admin, c.ID, 999)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.Assign(ctx, f.admin, c.ID, f.bob.ID)
	requireCode(t, err, apperrors.CodeInvalidAssignee)

	_, err = f.svc.Assign(ctx, f.admin, c.ID, 0)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Assign(ctx, f.admin, c.ID, f.staff.ID)
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, f.admin, c.ID, f.staff.ID)
	requireCode(t, err, apperrors.CodeInvalidTransition)
}

func TestComplaintService_FeedbackRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)

	_, err := f.svc.SubmitFeedback(ctx, f.alice, c.ID, "Not fixed yet", 3)
	requireCode(t, err, apperrors.CodeInvalidState)

	_, err = f.svc.SubmitFeedback(ctx, f.bob, c.ID, "Not my complaint", 3)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.SubmitFeedback(ctx, f.alice, c.ID, "Terrible", 7)
	requireCode(t, err, apperrors.CodeValidation)
}

func TestComplaintService_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)
	f.complaints.FailWith(errors.New("connection reset by peer"))

	_, err := f.svc.GetByID(context.Background(), f.admin, c.ID)

	requireCode(t, err, apperrors.CodeInternal)
	assert.Equal(t, "internal server error", apperrors.ToDomainError(err).Message)
}

func TestComplaintService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.AvgRating)
	assert.Empty(t, empty.ByCategory)

	f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)
	c := f.create(t, f.alice, "Broken lamp", domain.PriorityLow)
	_, err = f.svc.Assign(ctx, f.admin, c.ID, f.staff.ID)
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Open)
	assert.Equal(t, int64(1), stats.Assigned)
	require.Len(t, stats.ByCategory, 1)
	assert.Equal(t, int64(2), stats.ByCategory[0].Count)

	_, err = f.svc.Stats(ctx, f.staff)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestComplaintService_StatsSurvivesCacheOutage(t *testing.T) {
	f := newFixture(t)
	f.cache.failing = true

	f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)
	stats, err := f.svc.Stats(context.Background(), f.admin)

	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
}

// midStatsMutation runs mutate once, after the store has produced its numbers.
type midStatsMutation struct {
	*inmem.ComplaintRepo
	mutate func()
}

func (r *midStatsMutation) Stats(ctx context.Context) (*domain.ComplaintStats, error) {
	stats, err := r.ComplaintRepo.Stats(ctx)
	if r.mutate != nil {
		mutate := r.mutate
		r.mutate = nil
		mutate()
	}
	return stats, err
}

func TestComplaintService_StatsNotCachedAcrossConcurrentMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, f.alice, "Leaking sink", domain.PriorityMedium)

	repo := &midStatsMutation{ComplaintRepo: f.complaints}
	svc := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: repo,
		HistoryRepo:   f.complaints,
		UserRepo:      f.users,
		StatsCache:    f.cache,
		Clock:         func() time.Time { return f.now },
	})
	repo.mutate = func() {
		_, err := svc.Assign(ctx, f.admin, c.ID, f.staff.ID)
		require.NoError(t, err)
	}

	stale, err := svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.Open)
	assert.Nil(t, f.cache.stats)

	fresh, err := svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	assert.Zero(t, fresh.Open)
	assert.Equal(t, int64(1), fresh.Assigned)
}
