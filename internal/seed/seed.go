// Package seed fills an empty store with demo accounts and complaints in every lifecycle stage.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/repository"
	"github.com/spec-kit/complaint-portal/internal/service"
)

// ErrNotEmpty is returned when the store already holds accounts.
var ErrNotEmpty = errors.New("store already contains users")

// Account is a demo login.
type Account struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	Department string
	Contact    string
}

// Complaint is a demo complaint and how far through the lifecycle it should be driven.
type Complaint struct {
	Submitter   string
	Title       string
	Description string
	Category    domain.ComplaintCategory
	Priority    domain.ComplaintPriority
	Location    string
	Stage       domain.ComplaintStatus
	Assignee    string
	Resolution  string
	Feedback    string
	Rating      int
}

// Dataset is everything a seed run writes.
type Dataset struct {
	Accounts   []Account
	Complaints []Complaint
}

// Summary counts what a run created.
type Summary struct {
	Users      int
	Complaints int
	ByStatus   map[domain.ComplaintStatus]int
}

// Seeder writes a Dataset through the complaint service so history rows and deadlines are real.
type Seeder struct {
	users      repository.UserRepository
	complaints *service.ComplaintService
	bcryptCost int
	logger     *zap.Logger
}

// New constructs a Seeder.
func New(users repository.UserRepository, complaints *service.ComplaintService, bcryptCost int, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, complaints: complaints, bcryptCost: bcryptCost, logger: logger}
}

// Run refuses to touch a store that already has users; empty it first.
func (s *Seeder) Run(ctx context.Context, data Dataset) (*Summary, error) {
	existing, err := s.users.List(ctx, repository.UserFilter{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("check existing users: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrNotEmpty
	}

	actors := make(map[string]*domain.Actor, len(data.Accounts))
	for _, a := range data.Accounts {
		actor, err := s.createAccount(ctx, a)
		if err != nil {
			return nil, err
		}
		actors[actor.Email] = actor
	}

	admin := firstAdmin(actors)
	summary := &Summary{Users: len(actors), ByStatus: map[domain.ComplaintStatus]int{}}
	for i, c := range data.Complaints {
		complaint, err := s.createComplaint(ctx, actors, admin, c)
		if err != nil {
			return nil, fmt.Errorf("complaint %d (%q): %w", i, c.Title, err)
		}
		summary.Complaints++
		summary.ByStatus[complaint.Status]++
	}

	s.logger.Info("seed complete",
		zap.Int("users", summary.Users),
		zap.Int("complaints", summary.Complaints),
	)
	return summary, nil
}

func (s *Seeder) createAccount(ctx context.Context, a Account) (*domain.Actor, error) {
	hash, err := auth.HashPassword(a.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password for %s: %w", a.Email, err)
	}
	user := &domain.User{
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: hash,
		Role:         a.Role,
		Department:   optional(a.Department),
		ContactInfo:  optional(a.Contact),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", a.Email, err)
	}
	return domain.ActorFromUser(user), nil
}

func (s *Seeder) createComplaint(ctx context.Context, actors map[string]*domain.Actor, admin *domain.Actor, c Complaint) (*domain.Complaint, error) {
	submitter, ok := actors[c.Submitter]
	if !ok {
		return nil, fmt.Errorf("unknown submitter %s", c.Submitter)
	}
	complaint, err := s.complaints.Create(ctx, submitter, service.ComplaintCreateInput{
		Title:       c.Title,
		Description: c.Description,
		Category:    string(c.Category),
		Priority:    string(c.Priority),
		Location:    optional(c.Location),
	})
	if err != nil {
		return nil, err
	}
	if c.Stage == "" || c.Stage == domain.StatusOpen {
		return complaint, nil
	}

	staff, ok := actors[c.Assignee]
	if !ok {
		return nil, fmt.Errorf("unknown assignee %s", c.Assignee)
	}
	if admin == nil {
		return nil, errors.New("dataset has no admin to assign complaints")
	}
	if complaint, err = s.complaints.Assign(ctx, admin, complaint.ID, staff.ID); err != nil {
		return nil, err
	}
	if c.Stage == domain.StatusAssigned {
		return complaint, nil
	}

	if complaint, err = s.complaints.UpdateStatus(ctx, staff, complaint.ID, domain.StatusInProgress, nil); err != nil {
		return nil, err
	}
	if c.Stage == domain.StatusInProgress {
		return complaint, nil
	}

	if complaint, err = s.complaints.UpdateStatus(ctx, staff, complaint.ID, domain.StatusResolved, optional(c.Resolution)); err != nil {
		return nil, err
	}
	if c.Rating == 0 {
		return complaint, nil
	}
	return s.complaints.SubmitFeedback(ctx, submitter, complaint.ID, c.Feedback, c.Rating)
}

func firstAdmin(actors map[string]*domain.Actor) *domain.Actor {
	var admin *domain.Actor
	for _, a := range actors {
		if a.Role == domain.RoleAdmin && (admin == nil || a.ID < admin.ID) {
			admin = a
		}
	}
	return admin
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
