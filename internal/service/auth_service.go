package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/config"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/query"
	"github.com/spec-kit/complaint-portal/internal/repository"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

const (
	nameMinLen        = 2
	nameMaxLen        = 100
	contactInfoMaxLen = 100
)

// AuthService coordinates registration, login and account administration.
type AuthService struct {
	users      repository.UserRepository
	complaints repository.ComplaintRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	adminReg   bool
	adminKey   string
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	// ComplaintRepo, when set, blocks removing staff who still hold open assignments.
	ComplaintRepo repository.ComplaintRepository
	Logger        *zap.Logger
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Role        string
	ContactInfo *string
	Department  *string
	AdminKey    string
}

// ProfileUpdate lists the profile fields a caller may change on their own account.
type ProfileUpdate struct {
	Name        *string
	ContactInfo *string
}

// UserUpdate is an admin change of another account's role and department.
type UserUpdate struct {
	Role       string
	Department *string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		complaints: deps.ComplaintRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		adminReg:   cfg.Auth.AdminRegistrationEnabled,
		adminKey:   cfg.Auth.AdminRegistrationKey,
		logger:     logger,
	}
}

// Register creates an account. Admin accounts need the configured registration key.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	fields := apperrors.FieldErrors{}
	name := strings.TrimSpace(in.Name)
	validateName(fields, name)
	email := normalizeEmail(in.Email)
	validateEmail(fields, email)
	if in.Password == "" {
		fields.Add("password", "password is required")
	} else if len(in.Password) < auth.MinPasswordLength {
		fields.Add("password", "password must be at least 6 characters long")
	}
	role := domain.Role(strings.TrimSpace(in.Role))
	if role == "" {
		fields.Add("role", "role is required")
	} else if !role.Valid() {
		fields.Add("role", "role must be User, Staff, or Admin")
	}
	contact := trimmedOrNil(in.ContactInfo)
	if contact != nil && utf8.RuneCountInString(*contact) > contactInfoMaxLen {
		fields.Add("contact_info", "contact info cannot exceed 100 characters")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if role == domain.RoleAdmin && !s.adminKeyMatches(in.AdminKey) {
		s.logger.Warn("rejected admin registration", zap.String("email", email))
		return nil, apperrors.NewForbidden("admin registration is not allowed")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user with this email already exists", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		ContactInfo:  contact,
	}
	if role == domain.RoleStaff {
		user.Department = trimmedOrNil(in.Department)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	fields := apperrors.FieldErrors{}
	email = normalizeEmail(email)
	validateEmail(fields, email)
	if password == "" {
		fields.Add("password", "password is required")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Warn("failed login attempt", zap.Int64("user_id", user.ID))
		return nil, apperrors.NewUnauthorized("invalid email or password")
	}
	return s.issue(user)
}

// Profile returns the caller's own account.
func (s *AuthService) Profile(ctx context.Context, actor *domain.Actor) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return s.loadUser(ctx, actor.ID)
}

// UpdateProfile changes the caller's name and contact info.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *domain.Actor, upd ProfileUpdate) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	fields := apperrors.FieldErrors{}
	var name string
	if upd.Name != nil {
		name = strings.TrimSpace(*upd.Name)
		validateName(fields, name)
	}
	if upd.ContactInfo != nil && utf8.RuneCountInString(strings.TrimSpace(*upd.ContactInfo)) > contactInfoMaxLen {
		fields.Add("contact_info", "contact info cannot exceed 100 characters")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		user.Name = name
	}
	if upd.ContactInfo != nil {
		user.ContactInfo = trimmedOrNil(upd.ContactInfo)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Actor, currentPassword, newPassword string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	fields := apperrors.FieldErrors{}
	if currentPassword == "" {
		fields.Add("currentPassword", "current password is required")
	}
	if newPassword == "" {
		fields.Add("newPassword", "new password is required")
	} else if len(newPassword) < auth.MinPasswordLength {
		fields.Add("newPassword", "new password must be at least 6 characters long")
	}
	if err := fields.Err(); err != nil {
		return err
	}

	user, err := s.loadUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return apperrors.MapError(s.users.Update(ctx, user))
}

// ListStaff returns every Staff account. Admin only.
func (s *AuthService) ListStaff(ctx context.Context, actor *domain.Actor) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role := domain.RoleStaff
	return s.listUsers(ctx, repository.UserFilter{Role: &role})
}

// ListUsers returns every account, newest first. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, actor *domain.Actor) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.listUsers(ctx, repository.UserFilter{})
}

// UpdateUser changes another account's role and department. Staff accounts need a department;
// admins cannot change their own role.
func (s *AuthService) UpdateUser(ctx context.Context, actor *domain.Actor, id int64, upd UserUpdate) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role := domain.Role(strings.TrimSpace(upd.Role))
	department := trimmedOrNil(upd.Department)
	switch {
	case role == "":
		return nil, apperrors.NewFieldError("role", "role is required")
	case !role.Valid():
		return nil, apperrors.NewFieldError("role", "invalid role")
	case role == domain.RoleStaff && department == nil:
		return nil, apperrors.NewFieldError("department", "staff members must have a department assigned")
	case id == actor.ID && role != domain.RoleAdmin:
		return nil, apperrors.NewFieldError("role", "you cannot change your own role")
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleStaff && role != domain.RoleStaff {
		if err := s.ensureNoOpenAssignments(ctx, id); err != nil {
			return nil, err
		}
	}
	user.Role = role
	user.Department = nil
	if role == domain.RoleStaff {
		user.Department = department
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user updated by admin",
		zap.Int64("admin_id", actor.ID),
		zap.Int64("user_id", id),
		zap.String("role", string(role)),
	)
	return user, nil
}

// DeleteUser removes a non-admin account other than the caller's. Admin only.
func (s *AuthService) DeleteUser(ctx context.Context, actor *domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return apperrors.NewValidationError("you cannot delete your own account", nil)
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleAdmin {
		return apperrors.NewValidationError("cannot delete admin users", nil)
	}
	if user.Role == domain.RoleStaff {
		if err := s.ensureNoOpenAssignments(ctx, id); err != nil {
			return err
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("user deleted by admin", zap.Int64("admin_id", actor.ID), zap.Int64("user_id", id))
	return nil
}

// ensureNoOpenAssignments keeps every Assigned or In-progress complaint pointing at a Staff account.
func (s *AuthService) ensureNoOpenAssignments(ctx context.Context, staffID int64) error {
	if s.complaints == nil {
		return nil
	}
	var open int64
	for _, status := range []domain.ComplaintStatus{domain.StatusAssigned, domain.StatusInProgress} {
		n, err := s.complaints.Count(ctx, query.Criteria{AssigneeID: &staffID, Status: &status})
		if err != nil {
			return apperrors.MapError(err)
		}
		open += n
	}
	if open > 0 {
		return apperrors.NewConflict("staff member still has open assignments", map[string]any{"open_assignments": open})
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) loadUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *AuthService) listUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *AuthService) adminKeyMatches(key string) bool {
	if !s.adminReg || s.adminKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) == 1
}

func requireAdmin(actor *domain.Actor) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func validateName(fields apperrors.FieldErrors, name string) {
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		fields.Add("name", "name is required")
	case n < nameMinLen || n > nameMaxLen:
		fields.Add("name", "name must be between 2 and 100 characters")
	}
}

func validateEmail(fields apperrors.FieldErrors, email string) {
	if email == "" {
		fields.Add("email", "email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		fields.Add("email", "please provide a valid email address")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
