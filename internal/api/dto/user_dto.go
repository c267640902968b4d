package dto

import (
	"time"

	"github.com/spec-kit/complaint-portal/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	ContactInfo *string `json:"contact_info"`
	Department  *string `json:"department"`
	AdminKey    string  `json:"adminKey"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest payload. Omitted fields stay unchanged.
type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	ContactInfo *string `json:"contact_info"`
}

// ChangePasswordRequest payload for authenticated password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateUserRequest is an admin change of role and department.
type UpdateUserRequest struct {
	Role       string  `json:"role"`
	Department *string `json:"department"`
}

// UserResponse is the wire form of an account. The password hash never leaves the service.
type UserResponse struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Department  *string     `json:"department,omitempty"`
	ContactInfo *string     `json:"contact_info,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// NewUserResponse maps an account.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Department:  u.Department,
		ContactInfo: u.ContactInfo,
		CreatedAt:   u.CreatedAt,
	}
}

// NewUserResponses maps a list of accounts.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
