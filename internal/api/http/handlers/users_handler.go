package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-portal/internal/api/dto"
	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/service"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

// UsersHandler exposes registration, login and account management endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		ContactInfo: req.ContactInfo,
		Department:  req.Department,
		AdminKey:    req.AdminKey,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(authResponse("Registration successful", res))
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authResponse("Login successful", res))
}

// Profile handles GET /auth/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	user, err := h.auth.Profile(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user)})
}

// UpdateProfile handles PATCH /auth/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	actor, _ := auth.ActorFromContext(c)
	user, err := h.auth.UpdateProfile(c.UserContext(), actor, service.ProfileUpdate{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Profile updated successfully", "user": dto.NewUserResponse(user)})
}

// ChangePassword handles POST /auth/change-password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	actor, _ := auth.ActorFromContext(c)
	if err := h.auth.ChangePassword(c.UserContext(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Password changed successfully"})
}

// ListStaff handles GET /auth/staff.
func (h *UsersHandler) ListStaff(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	staff, err := h.auth.ListStaff(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "staff": dto.NewUserResponses(staff)})
}

// ListUsers handles GET /auth/users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	users, err := h.auth.ListUsers(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "users": dto.NewUserResponses(users)})
}

// UpdateUser handles PATCH /auth/users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "invalid user ID")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	actor, _ := auth.ActorFromContext(c)
	user, err := h.auth.UpdateUser(c.UserContext(), actor, id, service.UserUpdate{Role: req.Role, Department: req.Department})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "User updated successfully", "user": dto.NewUserResponse(user)})
}

// DeleteUser handles DELETE /auth/users/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "invalid user ID")
	if err != nil {
		return err
	}
	actor, _ := auth.ActorFromContext(c)
	if err := h.auth.DeleteUser(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "User deleted successfully"})
}

func authResponse(message string, res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Success:   true,
		Message:   message,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      dto.NewUserResponse(res.User),
	}
}
