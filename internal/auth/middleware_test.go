package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/repository/inmem"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

func newApp(t *testing.T) (*fiber.App, *auth.TokenManager, *inmem.UserRepo) {
	t.Helper()
	tokens := auth.NewTokenManager("secret", 60)
	users := inmem.NewUserRepo(nil)
	mw := auth.NewAuthMiddleware(tokens, users)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		actor, ok := auth.ActorFromContext(c)
		require.True(t, ok)
		return c.SendString(string(actor.Role))
	})
	app.Get("/admin", mw.Handle, auth.RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app, tokens, users
}

func bearer(t *testing.T, tokens *auth.TokenManager, user *domain.User) string {
	t.Helper()
	token, _, err := tokens.GenerateToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	app, tokens, users := newApp(t)
	user := &domain.User{Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser}
	require.NoError(t, users.Create(context.Background(), user))
	ghost := &domain.User{ID: 99, Role: domain.RoleAdmin}

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{name: "missing header", path: "/me", status: http.StatusUnauthorized},
		{name: "malformed header", path: "/me", header: "Token abc", status: http.StatusUnauthorized},
		{name: "garbage token", path: "/me", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "deleted account", path: "/me", header: bearer(t, tokens, ghost), status: http.StatusUnauthorized},
		{name: "valid token", path: "/me", header: bearer(t, tokens, user), status: http.StatusOK},
		{name: "role gate", path: "/admin", header: bearer(t, tokens, user), status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_RoleComesFromStore(t *testing.T) {
	app, tokens, users := newApp(t)
	user := &domain.User{Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser}
	require.NoError(t, users.Create(context.Background(), user))
	header := bearer(t, tokens, user)

	user.Role = domain.RoleAdmin
	require.NoError(t, users.Update(context.Background(), user))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, header)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
