package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/api/http/handlers"
	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
	// UploadDir, when set, is served read-only under /uploads.
	UploadDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	requireAuth := cfg.AuthMiddleware.Handle
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	app.Get("/metrics", requireAuth, adminOnly, cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/profile", requireAuth, cfg.Users.Profile)
	authGroup.Patch("/profile", requireAuth, cfg.Users.UpdateProfile)
	authGroup.Post("/change-password", requireAuth, cfg.Users.ChangePassword)
	authGroup.Get("/staff", requireAuth, adminOnly, cfg.Users.ListStaff)
	authGroup.Get("/users", requireAuth, adminOnly, cfg.Users.ListUsers)
	authGroup.Patch("/users/:id", requireAuth, adminOnly, cfg.Users.UpdateUser)
	authGroup.Delete("/users/:id", requireAuth, adminOnly, cfg.Users.DeleteUser)

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir, fiber.Static{Browse: false})
	}
	app.Post("/uploads", requireAuth, cfg.Uploads.Upload)
	app.Delete("/uploads/:key", requireAuth, cfg.Uploads.Delete)

	// role checks for complaints live in the access policy, not here
	complaints := app.Group("/complaints", requireAuth)
	complaints.Post("/", cfg.Complaints.Create)
	complaints.Get("/", cfg.Complaints.List)
	complaints.Get("/stats/overview", cfg.Complaints.Stats)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Get("/:id/history", cfg.Complaints.History)
	complaints.Patch("/:id/status", cfg.Complaints.UpdateStatus)
	complaints.Patch("/:id/assign", cfg.Complaints.Assign)
	complaints.Patch("/:id/feedback", cfg.Complaints.Feedback)
}

// NewApp builds the fiber application with the shared error handler. bodyLimit must exceed the
// largest accepted upload.
func NewApp(name string, bodyLimit int, logger *zap.Logger) *fiber.App {
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}
	return fiber.New(fiber.Config{
		AppName:               name,
		BodyLimit:             bodyLimit,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})
}
