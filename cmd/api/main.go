package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-portal/internal/api/http"
	"github.com/spec-kit/complaint-portal/internal/api/http/handlers"
	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/cache"
	"github.com/spec-kit/complaint-portal/internal/config"
	"github.com/spec-kit/complaint-portal/internal/events"
	"github.com/spec-kit/complaint-portal/internal/observability"
	"github.com/spec-kit/complaint-portal/internal/persistence"
	"github.com/spec-kit/complaint-portal/internal/repository"
	"github.com/spec-kit/complaint-portal/internal/repository/inmem"
	"github.com/spec-kit/complaint-portal/internal/service"
	"github.com/spec-kit/complaint-portal/internal/storage"
	"github.com/spec-kit/complaint-portal/internal/worker"
)

const (
	notificationQueueSize = 256
	notificationWorkers   = 2
)

type repositories struct {
	users      repository.UserRepository
	complaints repository.ComplaintRepository
	history    repository.ComplaintHistoryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.IsProduction())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg)

	dispatcher := events.NewInMemoryDispatcher(func(event events.Event, err error) {
		logger.Warn("event handler failed",
			zap.String("type", string(event.Type)),
			zap.Int64("complaint_id", event.ComplaintID),
			zap.Error(err),
		)
	})
	metrics := observability.NewMetrics()

	notifier := service.NewNotificationService(repos.users, nil, logger, cfg.Notification)
	metrics.Subscribe(dispatcher, notifier.EventTypes()...)
	notifications := worker.NewNotificationWorker(notifier, logger, notificationQueueSize, notificationWorkers)
	notifications.Subscribe(dispatcher)
	notifications.Start()

	complaintDeps := service.ComplaintDependencies{
		ComplaintRepo: repos.complaints,
		HistoryRepo:   repos.history,
		UserRepo:      repos.users,
		Dispatcher:    dispatcher,
		Logger:        logger,
	}
	if redis.Client != nil {
		complaintDeps.StatsCache = cache.NewStatsCache(redis.Client, cfg.Complaint.StatsCacheTTL())
	}
	complaintService := service.NewComplaintService(complaintDeps)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:      repos.users,
		ComplaintRepo: repos.complaints,
		Logger:        logger,
	})

	store, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.PublicBaseURL)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}
	uploadService := service.NewUploadService(store, cfg.Upload.MaxBytes, logger)

	dependencies := map[string]handlers.Pinger{}
	if pg.Enabled() {
		dependencies["postgres"] = pg
	}
	if redis.Client != nil {
		dependencies["redis"] = redis
	}

	app := httptransport.NewApp(cfg.App.Name, int(cfg.Upload.MaxBytes)+1<<20, logger)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Complaints:     handlers.NewComplaintsHandler(complaintService, time.Now),
		Uploads:        handlers.NewUploadsHandler(uploadService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.users),
		UploadDir:      store.Dir(),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := notifications.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker did not drain", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres) repositories {
	if pg.Enabled() {
		return repositories{
			users:      repository.NewUserRepository(pg.Pool),
			complaints: repository.NewComplaintRepository(pg.Pool),
			history:    repository.NewComplaintHistoryRepository(pg.Pool),
		}
	}
	users := inmem.NewUserRepo(nil)
	complaints := inmem.NewComplaintRepo(users, nil)
	return repositories{users: users, complaints: complaints, history: complaints}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
