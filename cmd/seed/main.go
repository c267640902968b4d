package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/config"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/observability"
	"github.com/spec-kit/complaint-portal/internal/persistence"
	"github.com/spec-kit/complaint-portal/internal/repository"
	"github.com/spec-kit/complaint-portal/internal/seed"
	"github.com/spec-kit/complaint-portal/internal/service"
)

func main() {
	reset := flag.Bool("reset", false, "truncate users, complaints and history before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.IsProduction())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	// The in-memory store dies with this process, so seeding it would be pointless.
	if !pg.Enabled() {
		logger.Fatal("POSTGRES_DSN must be set to seed")
	}

	if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	if *reset {
		if err := persistence.Truncate(ctx, pg.Pool); err != nil {
			logger.Fatal("failed to clear existing data", zap.Error(err))
		}
		logger.Info("cleared existing data")
	}

	users := repository.NewUserRepository(pg.Pool)
	complaints := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: repository.NewComplaintRepository(pg.Pool),
		HistoryRepo:   repository.NewComplaintHistoryRepository(pg.Pool),
		UserRepo:      users,
		Logger:        logger,
	})

	data := seed.Demo()
	summary, err := seed.New(users, complaints, cfg.Auth.BcryptCost, logger).Run(ctx, data)
	if errors.Is(err, seed.ErrNotEmpty) {
		logger.Fatal("database already has users; rerun with -reset to replace them")
	}
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	for status, n := range summary.ByStatus {
		logger.Info("complaints seeded", zap.String("status", string(status)), zap.Int("count", n))
	}
	creds := seed.Credentials(data)
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleStaff, domain.RoleUser} {
		logins := creds[role]
		sort.Strings(logins)
		logger.Info("demo logins", zap.String("role", string(role)), zap.Strings("accounts", logins))
	}
}
