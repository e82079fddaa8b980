package main

import (
	"context"
	"errors"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-accounts/config"
	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
	"github.com/oksasatya/go-ddd-user-accounts/internal/container"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
	esinfra "github.com/oksasatya/go-ddd-user-accounts/internal/infrastructure/elasticsearch"
	pginfra "github.com/oksasatya/go-ddd-user-accounts/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/helpers"
)

// seed makes sure an admin account exists. Roles are created by the migrations.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
		DSN:         cfg.PostgresDSN(),
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
		SlowQuery:   cfg.DBSlowQuery,
	}, logger)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := pginfra.NewUserRepository(pool)

	email, err := valueobject.NewEmail(cfg.SeedAdminEmail)
	if err != nil {
		logger.Fatalf("SEED_ADMIN_EMAIL: %v", err)
	}
	adminRoles := entity.NewRoleSet(entity.DefaultRole(), entity.NewRole(entity.RoleIDAdmin, entity.AuthorityAdmin))

	var admin entity.User
	existing, err := repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		hash, err := helpers.NewBcryptHasher(cfg.BcryptCost).Hash(cfg.SeedAdminPassword)
		if err != nil {
			logger.Fatalf("failed to hash password: %v", err)
		}
		u, err := repo.Save(ctx, entity.NewUser(entity.UserParams{
			Username:   cfg.SeedAdminUsername,
			Email:      email,
			Password:   hash,
			Roles:      adminRoles,
			Provider:   valueobject.ProviderLocal,
			IsVerified: true,
		}))
		if err != nil {
			logger.Fatalf("failed to seed admin: %v", err)
		}
		logger.WithFields(logrus.Fields{"id": u.ID().String(), "email": email.String()}).Info("seeded admin user")
		admin = u
	case err != nil:
		logger.Fatalf("failed to look up admin: %v", err)
	case existing.IsAdmin():
		logger.WithField("email", email.String()).Info("admin user already present")
		admin = existing
	default:
		admin = existing.WithRoles(adminRoles)
		if _, err := repo.UpdateAuthorities(ctx, admin); err != nil {
			logger.Fatalf("failed to grant admin role: %v", err)
		}
		logger.WithField("email", email.String()).Info("granted ADMIN to existing user")
		invalidate(ctx, cfg, logger, existing)
	}

	reindex(ctx, cfg, logger, admin)
}

type userIndex interface {
	EnsureIndex(ctx context.Context) error
	IndexUser(ctx context.Context, u *application.UserResponse) error
}

// indexUser writes u, including its stored created_at, to the search index.
func indexUser(ctx context.Context, idx userIndex, u entity.User) error {
	if err := idx.EnsureIndex(ctx); err != nil {
		return err
	}
	return idx.IndexUser(ctx, application.ToResponse(u))
}

// reindex makes the admin visible to filtered queries served by Elasticsearch.
func reindex(ctx context.Context, cfg *config.Config, logger *logrus.Logger, u entity.User) {
	if !cfg.UseElasticsearch() {
		return
	}
	es, err := helpers.NewESClient(ctx, container.ESOptions(cfg))
	if err != nil {
		logger.WithError(err).Warn("elasticsearch unavailable; admin not indexed")
		return
	}
	if err := indexUser(ctx, esinfra.NewUserIndex(es, cfg.ESUsersIndex, logger), u); err != nil {
		logger.WithError(err).WithField("email", u.Email().String()).Warn("failed to index admin")
		return
	}
	logger.WithField("email", u.Email().String()).Info("admin indexed")
}
