package container

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-accounts/config"
	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/service"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
	esinfra "github.com/oksasatya/go-ddd-user-accounts/internal/infrastructure/elasticsearch"
	"github.com/oksasatya/go-ddd-user-accounts/internal/infrastructure/notify"
	"github.com/oksasatya/go-ddd-user-accounts/internal/infrastructure/oauth"
	pginfra "github.com/oksasatya/go-ddd-user-accounts/internal/infrastructure/postgres"
	redisinfra "github.com/oksasatya/go-ddd-user-accounts/internal/infrastructure/redis"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/helpers"
)

// Infra holds the connections opened by main. ES and Rabbit are optional.
type Infra struct {
	Config *config.Config
	Logger *logrus.Logger
	PG     *pgxpool.Pool
	Redis  *redis.Client
	ES     *elasticsearch.Client
	Rabbit *helpers.RabbitPublisher
}

// RedisOptions maps the Redis settings onto the shared client options.
func RedisOptions(cfg *config.Config) helpers.RedisOptions {
	return helpers.RedisOptions{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.RedisTimeout,
		ReadTimeout:  cfg.RedisTimeout,
		WriteTimeout: cfg.RedisTimeout,
	}
}

// ESOptions maps the Elasticsearch settings onto the shared client options.
func ESOptions(cfg *config.Config) helpers.ESOptions {
	return helpers.ESOptions{
		Addrs:    cfg.ESAddrs(),
		Username: cfg.ElasticsearchUser,
		Password: cfg.ElasticsearchPass,
	}
}

// Container carries the constructed application components the router wires
// into HTTP modules.
type Container struct {
	Infra

	JWT       *helpers.JWTManager
	Cookies   *helpers.Manager
	Users     *application.Service
	Auth      *application.AuthService
	Providers *oauth.Providers
	States    *oauth.StateStore
}

// New builds the application graph on top of the given connections.
func New(ctx context.Context, in Infra) (*Container, error) {
	cfg := in.Config
	if cfg == nil || in.PG == nil || in.Redis == nil {
		return nil, fmt.Errorf("container: config, postgres and redis are required")
	}

	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTVerifySecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.VerifyTTL)
	hasher := helpers.NewBcryptHasher(cfg.BcryptCost)
	repo := pginfra.NewUserRepository(in.PG)

	var (
		indexer  application.SearchIndexer
		searcher repository.UserSearcher
		notifier application.Notifier
	)
	if in.ES != nil {
		idx := esinfra.NewUserIndex(in.ES, cfg.ESUsersIndex, in.Logger)
		if err := idx.EnsureIndex(ctx); err != nil {
			in.Logger.WithError(err).Warn("elasticsearch index unavailable; filtered search falls back to postgres")
		} else {
			indexer = idx
			if cfg.UseElasticsearch() {
				searcher = idx
			}
		}
	}
	if in.Rabbit != nil && cfg.MailSendEnabled {
		notifier = notify.NewMailNotifier(in.Rabbit, jwt, cfg)
	}

	users := application.NewService(
		service.NewUserService(repo, searcher),
		redisinfra.NewCache(in.Redis),
		hasher,
		indexer,
		notifier,
		in.Logger,
		cfg.UserCacheTTL,
	)
	auth := application.NewAuthService(users, hasher, jwt, in.Redis, in.Logger, cfg.SessionTTL)

	providers := oauth.NewProviders(
		oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthCallbackURL(valueobject.ProviderGoogle.String())),
		oauth.NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.OAuthCallbackURL(valueobject.ProviderGitHub.String())),
	)

	return &Container{
		Infra:     in,
		JWT:       jwt,
		Cookies:   helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
		Users:     users,
		Auth:      auth,
		Providers: providers,
		States:    oauth.NewStateStore(in.Redis, oauth.DefaultStateTTL),
	}, nil
}
