package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/service"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

// Service holds the user use-cases: cache-aside reads, registration, deletion
// and the update actions. Indexer and Notifier are optional.
type Service struct {
	Users    *service.UserService
	Cache    Cache
	Hasher   PasswordHasher
	Indexer  SearchIndexer
	Notifier Notifier
	Logger   *logrus.Logger
	CacheTTL time.Duration
}

func NewService(users *service.UserService, cache Cache, hasher PasswordHasher, indexer SearchIndexer, notifier Notifier, logger *logrus.Logger, cacheTTL time.Duration) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Service{
		Users:    users,
		Cache:    cache,
		Hasher:   hasher,
		Indexer:  indexer,
		Notifier: notifier,
		Logger:   logger,
		CacheTTL: cacheTTL,
	}
}

// UserFilter carries the optional criteria of a filtered search.
type UserFilter struct {
	UserID         string
	Email          string
	Username       string
	IsVerified     *bool
	CreatedAt      *time.Time
	CreatedAtStart *time.Time
	CreatedAtEnd   *time.Time
	Page           int
	Limit          int
	OrderBy        string
}

// readThrough answers from the cache under key, or calls load and caches the result.
func (s *Service) readThrough(ctx context.Context, key string, load func() (entity.User, error)) (*UserResponse, error) {
	var cached UserResponse
	hit, err := s.Cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if hit {
		return &cached, nil
	}

	u, err := load()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := ToResponse(u)
	if err := s.Cache.Set(ctx, key, resp, s.cacheTTL()); err != nil {
		return nil, fmt.Errorf("cache set: %w", err)
	}
	return resp, nil
}

// FindByEmail returns the user registered under email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*UserResponse, error) {
	return s.readThrough(ctx, UserCacheKey(email), func() (entity.User, error) {
		addr, err := valueobject.NewEmail(email)
		if err != nil {
			return entity.User{}, err
		}
		return s.Users.FindByEmail(ctx, addr)
	})
}

// FindByID returns the user with the given id.
func (s *Service) FindByID(ctx context.Context, id string) (*UserResponse, error) {
	return s.readThrough(ctx, UserCacheKey(id), func() (entity.User, error) {
		uid, err := valueobject.ParseUserID(id)
		if err != nil {
			return entity.User{}, err
		}
		return s.Users.FindByID(ctx, uid)
	})
}

// FindByFilter runs a paginated search. Results are never cached.
func (s *Service) FindByFilter(ctx context.Context, in UserFilter) (*UserPage, error) {
	f := repository.Filter{
		Username:       strings.ReplaceAll(in.Username, "-", " "),
		IsVerified:     in.IsVerified,
		CreatedAt:      in.CreatedAt,
		CreatedAtStart: in.CreatedAtStart,
		CreatedAtEnd:   in.CreatedAtEnd,
		Limit:          in.Limit,
		Order:          repository.ParseOrder(in.OrderBy),
	}
	if in.UserID != "" {
		id, err := valueobject.ParseUserID(in.UserID)
		if err != nil {
			return nil, err
		}
		f.ID = &id
	}
	if in.Email != "" {
		email, err := valueobject.NewEmail(in.Email)
		if err != nil {
			return nil, err
		}
		f.Email = &email
	}
	if in.Page > 1 {
		f.Offset = (in.Page - 1) * f.PageLimit()
	}

	page, err := s.Users.FindByFilter(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("filter users: %w", err)
	}
	return toUserPage(page), nil
}

// FindAll lists every user straight from the primary store.
func (s *Service) FindAll(ctx context.Context) ([]UserResponse, error) {
	users, err := s.Users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find all users: %w", err)
	}
	return ToResponses(users), nil
}

// RegisterUser creates a local account with the USER role and caches it.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (*UserResponse, error) {
	addr, err := valueobject.NewEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.Users.CreateUser(ctx, username, addr, hash)
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	resp := ToResponse(u)
	if err := s.cacheUser(ctx, resp); err != nil {
		return nil, fmt.Errorf("cache user: %w", err)
	}
	s.indexUser(ctx, resp)
	if s.Notifier != nil {
		if err := s.Notifier.UserCreated(ctx, resp); err != nil {
			s.Logger.WithError(err).WithField("user_id", resp.ID).Warn("welcome notification failed")
		}
	}
	return resp, nil
}

// OAuth creates an already verified account for a user coming from provider.
func (s *Service) OAuth(ctx context.Context, username, email, password, provider string) (*UserResponse, error) {
	addr, err := valueobject.NewEmail(email)
	if err != nil {
		return nil, err
	}
	p, err := valueobject.NewProvider(provider)
	if err != nil {
		return nil, err
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.Users.CreateUserOAuth(ctx, username, addr, hash, p, entity.NewRoleSet(entity.DefaultRole()))
	if err != nil {
		return nil, fmt.Errorf("save oauth user: %w", err)
	}

	resp := ToResponse(u)
	if err := s.cacheUser(ctx, resp); err != nil {
		return nil, fmt.Errorf("cache user: %w", err)
	}
	s.indexUser(ctx, resp)
	return resp, nil
}

// DeleteUser removes the user and its email cache entry. The id entry is
// left to expire on its own.
func (s *Service) DeleteUser(ctx context.Context, resp *UserResponse) (bool, error) {
	if resp == nil {
		return false, nil
	}
	u, err := ToDomain(resp)
	if err != nil {
		return false, err
	}
	ok, err := s.Users.Delete(ctx, u)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := s.Cache.Del(ctx, UserCacheKey(resp.Email)); err != nil {
		return false, fmt.Errorf("cache del: %w", err)
	}
	if s.Indexer != nil {
		if err := s.Indexer.DeleteUser(ctx, resp.ID); err != nil {
			s.Logger.WithError(err).WithField("user_id", resp.ID).Warn("search index delete failed")
		}
	}
	return true, nil
}

func (s *Service) indexUser(ctx context.Context, resp *UserResponse) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexUser(ctx, resp); err != nil {
		s.Logger.WithError(err).WithField("user_id", resp.ID).Warn("search index failed")
	}
}
