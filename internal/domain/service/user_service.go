package service

import (
	"context"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

// UserService owns aggregate creation and routes persistence to the repository.
// Filtered queries go to the searcher when one is configured.
type UserService struct {
	repo     repository.UserRepository
	searcher repository.UserSearcher
}

// NewUserService wires the service. searcher may be nil, in which case the
// repository answers filtered queries itself.
func NewUserService(repo repository.UserRepository, searcher repository.UserSearcher) *UserService {
	if searcher == nil {
		searcher = repo
	}
	return &UserService{repo: repo, searcher: searcher}
}

// CreateUser registers a local account with the default USER role.
func (s *UserService) CreateUser(ctx context.Context, username string, email valueobject.Email, passwordHash string) (entity.User, error) {
	u := entity.NewUser(entity.UserParams{
		Username: username,
		Email:    email,
		Password: passwordHash,
		Roles:    entity.NewRoleSet(entity.DefaultRole()),
		Provider: valueobject.ProviderLocal,
	})
	return s.repo.Save(ctx, u)
}

// CreateUserOAuth registers an account coming from an external provider.
// Such accounts are verified from the start.
func (s *UserService) CreateUserOAuth(ctx context.Context, username string, email valueobject.Email, passwordHash string, provider valueobject.Provider, roles entity.RoleSet) (entity.User, error) {
	u := entity.NewUser(entity.UserParams{
		Username:   username,
		Email:      email,
		Password:   passwordHash,
		Roles:      roles,
		Provider:   provider,
		IsVerified: true,
	})
	return s.repo.Save(ctx, u)
}

func (s *UserService) FindAll(ctx context.Context) ([]entity.User, error) {
	return s.repo.FindAll(ctx)
}

func (s *UserService) FindByID(ctx context.Context, id valueobject.UserID) (entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) FindByEmail(ctx context.Context, email valueobject.Email) (entity.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *UserService) FindByFilter(ctx context.Context, f repository.Filter) (*repository.Page, error) {
	return s.searcher.FilterBy(ctx, f)
}

func (s *UserService) Delete(ctx context.Context, u entity.User) (bool, error) {
	return s.repo.Delete(ctx, u)
}

func (s *UserService) ChangeEmail(ctx context.Context, u entity.User) (bool, error) {
	return s.repo.ChangeEmail(ctx, u)
}

func (s *UserService) ChangePassword(ctx context.Context, u entity.User) (bool, error) {
	return s.repo.ChangePassword(ctx, u)
}

func (s *UserService) ChangeUsername(ctx context.Context, u entity.User) (bool, error) {
	return s.repo.ChangeUsername(ctx, u)
}

func (s *UserService) UpdateProvider(ctx context.Context, u entity.User) (bool, error) {
	return s.repo.UpdateProvider(ctx, u)
}

func (s *UserService) UpdateAuthorities(ctx context.Context, u entity.User) (bool, error) {
	return s.repo.UpdateAuthorities(ctx, u)
}

func (s *UserService) VerifyUser(ctx context.Context, u entity.User) (bool, error) {
	return s.repo.VerifyUser(ctx, u)
}
