package handlers

import (
	"context"

	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
)

// UserUseCases is the slice of the application service the user routes need.
type UserUseCases interface {
	FindAll(ctx context.Context) ([]application.UserResponse, error)
	FindByFilter(ctx context.Context, in application.UserFilter) (*application.UserPage, error)
	FindByEmail(ctx context.Context, email string) (*application.UserResponse, error)
	FindByID(ctx context.Context, id string) (*application.UserResponse, error)
	RegisterUser(ctx context.Context, username, email, password string) (*application.UserResponse, error)
	DeleteUser(ctx context.Context, resp *application.UserResponse) (bool, error)
	UpdateUser(ctx context.Context, email, action string, payload application.UserUpdate) (bool, error)
}

// AuthUseCases covers login sessions.
type AuthUseCases interface {
	Login(ctx context.Context, email, password string) (*application.UserResponse, application.TokenPair, error)
	LoginOAuth(ctx context.Context, username, email, provider string) (*application.UserResponse, application.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (application.TokenPair, *application.UserResponse, error)
	Logout(ctx context.Context, userID string) error
	VerifyEmail(ctx context.Context, token string) (bool, error)
}

// OAuthStates issues and redeems the anti-forgery state of an OAuth round trip.
type OAuthStates interface {
	Issue(ctx context.Context, provider string) (string, error)
	Consume(ctx context.Context, provider, state string) (bool, error)
}

var (
	_ UserUseCases = (*application.Service)(nil)
	_ AuthUseCases = (*application.AuthService)(nil)
)
