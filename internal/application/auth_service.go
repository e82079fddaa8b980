package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/helpers"
)

// DefaultSessionTTL bounds how long a login session stays in Redis.
const DefaultSessionTTL = 24 * time.Hour

// AuthService issues and rotates login sessions on top of the user use-cases.
type AuthService struct {
	Users      *Service
	Hasher     PasswordHasher
	JWT        *helpers.JWTManager
	Redis      redis.Cmdable
	Logger     *logrus.Logger
	SessionTTL time.Duration
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func SessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewAuthService(users *Service, hasher PasswordHasher, jwt *helpers.JWTManager, rdb redis.Cmdable, logger *logrus.Logger, sessionTTL time.Duration) *AuthService {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		Users:      users,
		Hasher:     hasher,
		JWT:        jwt,
		Redis:      rdb,
		Logger:     logger,
		SessionTTL: sessionTTL,
	}
}

func authorityNames(u *UserResponse) []string {
	out := make([]string, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		out = append(out, a.Authority)
	}
	return out
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*UserResponse, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, valueobject.ErrInvalidFormat) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.Hasher.Compare(password, u.Password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *UserResponse) (TokenPair, error) {
	sid := uuid.NewString()
	authorities := authorityNames(u)
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Email, sid, authorities)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, u.Email, sid, authorities)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"username":   u.Username,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, s.SessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*UserResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// LoginOAuth signs in a user confirmed by an external provider, registering
// the email on first sight.
func (s *AuthService) LoginOAuth(ctx context.Context, username, email, provider string) (*UserResponse, TokenPair, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		// The account never signs in with a password; a random one keeps the column populated.
		u, err = s.Users.OAuth(ctx, username, email, uuid.NewString(), provider)
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh validates the refresh token against the live session and rotates both tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, *UserResponse, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	u, err := s.Users.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, valueobject.ErrInvalidFormat) {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, nil, err
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, SessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, u, nil
}

// Logout drops the user's session so outstanding tokens stop working.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, SessionKey(userID)).Err()
}

// VerifyEmail marks the account named by a verification token as verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	email, err := s.JWT.ParseVerifyToken(token)
	if err != nil {
		return false, ErrInvalidCredentials
	}
	verified := true
	return s.Users.UpdateUser(ctx, email, ActionVerifyUser.String(), UserUpdate{IsVerified: &verified})
}
