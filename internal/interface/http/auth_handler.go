package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
	"github.com/oksasatya/go-ddd-user-accounts/internal/infrastructure/oauth"
	"github.com/oksasatya/go-ddd-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/response"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/validation"
)

type AuthHandler struct {
	Users      UserUseCases
	Auth       AuthUseCases
	Providers  *oauth.Providers
	States     OAuthStates
	Cookies    *helpers.Manager
	Logger     *logrus.Logger
	SuccessURL string
}

func NewAuthHandler(users UserUseCases, auth AuthUseCases, providers *oauth.Providers, states OAuthStates, cookies *helpers.Manager, logger *logrus.Logger, successURL string) *AuthHandler {
	return &AuthHandler{
		Users:      users,
		Auth:       auth,
		Providers:  providers,
		States:     states,
		Cookies:    cookies,
		Logger:     logger,
		SuccessURL: successURL,
	}
}

func tokenMeta(pair application.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	ctx := c.Request.Context()

	existing, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, application.ErrUserNotFound) {
		writeError(c, h.Logger, err)
		return
	}
	if existing != nil {
		writeError(c, h.Logger, application.ErrUserAlreadyExists)
		return
	}

	u, err := h.Users.RegisterUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toView(u), "Register Successfully", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, toView(u), "Login successfully", tokenMeta(pair))
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh := helpers.RefreshToken(c)
	if refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Auth.Refresh(c.Request.Context(), refresh)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
			return
		}
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", tokenMeta(pair))
}

// Logout POST /api/auth/logout (auth required)
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), c.GetString(middleware.CtxUserIDKey)); err != nil {
		h.Logger.WithError(err).Warn("drop session failed")
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// Verify GET /api/auth/verify?token=
func (h *AuthHandler) Verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error[any](c, http.StatusBadRequest, "missing token", nil)
		return
	}
	ok, err := h.Auth.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
			return
		}
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, ok, "Email verified", nil)
}

// OAuthRedirect GET /api/auth/:provider
func (h *AuthHandler) OAuthRedirect(c *gin.Context) {
	name := c.Param("provider")
	p, err := h.Providers.Get(name)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "unknown provider", nil)
		return
	}
	state, err := h.States.Issue(c.Request.Context(), name)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

// OAuthCallback GET /api/auth/:provider/callback
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	name := c.Param("provider")
	p, err := h.Providers.Get(name)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "unknown provider", nil)
		return
	}
	ctx := c.Request.Context()

	ok, err := h.States.Consume(ctx, name, c.Query("state"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "invalid oauth state", nil)
		return
	}
	code := c.Query("code")
	if code == "" {
		response.Error[any](c, http.StatusBadRequest, "missing code", nil)
		return
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		h.Logger.WithError(err).WithField("provider", name).Warn("oauth exchange failed")
		response.Error[any](c, http.StatusUnauthorized, "oauth exchange failed", nil)
		return
	}

	u, pair, err := h.Auth.LoginOAuth(ctx, profile.Username, profile.Email, profile.Provider)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	if h.SuccessURL != "" {
		c.Redirect(http.StatusFound, h.SuccessURL)
		return
	}
	response.Success(c, http.StatusOK, toView(u), "OAuth success", tokenMeta(pair))
}
