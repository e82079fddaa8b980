package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-ddd-user-accounts/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/helpers"
)

// Limits configures the Redis rate limiter shared by the modules.
type Limits struct {
	Redis  redis.Cmdable
	Max    int
	Window time.Duration
	Allow  middleware.AllowFunc
}

func (l Limits) by(key middleware.KeyFunc, factor int) gin.HandlerFunc {
	return middleware.RateLimit(l.Redis, l.Max*factor, l.Window, key, l.Allow)
}

// withAllow returns a copy that also bypasses requests extra accepts.
func (l Limits) withAllow(extra middleware.AllowFunc) Limits {
	l.Allow = middleware.AnyOf(l.Allow, extra)
	return l
}

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
	Limits  Limits
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager, limits Limits) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt, Limits: limits}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	perPath := m.Limits.by(middleware.KeyByIPAndPath(), 1)

	auth := rg.Group("/auth")
	auth.POST("/register", perPath, m.Handler.Register)
	auth.POST("/login", perPath, m.Handler.Login)
	auth.POST("/refresh", m.Limits.by(middleware.KeyByIP(), 3), m.Handler.Refresh)
	auth.GET("/verify", perPath, m.Handler.Verify)
	auth.POST("/logout", middleware.Auth(m.Limits.Redis, m.JWT), m.Handler.Logout)

	auth.GET("/:provider", perPath, m.Handler.OAuthRedirect)
	auth.GET("/:provider/callback", perPath, m.Handler.OAuthCallback)
}
