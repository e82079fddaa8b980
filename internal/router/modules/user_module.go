package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	handlers "github.com/oksasatya/go-ddd-user-accounts/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/helpers"
)

// UserModule serves /api/users. Every route needs a live session; listing
// all users is restricted to admins, who are also exempt from the per-user limit.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Limits  Limits
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, limits Limits) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Limits: limits}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(
		middleware.Auth(m.Limits.Redis, m.JWT),
		m.Limits.withAllow(middleware.AllowAdmins()).by(middleware.KeyByUserID(), 6),
	)
	{
		users.GET("", middleware.AdminOnly(), m.Handler.FindAll)
		users.GET("/filter", m.Handler.Filter)
		users.GET("/email/:email", m.Handler.FindByEmail)
		users.GET("/:userId", m.Handler.FindByID)
		users.DELETE("/:email", m.Handler.Delete)
		// Granting roles is an admin operation even on the caller's own account.
		users.PATCH("/action/:action",
			middleware.RequireAuthorityForParam("action", application.ActionUpdateAuthorities.String(), entity.AuthorityAdmin),
			m.Handler.UpdateAction)
	}
}
