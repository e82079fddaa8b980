package router

import (
	"github.com/oksasatya/go-ddd-user-accounts/internal/container"
	handlers "github.com/oksasatya/go-ddd-user-accounts/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-accounts/internal/router/modules"
)

// InitModules builds the HTTP modules from the container and registers them.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	authHandler := handlers.NewAuthHandler(c.Users, c.Auth, c.Providers, c.States, c.Cookies, c.Logger, cfg.OAuthSuccessURL)
	userHandler := handlers.NewUserHandler(c.Users, c.Logger)

	limits := modules.Limits{
		Redis:  c.Redis,
		Max:    cfg.AuthRateLimit,
		Window: cfg.AuthRateWindow,
	}
	if cfg.Env == "development" {
		limits.Allow = middleware.AllowPrivateIP()
	}

	r.Add(modules.NewAuthModule(authHandler, c.JWT, limits))
	r.Add(modules.NewUserModule(userHandler, c.JWT, limits))
}
