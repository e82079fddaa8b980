package router

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Module is a feature area that mounts its routes on the /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry collects middleware scoped to /api and the feature modules, then
// mounts them in one pass. Routes outside /api, such as health checks, skip
// that middleware.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
	once        sync.Once
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll mounts every module and returns the routes now served under
// /api. Later calls only report.
func (r *Registry) RegisterAll() []gin.RouteInfo {
	r.once.Do(func() {
		if len(r.middlewares) > 0 {
			r.API.Use(r.middlewares...)
		}
		for _, m := range r.modules {
			m.Register(r.API)
		}
	})

	prefix := r.API.BasePath()
	var routes []gin.RouteInfo
	for _, ri := range r.Engine.Routes() {
		if strings.HasPrefix(ri.Path, prefix) {
			routes = append(routes, ri)
		}
	}
	return routes
}
