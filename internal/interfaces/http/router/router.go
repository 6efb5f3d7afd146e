package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/infrastructure/auth"
	"github.com/finsight/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar registers routes that need no user authentication
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// ProtectedRouteRegistrar registers routes behind JWT authentication
type ProtectedRouteRegistrar interface {
	RegisterProtectedRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. Public registrars attach to the
// versioned API group directly; protected registrars attach behind the JWT
// middleware, with connection management additionally requiring an elevated
// role.
type Router struct {
	engine     *gin.Engine
	validator  *auth.TokenValidator
	logger     *zap.Logger
	apiVersion string

	rateLimiter *middleware.RateLimiter
	maxBodySize int64

	public    []RouteRegistrar
	protected []ProtectedRouteRegistrar
	elevated  []ProtectedRouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g. "v1")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithRateLimiter enables per-client request rate limiting
func WithRateLimiter(limiter *middleware.RateLimiter) RouterOption {
	return func(r *Router) {
		r.rateLimiter = limiter
	}
}

// WithMaxBodySize caps request body size in bytes
func WithMaxBodySize(maxBytes int64) RouterOption {
	return func(r *Router) {
		r.maxBodySize = maxBytes
	}
}

// NewRouter creates a router over the given engine
func NewRouter(engine *gin.Engine, validator *auth.TokenValidator, logger *zap.Logger, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		validator:  validator,
		logger:     logger,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterPublic adds a registrar for unauthenticated routes
func (r *Router) RegisterPublic(registrar RouteRegistrar) *Router {
	r.public = append(r.public, registrar)
	return r
}

// RegisterProtected adds a registrar behind JWT authentication
func (r *Router) RegisterProtected(registrar ProtectedRouteRegistrar) *Router {
	r.protected = append(r.protected, registrar)
	return r
}

// RegisterElevated adds a registrar behind JWT authentication plus an
// elevated-role requirement
func (r *Router) RegisterElevated(registrar ProtectedRouteRegistrar) *Router {
	r.elevated = append(r.elevated, registrar)
	return r
}

// Setup wires middleware and registers all routes with the engine
func (r *Router) Setup() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.RequestLogger(r.logger))
	r.engine.Use(gin.Recovery())
	if r.maxBodySize > 0 {
		r.engine.Use(middleware.BodyLimit(r.maxBodySize))
	}
	if r.rateLimiter != nil {
		r.engine.Use(middleware.RateLimit(r.rateLimiter))
	}

	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.public {
		registrar.RegisterRoutes(api)
	}

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(r.validator))
	for _, registrar := range r.protected {
		registrar.RegisterProtectedRoutes(authed)
	}

	elevated := api.Group("")
	elevated.Use(middleware.JWTAuth(r.validator), middleware.RequireElevated())
	for _, registrar := range r.elevated {
		registrar.RegisterProtectedRoutes(elevated)
	}
}
