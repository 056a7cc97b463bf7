package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/memberly/edge-gateway/internal/api/handler"
	"github.com/memberly/edge-gateway/internal/api/middleware"
	"github.com/memberly/edge-gateway/internal/core/ports"
	"github.com/memberly/edge-gateway/internal/infrastructure/config"
	"github.com/memberly/edge-gateway/internal/session"
)

// Deps bundles everything the router needs wired in.
type Deps struct {
	Config   *config.Config
	Proxy    ports.UpstreamProxy
	Limiter  ports.RateLimiter
	Audit    ports.AuditSink
	Sessions *session.Manager
	Redis    *redis.Client   // nil when the in-memory limiter is used
	Mongo    *mongo.Database // nil when auditing is disabled
	Metrics  prometheus.Registerer
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger, d.Config.IsDevelopment())

	// --- Pre-routing middleware: CORS preflights and the edge auth gate
	// must run even for paths without a registered handler. ---
	e.Pre(middleware.CORS())
	e.Pre(middleware.AuthGate(d.Sessions, d.Logger))

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	registerer := d.Metrics
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "gateway",
		Registerer: registerer,
	}))

	// --- Observability and health ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Config.Backend.BaseURL, d.Redis, d.Mongo).Readiness)

	// --- Auth routes (rate limited, validated, cookie-writing) ---
	authHandler := handler.NewAuthHandler(d.Proxy, d.Sessions, d.Audit, d.Logger)
	authLimit := middleware.RateLimit(d.Limiter, d.Config.RateLimit.AuthRequests, d.Audit, d.Logger)

	e.POST("/api/auth/login", authHandler.Login, authLimit)
	e.POST("/api/auth/register", authHandler.Register, authLimit)
	e.POST("/api/auth/logout", authHandler.Logout)
	e.GET("/api/auth/me", authHandler.Me)

	e.Any("/api/user/profile", authHandler.UpdateProfile)
	e.POST("/api/user/change-password", authHandler.ChangePassword)

	// --- Proxied REST resources ---
	// Each registration mirrors one backend resource: the template names the
	// backend path, the config declares allowed verbs and which of them need
	// a session token. Reads on catalog resources stay public.
	p := handler.NewProxyHandler(d.Proxy, d.Sessions)

	get := []string{http.MethodGet}
	mutations := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

	e.Any("/api/categories", p.Route("/categories", ports.RouteConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AuthMethods:    mutations,
	}))
	e.Any("/api/categories/:id", p.Route("/categories/:id", ports.RouteConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
		AuthMethods:    mutations,
	}))

	e.Any("/api/object-categories", p.Route("/object-categories", ports.RouteConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AuthMethods:    mutations,
	}))
	e.Any("/api/object-categories/:id", p.Route("/object-categories/:id", ports.RouteConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
		AuthMethods:    mutations,
	}))

	e.Any("/api/products", p.Route("/products", ports.RouteConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AuthMethods:    mutations,
	}))
	// POST on a single product is the multipart update path (file uploads
	// with method override), so it stays in the allowed set.
	e.Any("/api/products/:id", p.Route("/products/:id", ports.RouteConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
		AuthMethods:    mutations,
	}))

	e.Any("/api/users", p.Route("/users", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: get,
	}))
	e.Any("/api/users/:id", p.Route("/users/:id", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))
	e.Any("/api/users/:id/toggle-admin", p.Route("/users/:id/toggle-admin", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodPost},
	}))

	e.Any("/api/orders", p.Route("/orders", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.Any("/api/orders/:id", p.Route("/orders/:id", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
	}))
	e.Any("/api/orders/:id/complete", p.Route("/orders/:id/complete", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodPost},
	}))

	e.Any("/api/chats", p.Route("/chats", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.Any("/api/chats/:id", p.Route("/chats/:id", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete},
	}))

	e.Any("/api/notifications", p.Route("/notifications", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: get,
	}))
	e.Any("/api/notifications/unread-count", p.Route("/notifications/unread-count", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: get,
	}))
	e.Any("/api/notifications/multiple", p.Route("/notifications/multiple", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodDelete},
	}))
	e.Any("/api/notifications/:id", p.Route("/notifications/:id", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete},
	}))

	e.Any("/api/membership-upgrade-requests", p.Route("/membership-upgrade-requests", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.Any("/api/membership-upgrade-requests/:id", p.Route("/membership-upgrade-requests/:id", ports.RouteConfig{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodPut},
	}))

	return e
}
