package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/auth"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/handlers"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/middleware"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	pkghttp "github.com/mss-project-web/admin-dashboard-sub000/pkg/http"
)

// Deps is everything the router needs
type Deps struct {
	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	TokenManager      *auth.TokenManager
	RevocationChecker auth.TokenRevocationChecker
	RevocationConfig  auth.RevocationConfig
	AuthRateLimit     middleware.RateLimitConfig
	IPConfig          *pkghttp.IPConfig
	AllowedOrigins    []string
	Env               string
	Logger            *slog.Logger
}

// NewRouter builds the full HTTP handler: global middleware, /health and
// the API under /api
func NewRouter(deps Deps) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: deps.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(deps.AllowedOrigins)))
	router.Use(middleware.SecureLogger(deps.Logger, deps.IPConfig))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, deps)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Resource not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	return router
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router chi.Router, deps Deps) {
	rateLimitConfig := deps.AuthRateLimit
	if rateLimitConfig.RequestsPerMinute <= 0 {
		rateLimitConfig = middleware.DefaultAuthRateLimit()
	}
	rateLimitConfig.IPConfig = deps.IPConfig
	limiter := middleware.RateLimitByIP(rateLimitConfig)

	// Public routes
	router.With(limiter).Post("/auth/login", deps.AuthHandler.Login)
	router.With(limiter).Post("/auth/refresh", deps.AuthHandler.Refresh)
	router.Post("/auth/logout", deps.AuthHandler.Logout)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddlewareWithRevocation(deps.TokenManager, deps.RevocationChecker, deps.RevocationConfig, deps.Logger))
		r.Use(auth.RequireRole(models.RoleAdmin))

		r.Get("/users/me", deps.UserHandler.Me)
	})
}
