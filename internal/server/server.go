// Package server wires the development API: in-memory stores, services,
// handlers and the router.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/auth"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/background"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/config"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/handlers"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/middleware"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/repositories"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/routes"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/services"
	pkghttp "github.com/mss-project-web/admin-dashboard-sub000/pkg/http"
	pkglogger "github.com/mss-project-web/admin-dashboard-sub000/pkg/logger"
)

// Server holds the assembled application
type Server struct {
	Handler      http.Handler
	Cleanup      *background.CleanupManager
	TokenManager *auth.TokenManager
	Users        *services.UserService
}

// New builds the application from cfg and seeds the admin account when
// one is configured
func New(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) (*Server, error) {
	userRepo := repositories.NewUserRepository()
	revokeRepo := repositories.NewTokenRevocationRepository()
	loginAttemptRepo := repositories.NewLoginAttemptRepository()

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	rateLimitService := services.NewRateLimitService(loginAttemptRepo, services.RateLimitConfig{
		MaxFailedAttemptsPerEmail: cfg.RateLimit.MaxFailedAttemptsPerEmail,
		EmailLockoutDuration:      cfg.RateLimit.EmailLockoutDuration,
		MaxAttemptsPerIP:          cfg.RateLimit.MaxAttemptsPerIP,
		LookbackWindow:            cfg.RateLimit.LookbackWindow,
	}, logger)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	userService := services.NewUserService(userRepo, logger)
	authService := services.NewAuthService(userRepo, tokenManager, revokeRepo, rateLimitService, timingDelay, logger, auditLogger)

	if cfg.Admin.Email != "" {
		if _, err := userService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
			return nil, fmt.Errorf("failed to seed admin: %w", err)
		}
	} else {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
	}

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookieConfig := auth.CookieConfig{
		Domain:   cfg.Cookie.Domain,
		Secure:   cfg.Cookie.Secure,
		SameSite: cfg.Cookie.SameSite,
	}

	handler := routes.NewRouter(routes.Deps{
		AuthHandler:       handlers.NewAuthHandler(authService, cookieConfig, ipConfig),
		UserHandler:       handlers.NewUserHandler(userService),
		TokenManager:      tokenManager,
		RevocationChecker: revokeRepo,
		RevocationConfig:  auth.RevocationConfig{FailClosed: cfg.Server.Env == "production"},
		AuthRateLimit:     middleware.RateLimitConfig{RequestsPerMinute: cfg.RateLimit.LoginRatePerMinute},
		IPConfig:          ipConfig,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Env:               cfg.Server.Env,
		Logger:            logger,
	})

	cleanup := background.NewCleanupManager(logger, cfg.Auth.CleanupInterval,
		background.CleanupTask{Name: "revoked_tokens", Run: revokeRepo.CleanupExpiredTokens},
		background.CleanupTask{Name: "login_attempts", Run: loginAttemptRepo.DeleteExpiredAttempts},
	)

	return &Server{
		Handler:      handler,
		Cleanup:      cleanup,
		TokenManager: tokenManager,
		Users:        userService,
	}, nil
}
