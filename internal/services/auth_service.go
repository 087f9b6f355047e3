package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/auth"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	pkgauth "github.com/mss-project-web/admin-dashboard-sub000/pkg/auth"
	pkglogger "github.com/mss-project-web/admin-dashboard-sub000/pkg/logger"
)

// TokenRevocationRepository defines the interface for token revocation operations
type TokenRevocationRepository interface {
	RevokeToken(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// LoginRateLimiter is the slice of RateLimitService the auth flow uses
type LoginRateLimiter interface {
	CheckRateLimit(ctx context.Context, email, ipAddress string) (bool, time.Duration, error)
	RecordLoginAttempt(ctx context.Context, email, ipAddress, userAgent string, success bool, failureReason *string) error
}

// LockedOutError is returned by Login while the account is locked
type LockedOutError struct {
	RetryAfter time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("account temporarily locked, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *LockedOutError) Unwrap() error {
	return models.ErrAccountLocked
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// Session is the result of a login or refresh. The tokens leave the
// server only as httpOnly cookies.
type Session struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	User         *UserResponse
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	revokeRepo  TokenRevocationRepository
	tm          *auth.TokenManager
	rateLimiter LoginRateLimiter
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewAuthService creates a new AuthService. rateLimiter and timing may be nil.
func NewAuthService(repo UserRepository, tm *auth.TokenManager, revokeRepo TokenRevocationRepository, rateLimiter LoginRateLimiter, timing *auth.TimingDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		revokeRepo:  revokeRepo,
		tm:          tm,
		rateLimiter: rateLimiter,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Login authenticates an admin and issues a new token pair
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (sess *Session, err error) {
	start := time.Now()
	defer func() { s.timing.WaitFrom(start, err == nil) }()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.ErrUnauthorized
	}

	if s.rateLimiter != nil {
		allowed, retryAfter, err := s.rateLimiter.CheckRateLimit(ctx, email, ipAddress)
		if err != nil {
			s.audit(pkglogger.EventLoginBlocked, "", email, ipAddress, userAgent, false, "ip_rate_limited")
			return nil, err
		}
		if !allowed {
			s.audit(pkglogger.EventLoginBlocked, "", email, ipAddress, userAgent, false, "account_locked")
			return nil, &LockedOutError{RetryAfter: retryAfter}
		}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.loginFailed(ctx, "", email, ipAddress, userAgent, "invalid_credentials")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load user for login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.loginFailed(ctx, user.ID, email, ipAddress, userAgent, "invalid_credentials")
		return nil, models.ErrUnauthorized
	}

	// Checked after the password so a disabled account does not reveal
	// itself to someone without the credentials.
	if user.Status == models.StatusDisabled {
		s.loginFailed(ctx, user.ID, email, ipAddress, userAgent, "account_disabled")
		return nil, models.ErrAccountDisabled
	}

	sess, err = s.issue(user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", slog.Any("error", err))
	} else {
		user.LastLoginAt = &now
		sess.User = userModelToResponse(user)
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.RecordLoginAttempt(ctx, email, ipAddress, userAgent, true, nil); err != nil {
			s.logger.Warn("failed to record login attempt", slog.Any("error", err))
		}
	}
	s.audit(pkglogger.EventLoginSuccess, user.ID, email, ipAddress, userAgent, true, "")

	return sess, nil
}

// Refresh validates a refresh token and rotates it. The presented token
// is revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*Session, error) {
	if refreshToken == "" {
		return nil, models.ErrMissingSession
	}

	claims, err := s.tm.ValidateTokenOfType(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		s.audit(pkglogger.EventRefreshFailed, "", "", ipAddress, userAgent, false, "invalid_token")
		return nil, models.ErrUnauthorized
	}

	revoked, err := s.revokeRepo.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check refresh token revocation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if revoked {
		s.audit(pkglogger.EventRefreshFailed, claims.UserID, claims.Email, ipAddress, userAgent, false, "token_revoked")
		return nil, models.ErrTokenRevoked
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load user for refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if user.Status == models.StatusDisabled {
		return nil, models.ErrAccountDisabled
	}

	if err := s.revokeRepo.RevokeToken(ctx, claims.ID, user.ID, models.TokenTypeRefresh, s.expiresAt(claims), "rotated"); err != nil {
		s.logger.Error("failed to revoke rotated refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	sess, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.audit(pkglogger.EventSessionRefresh, user.ID, user.Email, ipAddress, userAgent, true, "")
	return sess, nil
}

// Logout revokes the refresh token if it is still valid. It never fails:
// the caller clears the cookies regardless.
func (s *AuthService) Logout(ctx context.Context, refreshToken, ipAddress, userAgent string) {
	if refreshToken == "" {
		return
	}

	claims, err := s.tm.ValidateTokenOfType(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		return
	}

	if err := s.revokeRepo.RevokeToken(ctx, claims.ID, claims.UserID, models.TokenTypeRefresh, s.expiresAt(claims), "logout"); err != nil {
		s.logger.Error("failed to revoke refresh token on logout", slog.Any("error", err))
		return
	}
	s.audit(pkglogger.EventLogout, claims.UserID, claims.Email, ipAddress, userAgent, true, "")
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	accessToken, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	refreshToken, err := s.tm.GenerateRefreshToken(user)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    s.tm.AccessTokenExpiry(),
		RefreshTTL:   s.tm.RefreshTokenExpiry(),
		User:         userModelToResponse(user),
	}, nil
}

// expiresAt bounds how long a revocation has to be remembered
func (s *AuthService) expiresAt(claims *models.TokenClaims) time.Time {
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return s.now().Add(s.tm.RefreshTokenExpiry())
}

func (s *AuthService) loginFailed(ctx context.Context, userID, email, ipAddress, userAgent, reason string) {
	if s.rateLimiter != nil {
		if err := s.rateLimiter.RecordLoginAttempt(ctx, email, ipAddress, userAgent, false, &reason); err != nil {
			s.logger.Warn("failed to record login attempt", slog.Any("error", err))
		}
	}
	s.audit(pkglogger.EventLoginFailed, userID, email, ipAddress, userAgent, false, reason)
}

func (s *AuthService) audit(eventType, userID, email, ipAddress, userAgent string, success bool, reason string) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     eventType,
		UserID:        userID,
		Email:         email,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		Success:       success,
		FailureReason: reason,
	})
}

func userModelToResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		ts := user.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &ts
	}
	return resp
}
