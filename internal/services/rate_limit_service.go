package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	pkglogger "github.com/mss-project-web/admin-dashboard-sub000/pkg/logger"
)

// RateLimitRepository defines the storage the rate limiter needs
type RateLimitRepository interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	GetFailedAttemptCount(ctx context.Context, email string, since time.Time) (int, error)
	GetRecentFailureTime(ctx context.Context, email string, since time.Time) (*time.Time, error)
	GetFailedAttemptCountByIP(ctx context.Context, ipAddress string, since time.Time) (int, error)
}

// RateLimitConfig holds configuration for rate limiting behavior
type RateLimitConfig struct {
	MaxFailedAttemptsPerEmail int
	EmailLockoutDuration      time.Duration
	MaxAttemptsPerIP          int
	LookbackWindow            time.Duration
}

// DefaultRateLimitConfig mirrors the dashboard's own threshold so the
// server lock and the client countdown line up
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxFailedAttemptsPerEmail: 5,
		EmailLockoutDuration:      time.Minute,
		MaxAttemptsPerIP:          50,
		LookbackWindow:            15 * time.Minute,
	}
}

// RateLimitService is the server-side brute-force control for logins.
// Unlike the client-side counter it cannot be bypassed by clearing state.
type RateLimitService struct {
	repo   RateLimitRepository
	config RateLimitConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(repo RateLimitRepository, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// CheckRateLimit reports whether a login attempt may proceed. When the
// email is locked it returns false with the time left on the lock. An
// IP over its budget yields models.ErrRateLimitExceeded.
func (s *RateLimitService) CheckRateLimit(ctx context.Context, email, ipAddress string) (bool, time.Duration, error) {
	now := s.now()
	lookback := now.Add(-s.config.LookbackWindow)

	failedCount, err := s.repo.GetFailedAttemptCount(ctx, email, lookback)
	if err != nil {
		// Fail open: a storage error must not lock every admin out
		s.logger.Error("failed to check email rate limit", slog.Any("error", err))
		return true, 0, nil
	}

	if failedCount >= s.config.MaxFailedAttemptsPerEmail {
		lastFailure, err := s.repo.GetRecentFailureTime(ctx, email, lookback)
		if err != nil {
			s.logger.Error("failed to read last failure time", slog.Any("error", err))
			return true, 0, nil
		}
		if lastFailure != nil {
			if remaining := lastFailure.Add(s.config.EmailLockoutDuration).Sub(now); remaining > 0 {
				s.logger.Warn("account rate limited",
					pkglogger.EmailAttr(email),
					slog.Int("failed_attempts", failedCount),
					slog.Duration("remaining", remaining))
				return false, remaining, nil
			}
		}
	}

	if s.config.MaxAttemptsPerIP > 0 {
		ipAttempts, err := s.repo.GetFailedAttemptCountByIP(ctx, ipAddress, lookback)
		if err != nil {
			s.logger.Error("failed to check IP rate limit", slog.Any("error", err))
			return true, 0, nil
		}
		if ipAttempts >= s.config.MaxAttemptsPerIP {
			s.logger.Warn("IP rate limited",
				slog.String("ip_address", ipAddress),
				slog.Int("failed_attempts", ipAttempts))
			return false, 0, models.ErrRateLimitExceeded
		}
	}

	return true, 0, nil
}

// RecordLoginAttempt records the outcome of a login attempt
func (s *RateLimitService) RecordLoginAttempt(ctx context.Context, email, ipAddress, userAgent string, success bool, failureReason *string) error {
	now := s.now()
	return s.repo.RecordAttempt(ctx, &models.LoginAttempt{
		Email:             email,
		IPAddress:         ipAddress,
		UserAgent:         userAgent,
		AttemptTime:       now,
		Success:           success,
		FailureReason:     failureReason,
		DeviceFingerprint: generateDeviceFingerprint(ipAddress, userAgent),
		ExpiresAt:         now.Add(s.config.LookbackWindow * 2),
	})
}

// generateDeviceFingerprint hashes IP + User-Agent
func generateDeviceFingerprint(ipAddress, userAgent string) string {
	hash := sha256.Sum256([]byte(ipAddress + ":" + userAgent))
	return fmt.Sprintf("%x", hash)[:32]
}
