package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRateLimitRepo fails every read
type failingRateLimitRepo struct{}

func (failingRateLimitRepo) RecordAttempt(context.Context, *models.LoginAttempt) error { return nil }
func (failingRateLimitRepo) GetFailedAttemptCount(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("storage down")
}
func (failingRateLimitRepo) GetRecentFailureTime(context.Context, string, time.Time) (*time.Time, error) {
	return nil, errors.New("storage down")
}
func (failingRateLimitRepo) GetFailedAttemptCountByIP(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("storage down")
}

func newTestRateLimitService(repo RateLimitRepository, now *time.Time) *RateLimitService {
	svc := NewRateLimitService(repo, DefaultRateLimitConfig(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	svc.now = func() time.Time { return *now }
	return svc
}

func failTimes(t *testing.T, svc *RateLimitService, email, ip string, n int) {
	t.Helper()
	reason := "invalid_credentials"
	for i := 0; i < n; i++ {
		require.NoError(t, svc.RecordLoginAttempt(context.Background(), email, ip, "test-agent", false, &reason))
	}
}

func TestRateLimitService_AllowsBelowThreshold(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(repositories.NewLoginAttemptRepository(), &now)

	failTimes(t, svc, "admin@example.com", "10.0.0.1", 4)

	allowed, retryAfter, err := svc.CheckRateLimit(context.Background(), "admin@example.com", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestRateLimitService_LocksAfterFiveFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(repositories.NewLoginAttemptRepository(), &now)

	failTimes(t, svc, "admin@example.com", "10.0.0.1", 5)
	now = now.Add(20 * time.Second)

	allowed, retryAfter, err := svc.CheckRateLimit(context.Background(), "admin@example.com", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 40*time.Second, retryAfter)

	// Other accounts are unaffected
	allowed, _, err = svc.CheckRateLimit(context.Background(), "other@example.com", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitService_LockExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(repositories.NewLoginAttemptRepository(), &now)

	failTimes(t, svc, "admin@example.com", "10.0.0.1", 5)
	now = now.Add(61 * time.Second)

	allowed, _, err := svc.CheckRateLimit(context.Background(), "admin@example.com", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitService_SuccessResetsCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(repositories.NewLoginAttemptRepository(), &now)

	failTimes(t, svc, "admin@example.com", "10.0.0.1", 4)
	require.NoError(t, svc.RecordLoginAttempt(context.Background(), "admin@example.com", "10.0.0.1", "test-agent", true, nil))
	failTimes(t, svc, "admin@example.com", "10.0.0.1", 1)

	allowed, _, err := svc.CheckRateLimit(context.Background(), "admin@example.com", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitService_IPBudget(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(repositories.NewLoginAttemptRepository(), &now)
	svc.config.MaxAttemptsPerIP = 3

	failTimes(t, svc, "a@example.com", "10.0.0.9", 1)
	failTimes(t, svc, "b@example.com", "10.0.0.9", 1)
	failTimes(t, svc, "c@example.com", "10.0.0.9", 1)

	allowed, _, err := svc.CheckRateLimit(context.Background(), "d@example.com", "10.0.0.9")
	assert.False(t, allowed)
	assert.ErrorIs(t, err, models.ErrRateLimitExceeded)
}

func TestRateLimitService_FailsOpenOnStorageError(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(failingRateLimitRepo{}, &now)

	allowed, _, err := svc.CheckRateLimit(context.Background(), "admin@example.com", "10.0.0.1")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestGenerateDeviceFingerprint(t *testing.T) {
	a := generateDeviceFingerprint("10.0.0.1", "agent")
	assert.Len(t, a, 32)
	assert.Equal(t, a, generateDeviceFingerprint("10.0.0.1", "agent"))
	assert.NotEqual(t, a, generateDeviceFingerprint("10.0.0.2", "agent"))
}
