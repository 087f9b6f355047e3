package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/auth"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	pkglogger "github.com/mss-project-web/admin-dashboard-sub000/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-long-enough-32"

type authFixture struct {
	svc     *AuthService
	tm      *auth.TokenManager
	users   *MockUserRepository
	revoke  *MockTokenRevocationRepository
	limiter *MockLoginRateLimiter
	user    *models.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("CorrectHorse1!"), bcrypt.MinCost)
	require.NoError(t, err)
	user := NewTestUserWithPassword("user-1", "admin@example.com", "Admin", string(hash))

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == user.Email {
				u := *user
				return &u, nil
			}
			return nil, models.ErrNotFound
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id == user.ID {
				u := *user
				return &u, nil
			}
			return nil, models.ErrNotFound
		},
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	tm := auth.NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour)
	revoke := &MockTokenRevocationRepository{}
	limiter := &MockLoginRateLimiter{}

	return &authFixture{
		svc:     NewAuthService(users, tm, revoke, limiter, nil, logger, pkglogger.NewAuditLogger(logger)),
		tm:      tm,
		users:   users,
		revoke:  revoke,
		limiter: limiter,
		user:    user,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t)
	var touched bool
	f.users.TouchLastLoginFunc = func(ctx context.Context, id string, at time.Time) error {
		touched = id == f.user.ID
		return nil
	}

	sess, err := f.svc.Login(context.Background(), "  Admin@Example.com ", "CorrectHorse1!", "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, 15*time.Minute, sess.AccessTTL)
	assert.Equal(t, 24*time.Hour, sess.RefreshTTL)
	assert.Equal(t, "admin@example.com", sess.User.Email)
	assert.NotNil(t, sess.User.LastLoginAt)
	assert.True(t, touched)

	claims, err := f.tm.ValidateTokenOfType(sess.AccessToken, models.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, claims.UserID)

	require.Len(t, f.limiter.Attempts, 1)
	assert.True(t, f.limiter.Attempts[0].Success)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	sess, err := f.svc.Login(context.Background(), "admin@example.com", "wrong-password", "10.0.0.1", "test-agent")

	assert.Nil(t, sess)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	require.Len(t, f.limiter.Attempts, 1)
	assert.False(t, f.limiter.Attempts[0].Success)
	assert.Equal(t, "invalid_credentials", *f.limiter.Attempts[0].FailureReason)
}

func TestAuthService_Login_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "nobody@example.com", "CorrectHorse1!", "10.0.0.1", "test-agent")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Login_EmptyCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "", "x", "10.0.0.1", "test-agent")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.svc.Login(context.Background(), "admin@example.com", "", "10.0.0.1", "test-agent")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Empty(t, f.limiter.Attempts)
}

func TestAuthService_Login_Locked(t *testing.T) {
	f := newAuthFixture(t)
	f.limiter.CheckRateLimitFunc = func(ctx context.Context, email, ip string) (bool, time.Duration, error) {
		return false, 42 * time.Second, nil
	}

	_, err := f.svc.Login(context.Background(), "admin@example.com", "CorrectHorse1!", "10.0.0.1", "test-agent")

	var locked *LockedOutError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 42*time.Second, locked.RetryAfter)
	assert.ErrorIs(t, err, models.ErrAccountLocked)
}

func TestAuthService_Login_IPRateLimited(t *testing.T) {
	f := newAuthFixture(t)
	f.limiter.CheckRateLimitFunc = func(ctx context.Context, email, ip string) (bool, time.Duration, error) {
		return false, 0, models.ErrRateLimitExceeded
	}

	_, err := f.svc.Login(context.Background(), "admin@example.com", "CorrectHorse1!", "10.0.0.1", "test-agent")

	assert.ErrorIs(t, err, models.ErrRateLimitExceeded)
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.user.Status = models.StatusDisabled

	_, err := f.svc.Login(context.Background(), "admin@example.com", "CorrectHorse1!", "10.0.0.1", "test-agent")

	assert.ErrorIs(t, err, models.ErrAccountDisabled)
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	f := newAuthFixture(t)
	f.users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return nil, errors.New("connection reset")
	}

	_, err := f.svc.Login(context.Background(), "admin@example.com", "CorrectHorse1!", "10.0.0.1", "test-agent")

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_Refresh_RotatesAndRevokesOldToken(t *testing.T) {
	f := newAuthFixture(t)
	sess, err := f.svc.Login(context.Background(), "admin@example.com", "CorrectHorse1!", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	oldClaims, err := f.tm.ValidateToken(sess.RefreshToken)
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(context.Background(), sess.RefreshToken, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, refreshed.RefreshToken)
	reason, ok := f.revoke.RevokedReason(oldClaims.ID)
	assert.True(t, ok)
	assert.Equal(t, "rotated", reason)

	// Replaying the old token fails
	_, err = f.svc.Refresh(context.Background(), sess.RefreshToken, "10.0.0.1", "test-agent")
	assert.ErrorIs(t, err, models.ErrTokenRevoked)
}

func TestAuthService_Refresh_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	access, err := f.tm.GenerateAccessToken(f.user)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", models.ErrMissingSession},
		{"garbage", "not-a-jwt", models.ErrUnauthorized},
		{"access token", access, models.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Refresh(context.Background(), tt.token, "10.0.0.1", "test-agent")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_Refresh_DeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	refresh, err := f.tm.GenerateRefreshToken(f.user)
	require.NoError(t, err)
	f.users.GetByIDFunc = nil

	_, err = f.svc.Refresh(context.Background(), refresh, "10.0.0.1", "test-agent")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	refresh, err := f.tm.GenerateRefreshToken(f.user)
	require.NoError(t, err)
	claims, err := f.tm.ValidateToken(refresh)
	require.NoError(t, err)

	f.svc.Logout(context.Background(), refresh, "10.0.0.1", "test-agent")

	reason, ok := f.revoke.RevokedReason(claims.ID)
	assert.True(t, ok)
	assert.Equal(t, "logout", reason)
}

func TestAuthService_Logout_IgnoresBadTokens(t *testing.T) {
	f := newAuthFixture(t)
	f.revoke.RevokeTokenFunc = func(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error {
		t.Error("nothing should be revoked")
		return nil
	}

	f.svc.Logout(context.Background(), "", "10.0.0.1", "test-agent")
	f.svc.Logout(context.Background(), "garbage", "10.0.0.1", "test-agent")
}
