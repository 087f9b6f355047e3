package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/repositories"
	pkgauth "github.com/mss-project-web/admin-dashboard-sub000/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestUserService_GetProfile(t *testing.T) {
	user := NewTestUser("user-1", "admin@example.com", "Admin")
	svc := NewUserService(&MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}, quietLogger())

	profile, err := svc.GetProfile(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.ID)
	assert.Equal(t, "admin@example.com", profile.Email)
	assert.Equal(t, models.RoleAdmin, profile.Role)
	assert.Nil(t, profile.LastLoginAt)
}

func TestUserService_GetProfile_Errors(t *testing.T) {
	svc := NewUserService(&MockUserRepository{}, quietLogger())
	_, err := svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	svc = NewUserService(&MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, errors.New("boom")
		},
	}, quietLogger())
	_, err = svc.GetProfile(context.Background(), "user-1")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	repo := repositories.NewUserRepository()
	svc := NewUserService(repo, quietLogger())

	created, err := svc.EnsureAdmin(context.Background(), "admin@example.com", "CorrectHorse1!", "Admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.NoError(t, pkgauth.ComparePassword(created.PasswordHash, "CorrectHorse1!"))

	// Second call keeps the existing account
	again, err := svc.EnsureAdmin(context.Background(), "admin@example.com", "SomethingElse99", "Admin")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.NoError(t, pkgauth.ComparePassword(again.PasswordHash, "CorrectHorse1!"))
}

func TestUserService_EnsureAdmin_WeakPassword(t *testing.T) {
	svc := NewUserService(repositories.NewUserRepository(), quietLogger())

	_, err := svc.EnsureAdmin(context.Background(), "admin@example.com", "short", "Admin")

	assert.Error(t, err)
}
