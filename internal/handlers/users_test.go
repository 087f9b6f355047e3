package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/handlers"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestMe_ReturnsProfile(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		GetProfileFunc: func(ctx context.Context, id string) (*services.UserResponse, error) {
			return &services.UserResponse{ID: id, Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}, nil
		},
	}
	handler := handlers.NewUserHandler(mockUsers)
	req := handlers.WithAuthContext(httptest.NewRequest(http.MethodGet, "/users/me", nil), "user-1", "admin@example.com")

	w := httptest.NewRecorder()
	handler.Me(w, req)

	var resp services.UserResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "user-1", resp.ID)
	assert.Equal(t, "admin@example.com", resp.Email)
}

func TestMe_Errors(t *testing.T) {
	tests := []struct {
		name       string
		withAuth   bool
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{"no claims", false, nil, http.StatusUnauthorized, "unauthorized"},
		{"user gone", true, models.ErrNotFound, http.StatusUnauthorized, "unauthorized"},
		{"service failure", true, errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewUserHandler(&handlers.MockUserService{
				GetProfileFunc: func(ctx context.Context, id string) (*services.UserResponse, error) {
					return nil, tt.serviceErr
				},
			})
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.withAuth {
				req = handlers.WithAuthContext(req, "user-1", "admin@example.com")
			}

			w := httptest.NewRecorder()
			handler.Me(w, req)

			handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantError)
		})
	}
}
