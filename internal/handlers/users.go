package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/auth"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/services"
	pkghttp "github.com/mss-project-web/admin-dashboard-sub000/pkg/http"
)

// UserServiceInterface defines the interface for user business logic
type UserServiceInterface interface {
	GetProfile(ctx context.Context, id string) (*services.UserResponse, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// Me returns the signed-in admin's profile
//
// @Summary Current user
// @Produce json
// @Success 200 {object} services.UserResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The account behind a still-valid token is gone
			pkghttp.WriteUnauthorized(w, "Authentication required")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}
