package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/auth"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/services"
	pkghttp "github.com/mss-project-web/admin-dashboard-sub000/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*services.Session, error)
	Logout(ctx context.Context, refreshToken, ipAddress, userAgent string)
}

// AuthHandler handles authentication-related HTTP requests. Tokens are
// only ever handed out as httpOnly cookies.
type AuthHandler struct {
	service      AuthServiceInterface
	cookieConfig auth.CookieConfig
	ipConfig     *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, cookieConfig auth.CookieConfig, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		ipConfig:     ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles admin login
// @Summary Admin login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} object
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, "Invalid email or password format", err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	sess, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress, userAgent)
	if err != nil {
		var locked *services.LockedOutError
		switch {
		case errors.As(err, &locked):
			setRetryAfter(w, locked.RetryAfter.Seconds())
			pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again later.")
		case errors.Is(err, models.ErrRateLimitExceeded):
			pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again later.")
		case errors.Is(err, models.ErrUnauthorized),
			errors.Is(err, models.ErrAccountDisabled):
			// Same answer for every credential problem to prevent user enumeration
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookies(w, sess.AccessToken, sess.AccessTTL, sess.RefreshToken, sess.RefreshTTL, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, struct{}{})
}

// Refresh rotates the session cookies using the refresh cookie
// @Summary Refresh session
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := auth.GetRefreshTokenCookie(r)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Session expired")
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	sess, err := h.service.Refresh(r.Context(), refreshToken, ipAddress, r.Header.Get("User-Agent"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized),
			errors.Is(err, models.ErrTokenRevoked),
			errors.Is(err, models.ErrMissingSession),
			errors.Is(err, models.ErrAccountDisabled):
			auth.ClearSessionCookies(w, h.cookieConfig)
			pkghttp.WriteUnauthorized(w, "Session expired")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookies(w, sess.AccessToken, sess.AccessTTL, sess.RefreshToken, sess.RefreshTTL, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, struct{}{})
}

// Logout ends the session. It always succeeds and always clears the cookies.
// @Summary Logout
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if refreshToken, err := auth.GetRefreshTokenCookie(r); err == nil {
		ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
		h.service.Logout(r.Context(), refreshToken, ipAddress, r.Header.Get("User-Agent"))
	}

	auth.ClearSessionCookies(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

func setRetryAfter(w http.ResponseWriter, seconds float64) {
	if seconds <= 0 {
		return
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(seconds))))
}
