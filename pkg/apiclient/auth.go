package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// Login authenticates against the API. On success the server sets the
// session cookies and the jar keeps them. A 401 here is a rejected login
// and is returned as-is, never retried.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := validate.Struct(creds); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("%w: %s failed %q check", ErrInvalidCredentials, strings.ToLower(ve[0].Field()), ve[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	req, err := NewJSONRequest(http.MethodPost, LoginPath, creds)
	if err != nil {
		return err
	}
	if _, err := c.Do(ctx, req); err != nil {
		return err
	}
	return nil
}

// Refresh asks the server to renew the session cookies. It carries no
// body; the refresh cookie is all the server needs.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: RefreshPath})
	return err
}

// Logout ends the session on the server and, once it succeeds, navigates
// to the login screen with the logged-out marker.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.Do(ctx, Request{Method: http.MethodPost, Path: LogoutPath}); err != nil {
		return err
	}
	c.navigator.Navigate(LoggedOutTarget)
	return nil
}
