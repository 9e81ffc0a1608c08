package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/todochimp/chimp/internal/model"
)

// RegisterRequest carries the signup form. InviteToken is set when the user
// arrived through an organization invite link.
type RegisterRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organizationName,omitempty"`
	InviteToken      string `json:"inviteToken,omitempty"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a session and installs the token on the
// client.
func (c *Client) Login(email, password string) (model.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return model.Session{}, err
	}
	c.SetToken(resp.Token)
	return model.Session{User: resp.User, Token: resp.Token, SavedAt: time.Now()}, nil
}

// Register creates an account and returns the fresh session.
func (c *Client) Register(req RegisterRequest) (model.Session, error) {
	var resp authResponse
	if err := c.do(http.MethodPost, "/api/auth/register", nil, req, &resp); err != nil {
		return model.Session{}, err
	}
	c.SetToken(resp.Token)
	return model.Session{User: resp.User, Token: resp.Token, SavedAt: time.Now()}, nil
}

// ForgotPassword asks the backend to mail a reset link.
func (c *Client) ForgotPassword(email string) error {
	body := map[string]string{"email": email}
	return c.do(http.MethodPost, "/api/auth/forgotPassword", nil, body, nil)
}

// ResetPassword sets a new password using the token from the reset link.
func (c *Client) ResetPassword(token, password string) error {
	query := url.Values{"token": {token}}
	body := map[string]string{"password": password}
	return c.do(http.MethodPost, "/api/auth/resetPassword", query, body, nil)
}

// Me returns the account behind the installed token. Used to revalidate a
// hydrated session at startup.
func (c *Client) Me() (model.User, error) {
	var user model.User
	if err := c.do(http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}
