package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	UserType  models.UserType `json:"userType"`
}

// AuthResponse is what both login and signup return on success.
type AuthResponse struct {
	Message     string             `json:"message"`
	AccessToken string             `json:"access_token"`
	User        models.UserProfile `json:"user"`
}

var errMissingToken = errors.New("backend response carried no access token")

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errMissingToken
	}
	return &resp, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errMissingToken
	}
	return &resp, nil
}

// Me returns the user id the backend associates with token.
func (c *Client) Me(ctx context.Context, token string) (models.UserID, error) {
	var id models.UserID
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &id); err != nil {
		return "", err
	}
	return id, nil
}
