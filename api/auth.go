package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/whispa-ai/whispad/internal/types"
)

// AuthResult is the outcome of a login, register, or token validation call.
// Client errors from the server (wrong password, taken email, expired token)
// are structured results with OK false, not errors; errors are reserved for
// transport failures.
type AuthResult struct {
	OK      bool
	Token   string
	Profile types.Profile
	Message string
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	FullName    string `json:"full_name"`
	PrivacyMode bool   `json:"privacy_mode"`
}

func (r authResponse) result() AuthResult {
	return AuthResult{
		OK:      true,
		Token:   r.AccessToken,
		Profile: types.Profile{FullName: r.FullName, PrivacyMode: r.PrivacyMode},
	}
}

// Login exchanges credentials for a bearer token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if email == "" || password == "" {
		return AuthResult{Message: "please enter email and password"}, nil
	}
	return c.authCall(ctx, "/auth/login", map[string]any{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and returns its token and profile. New
// accounts start with privacy mode enabled.
func (c *Client) Register(ctx context.Context, email, password, name string) (AuthResult, error) {
	if email == "" || password == "" || name == "" {
		return AuthResult{Message: "please enter email, password, and name"}, nil
	}
	return c.authCall(ctx, "/auth/register", map[string]any{
		"email":        email,
		"password":     password,
		"full_name":    name,
		"privacy_mode": true,
	})
}

func (c *Client) authCall(ctx context.Context, path string, body map[string]any) (AuthResult, error) {
	var resp authResponse
	err := c.postJSON(ctx, path, "", body, &resp)
	if err != nil {
		if status := httpStatus(err); status >= 400 && status < 500 {
			return AuthResult{Message: userFacing(err)}, nil
		}
		return AuthResult{}, fmt.Errorf("auth request: %w", err)
	}
	return resp.result(), nil
}

// ValidateToken checks whether token is still accepted by the service. An
// expired JWT short-circuits locally without a network round trip.
func (c *Client) ValidateToken(ctx context.Context, token string) (AuthResult, error) {
	if token == "" {
		return AuthResult{Message: "no stored token"}, nil
	}
	if expired(token) {
		return AuthResult{Message: "token expired"}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user/", nil)
	if err != nil {
		return AuthResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return AuthResult{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AuthResult{Message: fmt.Sprintf("token rejected (%d)", resp.StatusCode)}, nil
	}

	var body authResponse
	if err := decodeBody(resp, &body); err != nil {
		return AuthResult{}, err
	}
	res := body.result()
	if res.Token == "" {
		// The service may omit the token on validation; keep the one we have.
		res.Token = token
	}
	return res, nil
}

// expired reports whether token carries an exp claim in the past. Unparseable
// tokens are not treated as expired; the server stays authoritative.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
