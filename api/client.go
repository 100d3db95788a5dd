// Package api is the stateless client for the remote Whispa service:
// authentication, audio transcription, streamed note generation, note
// persistence, and tracker issue creation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/whispa-ai/whispad/fault"
)

// DefaultBaseURL is the hosted service endpoint.
const DefaultBaseURL = "https://whispa-ai.onrender.com"

// TokenSource yields the current bearer credential. ok is false when the
// user is logged out or the extension is disabled.
type TokenSource interface {
	Token() (token string, ok bool)
}

// StaticToken is a fixed-credential TokenSource, used by the CLI.
type StaticToken string

func (s StaticToken) Token() (string, bool) { return string(s), s != "" }

// Client talks to the remote service. Methods return *fault.Error for
// service-level failures and plain wrapped errors for transport faults.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string      // optional, defaults to DefaultBaseURL
	Tokens  TokenSource // required for authenticated calls
	Timeout time.Duration
}

// New creates a Client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		tokens:  cfg.Tokens,
		http:    &http.Client{Timeout: timeout},
	}
}

// bearer returns the credential or an AuthMissing fault.
func (c *Client) bearer() (string, error) {
	if c.tokens == nil {
		return "", fault.New(fault.AuthMissing, "authentication token missing")
	}
	token, ok := c.tokens.Token()
	if !ok || token == "" {
		return "", fault.New(fault.AuthMissing, "authentication token missing")
	}
	return token, nil
}

// postJSON issues an authenticated JSON POST and decodes a 2xx body into out.
// Non-2xx responses become HTTPError faults with the body's detail field when
// present.
func (c *Client) postJSON(ctx context.Context, path, token string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fault.HTTP(resp.StatusCode, errorDetail(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// decodeBody decodes a JSON response body into out.
func decodeBody(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// httpStatus returns the HTTP status carried by an HTTPError fault, or zero.
func httpStatus(err error) int {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

// userFacing returns the displayable message for err.
func userFacing(err error) string {
	return fault.UserMessage(err)
}

// errorDetail extracts the service's "detail" field, falling back to the raw
// body.
func errorDetail(body []byte) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		return e.Detail
	}
	return string(body)
}
