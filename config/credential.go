package config

import (
	"errors"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "whispad"
	keyringUser    = "bearer-token"
)

// StoreToken writes the bearer credential to the OS keyring, falling back to
// the config file when no keyring service is available.
func (c *Config) StoreToken(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keyring unavailable, storing token in config file", "error", err)
		c.FallbackToken = token
		return c.Save()
	}
	if c.FallbackToken != "" {
		c.FallbackToken = ""
		return c.Save()
	}
	return nil
}

// Token implements the API client's TokenSource. ok is false when the user
// is logged out or the extension is disabled; disabled state withholds the
// credential even when one is stored.
func (c *Config) Token() (string, bool) {
	if !c.Enabled {
		return "", false
	}
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, true
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Warn("keyring read failed", "error", err)
	}
	if c.FallbackToken != "" {
		return c.FallbackToken, true
	}
	return "", false
}

// ClearToken removes the credential from both stores.
func (c *Config) ClearToken() error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Warn("keyring delete failed", "error", err)
	}
	if c.FallbackToken != "" {
		c.FallbackToken = ""
		return c.Save()
	}
	return nil
}
