// Package config handles application configuration and the persisted user
// credential.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/whispa-ai/whispad/internal/types"
)

const (
	appName        = "whispad"
	configFileName = "config.json"
)

// Config represents the persisted local state: the enabled flag, the user's
// profile, tracker settings, and the API endpoint. The bearer token is kept
// in the OS keyring (see credential.go); the Token field is only a fallback
// for hosts without a keyring service.
type Config struct {
	Enabled bool           `json:"enabled"`
	Profile *types.Profile `json:"profile,omitempty"`

	Tracker types.TrackerSettings `json:"tracker,omitempty"`

	APIBaseURL string `json:"api_base_url,omitempty"`

	// FallbackToken is the keyring fallback slot. Empty when the keyring
	// holds the credential.
	FallbackToken string `json:"token,omitempty"`
}

// Load loads configuration from the config file. Returns a default config if
// the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetTracker updates the tracker settings and saves.
func (c *Config) SetTracker(settings types.TrackerSettings) error {
	c.Tracker = settings
	return c.Save()
}

// BaseURL returns the configured API endpoint, empty when the default
// applies.
func (c *Config) BaseURL() string {
	return c.APIBaseURL
}

func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(configDir, appName, configFileName), nil
}
