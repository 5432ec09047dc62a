package remote

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultURL is used when no server is configured.
const DefaultURL = "http://127.0.0.1:5000"

// ClientConfig is the client-side configuration file.
type ClientConfig struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout,omitempty"`
}

// DefaultClientConfigPath returns <user config dir>/gatekeeper/client.toml.
func DefaultClientConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.Getenv("HOME")
	}
	return filepath.Join(dir, "gatekeeper", "client.toml")
}

// LoadClientConfig reads path. A missing file yields the defaults.
func LoadClientConfig(path string) (*ClientConfig, error) {
	if path == "" {
		path = DefaultClientConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ClientConfig{URL: DefaultURL}, nil
		}
		return nil, fmt.Errorf("failed to read client config: %w", err)
	}

	var cfg ClientConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	return &cfg, nil
}

// SaveClientConfig writes cfg to path with owner-only permissions.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	if path == "" {
		path = DefaultClientConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write client config: %w", err)
	}
	return nil
}

// TimeoutOr parses the configured timeout, falling back to def.
func (c *ClientConfig) TimeoutOr(def time.Duration) (time.Duration, error) {
	if c.Timeout == "" {
		return def, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid client timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// ResolveURL picks the server URL. Precedence: flag, then the
// GATEKEEPER_URL environment variable, then the config file.
func ResolveURL(flagURL, configPath string) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}
	if env := os.Getenv("GATEKEEPER_URL"); env != "" {
		return env, nil
	}
	cfg, err := LoadClientConfig(configPath)
	if err != nil {
		return "", err
	}
	return cfg.URL, nil
}
