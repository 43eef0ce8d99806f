package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `json:"server"`
	Strava StravaConfig `json:"strava"`
	Refine RefineConfig `json:"refine"`
	Cache  CacheConfig  `json:"cache"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr        string `json:"addr"`
	Env         string `json:"env"` // "development" or "production"
	CallbackURL string `json:"callback_url"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// RefineConfig holds the AI-refinement upstream settings. The endpoint is
// advisory only; an empty APIKey disables it.
type RefineConfig struct {
	URL    string `json:"url"`
	Model  string `json:"model"`
	APIKey string `json:"api_key"`
}

// CacheConfig holds TTLs in seconds for the boundary caches
type CacheConfig struct {
	MetricsTTLSeconds int `json:"metrics_ttl_seconds"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			Env:         "development",
			CallbackURL: "http://localhost:8080/api/strava/callback",
		},
		Refine: RefineConfig{
			URL:   "https://api.openai.com/v1/chat/completions",
			Model: "gpt-4o-mini",
		},
		Cache: CacheConfig{
			MetricsTTLSeconds: 900,
		},
	}
}

// Load reads the configuration from ~/.trailprep/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = defaults.Server.Env
	}
	if cfg.Server.CallbackURL == "" {
		cfg.Server.CallbackURL = defaults.Server.CallbackURL
	}
	if cfg.Refine.URL == "" {
		cfg.Refine.URL = defaults.Refine.URL
	}
	if cfg.Refine.Model == "" {
		cfg.Refine.Model = defaults.Refine.Model
	}
	if cfg.Cache.MetricsTTLSeconds == 0 {
		cfg.Cache.MetricsTTLSeconds = defaults.Cache.MetricsTTLSeconds
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.trailprep/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}

	return Save(&example)
}

// Validate checks if the config has required fields. Strava credentials are
// required; the refine upstream is optional.
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	if c.Server.Env != "development" && c.Server.Env != "production" {
		return fmt.Errorf("server.env must be \"development\" or \"production\", got %q", c.Server.Env)
	}
	if c.Cache.MetricsTTLSeconds < 0 {
		return fmt.Errorf("cache.metrics_ttl_seconds must not be negative, got %d", c.Cache.MetricsTTLSeconds)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".trailprep", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".trailprep"), nil
}
