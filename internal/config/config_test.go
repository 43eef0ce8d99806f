package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Server.Env = %q, want %q", cfg.Server.Env, "development")
	}
	if cfg.Cache.MetricsTTLSeconds != 900 {
		t.Errorf("Cache.MetricsTTLSeconds = %v, want 900", cfg.Cache.MetricsTTLSeconds)
	}

	// Strava and refine credentials should be empty by default
	if cfg.Strava.ClientID != "" {
		t.Errorf("Strava.ClientID should be empty, got %q", cfg.Strava.ClientID)
	}
	if cfg.Refine.APIKey != "" {
		t.Errorf("Refine.APIKey should be empty, got %q", cfg.Refine.APIKey)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.Strava = StravaConfig{ClientID: "12345", ClientSecret: "abc123secret"}
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:        "empty client ID",
			mutate:      func(c *Config) { c.Strava.ClientID = "" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "placeholder client ID",
			mutate:      func(c *Config) { c.Strava.ClientID = "YOUR_CLIENT_ID" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "empty client secret",
			mutate:      func(c *Config) { c.Strava.ClientSecret = "" },
			expectError: true,
			errContains: "client_secret",
		},
		{
			name:        "placeholder client secret",
			mutate:      func(c *Config) { c.Strava.ClientSecret = "YOUR_CLIENT_SECRET" },
			expectError: true,
			errContains: "client_secret",
		},
		{
			name:        "bad env",
			mutate:      func(c *Config) { c.Server.Env = "staging" },
			expectError: true,
			errContains: "server.env",
		},
		{
			name:        "negative cache TTL",
			mutate:      func(c *Config) { c.Cache.MetricsTTLSeconds = -1 },
			expectError: true,
			errContains: "metrics_ttl_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
