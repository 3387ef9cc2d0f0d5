package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "test-secret-key-for-unit-testing"
escalation:
  schedule: "*/30 * * * *"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Escalation.Schedule != "*/30 * * * *" {
		t.Errorf("expected schedule from file, got %q", cfg.Escalation.Schedule)
	}
	if cfg.Escalation.LockTTL != 10*time.Minute {
		t.Errorf("expected default lock ttl 10m, got %s", cfg.Escalation.LockTTL)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected access ttl 15m, got %s", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "test-secret-key-for-unit-testing"
`)
	t.Setenv("SOLVEIT_SERVER_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected env port 9090, got %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 8080},
			Auth:       AuthConfig{JWTSecret: "0123456789abcdef"},
			Escalation: EscalationConfig{Enabled: true, Schedule: "@hourly", BatchSize: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad schedule", func(c *Config) { c.Escalation.Schedule = "every hour" }, true},
		{"bad schedule ignored when disabled", func(c *Config) {
			c.Escalation.Enabled = false
			c.Escalation.Schedule = "nope"
		}, false},
		{"zero batch", func(c *Config) { c.Escalation.BatchSize = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
