package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != StorageDriverPostgres {
		t.Errorf("expected postgres driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Redis.ReputationTTL != 10*time.Minute {
		t.Errorf("expected 10m reputation TTL, got %v", cfg.Redis.ReputationTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REPUTATION_CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.Storage.Driver)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Redis.ReputationTTL != 30*time.Second {
		t.Errorf("expected 30s TTL, got %v", cfg.Redis.ReputationTTL)
	}
	if cfg.RateLimit.Enabled {
		t.Error("expected rate limit disabled")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Env: "development"},
			Database:  DatabaseConfig{MaxConns: 10, MinConns: 1},
			Storage:   StorageConfig{Driver: StorageDriverPostgres},
			RateLimit: RateLimitConfig{Enabled: true, Requests: 10, WindowSeconds: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"production without jwt secret", func(c *Config) { c.Server.Env = "production" }, true},
		{"production with memory storage", func(c *Config) {
			c.Server.Env = "production"
			c.JWT.Secret = "secret"
			c.Storage.Driver = StorageDriverMemory
		}, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, true},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 20 }, true},
		{"zero rate limit window", func(c *Config) { c.RateLimit.WindowSeconds = 0 }, true},
		{"zero rate limit disabled", func(c *Config) {
			c.RateLimit.Enabled = false
			c.RateLimit.WindowSeconds = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
