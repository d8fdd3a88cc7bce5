package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Fatalf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Logger.Logger != "zap" {
		t.Fatalf("Logger.Logger = %q, want zap", cfg.Logger.Logger)
	}
	if cfg.Relay.SendBuffer != 64 {
		t.Fatalf("Relay.SendBuffer = %d, want 64", cfg.Relay.SendBuffer)
	}
	if cfg.Relay.PongTimeout != 60*time.Second {
		t.Fatalf("Relay.PongTimeout = %v, want 60s", cfg.Relay.PongTimeout)
	}
	if cfg.Relay.RequireToken {
		t.Fatal("Relay.RequireToken should default to false")
	}
	if cfg.Mongo.Enabled || cfg.Redis.Enabled || cfg.RabbitMQ.Enabled {
		t.Fatal("external services should default to disabled")
	}
	if cfg.RateLimiter.MaxRatePerSecond != 10 || cfg.RateLimiter.MaxBurst != 20 {
		t.Fatalf("rate limiter defaults = %d/%d, want 10/20",
			cfg.RateLimiter.MaxRatePerSecond, cfg.RateLimiter.MaxBurst)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
http:
  host: 127.0.0.1
  port: 9999
relay:
  send_buffer: 8
  require_token: true
auth:
  secret: file-secret
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Host != "127.0.0.1" || cfg.HTTP.Port != 9999 {
		t.Fatalf("http = %s:%d, want 127.0.0.1:9999", cfg.HTTP.Host, cfg.HTTP.Port)
	}
	if cfg.Relay.SendBuffer != 8 {
		t.Fatalf("Relay.SendBuffer = %d, want 8", cfg.Relay.SendBuffer)
	}
	if !cfg.Relay.RequireToken {
		t.Fatal("Relay.RequireToken not read from file")
	}
	if cfg.Auth.Secret != "file-secret" {
		t.Fatalf("Auth.Secret = %q, want file-secret", cfg.Auth.Secret)
	}

	// Unset keys still fall back to defaults.
	if cfg.Relay.PingInterval != 25*time.Second {
		t.Fatalf("Relay.PingInterval = %v, want default 25s", cfg.Relay.PingInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("RABBITMQ_URI", "amqp://broker:5672/")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Port != 7070 {
		t.Fatalf("HTTP.Port = %d, want 7070", cfg.HTTP.Port)
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Fatalf("Auth.Secret = %q, want env-secret", cfg.Auth.Secret)
	}

	// Supplying a URI flips the feature on.
	if !cfg.Mongo.Enabled || cfg.Mongo.URI != "mongodb://db:27017" {
		t.Fatalf("mongo = %v/%q, want enabled with env URI", cfg.Mongo.Enabled, cfg.Mongo.URI)
	}
	if !cfg.RabbitMQ.Enabled || cfg.RabbitMQ.URI != "amqp://broker:5672/" {
		t.Fatalf("rabbitmq = %v/%q, want enabled with env URI", cfg.RabbitMQ.Enabled, cfg.RabbitMQ.URI)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load with a bad explicit path must fail")
	}
}
