package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Port != 3000 || cfg.Mode != "release" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.PingPeriod != 30*time.Second {
		t.Fatalf("ping period = %v", cfg.PingPeriod)
	}
	if cfg.ReadLimit != 10<<20 {
		t.Fatalf("read limit = %d", cfg.ReadLimit)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.Upstream.Enabled {
		t.Fatal("upstream must be off by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
mode: debug
port: 8081
ping_period: 15s
send_buffer: 8
rate_limit:
  rps: 0
upstream:
  enabled: true
  url: wss://relay.example.com/v1/realtime
  headers:
    OpenAI-Beta: realtime=v1
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Mode != "debug" || cfg.Port != 8081 || cfg.SendBuffer != 8 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.PingPeriod != 15*time.Second {
		t.Fatalf("ping period = %v", cfg.PingPeriod)
	}
	if !cfg.Upstream.Enabled || cfg.Upstream.DialTimeout != 10*time.Second {
		t.Fatalf("upstream = %+v", cfg.Upstream)
	}
	if len(cfg.Upstream.Headers) != 1 {
		t.Fatalf("headers = %v", cfg.Upstream.Headers)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("UPSTREAM_API_KEY", "sk-test")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Port != 9999 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.Upstream.APIKey != "sk-test" {
		t.Fatalf("api key = %q", cfg.Upstream.APIKey)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		return Config{
			Mode:       "release",
			Port:       3000,
			ReadLimit:  1024,
			PingPeriod: time.Second,
			WriteWait:  time.Second,
			SendBuffer: 4,
			RateLimit:  RateLimitConfig{RPS: 1, Burst: 1},
			Upstream:   UpstreamConfig{DialTimeout: time.Second},
		}
	}
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{"valid configuration", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"invalid mode", func(c *Config) { c.Mode = "prod" }, "invalid mode"},
		{"zero read limit", func(c *Config) { c.ReadLimit = 0 }, "read_limit"},
		{"zero send buffer", func(c *Config) { c.SendBuffer = 0 }, "send_buffer"},
		{"rate without burst", func(c *Config) { c.RateLimit.Burst = 0 }, "rate_limit.burst"},
		{"rate disabled", func(c *Config) { c.RateLimit = RateLimitConfig{} }, ""},
		{"upstream bad url", func(c *Config) {
			c.Upstream.Enabled = true
			c.Upstream.URL = "http://example.com"
		}, "upstream.url"},
		{"upstream ok", func(c *Config) {
			c.Upstream.Enabled = true
			c.Upstream.URL = "wss://example.com/relay"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Fatalf("error = %v, want containing %q", err, tt.errorMsg)
			}
		})
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := writeConfig(t, "port: [not, a, port\n")
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}
