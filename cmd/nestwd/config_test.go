package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/krozgrov/nestwire/internal/daemon"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServiceConfigDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
endpoint = "https://stream.example.com/observe"
token_file = "/run/secrets/nest-token"
observe_request_file = "observe.bin"
read_timeout = "90s"
read_chunk_size = 8192
retry_policy = "backoff"
retry_delay = "250ms"
backoff_max = "30s"
backoff_multiplier = 2.0
backoff_jitter = true
metrics_listen_addr = "127.0.0.1:9464"
`)

	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.EndpointURL != "https://stream.example.com/observe" {
		t.Fatalf("unexpected endpoint: %q", cfg.EndpointURL)
	}
	if cfg.TokenFile != "/run/secrets/nest-token" {
		t.Fatalf("unexpected token file: %q", cfg.TokenFile)
	}
	if cfg.TokenEnv != "NESTWIRE_TOKEN" {
		t.Fatalf("token env default lost: %q", cfg.TokenEnv)
	}
	if cfg.ReadTimeout != 90*time.Second {
		t.Fatalf("unexpected read timeout: %v", cfg.ReadTimeout)
	}
	if cfg.ReadChunkSize != 8192 {
		t.Fatalf("unexpected chunk size: %d", cfg.ReadChunkSize)
	}
	if cfg.RetryPolicy != daemon.RetryBackoff {
		t.Fatalf("unexpected retry policy: %q", cfg.RetryPolicy)
	}
	if cfg.RetryDelay != 250*time.Millisecond {
		t.Fatalf("unexpected retry delay: %v", cfg.RetryDelay)
	}
	if cfg.BackoffMax != 30*time.Second {
		t.Fatalf("unexpected backoff max: %v", cfg.BackoffMax)
	}
	if !cfg.BackoffJitter {
		t.Fatalf("expected jitter enabled")
	}
	if cfg.MetricsListenAddr != "127.0.0.1:9464" {
		t.Fatalf("unexpected metrics addr: %q", cfg.MetricsListenAddr)
	}
}

func TestLoadServiceConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
endpoint = "https://stream.example.com/observe"
`)

	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := daemon.DefaultServiceConfig()
	if cfg.RetryPolicy != def.RetryPolicy || cfg.RetryDelay != def.RetryDelay {
		t.Fatalf("retry defaults lost: %q %v", cfg.RetryPolicy, cfg.RetryDelay)
	}
	if cfg.ReadTimeout != def.ReadTimeout {
		t.Fatalf("read timeout default lost: %v", cfg.ReadTimeout)
	}
	if cfg.UserAgent != def.UserAgent {
		t.Fatalf("user agent default lost: %q", cfg.UserAgent)
	}
}

func TestLoadServiceConfigBadDuration(t *testing.T) {
	path := writeConfig(t, `
read_timeout = "abc"
`)
	if _, err := loadServiceConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadServiceConfigUnknownRetryPolicy(t *testing.T) {
	path := writeConfig(t, `
retry_policy = "sometimes"
`)
	if _, err := loadServiceConfig(path); err == nil {
		t.Fatalf("expected policy error")
	}
}
