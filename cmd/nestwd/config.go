package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/krozgrov/nestwire/internal/daemon"
)

type fileConfig struct {
	Endpoint           string `toml:"endpoint"`
	TokenFile          string `toml:"token_file"`
	TokenEnv           string `toml:"token_env"`
	ObserveRequestFile string `toml:"observe_request_file"`
	UserAgent          string `toml:"user_agent"`

	ReadTimeout       string `toml:"read_timeout"`
	ReadChunkSize     int    `toml:"read_chunk_size"`
	HighWaterMark     int    `toml:"high_water_mark"`
	KeepaliveInterval string `toml:"keepalive_interval"`

	RetryPolicy       string  `toml:"retry_policy"`
	RetryDelay        string  `toml:"retry_delay"`
	BackoffMax        string  `toml:"backoff_max"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	BackoffJitter     bool    `toml:"backoff_jitter"`

	MetricsListenAddr string `toml:"metrics_listen_addr"`
}

func loadServiceConfig(path string) (daemon.ServiceConfig, error) {
	cfg := daemon.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return daemon.ServiceConfig{}, fmt.Errorf("load nestwd config: %w", err)
	}

	if meta.IsDefined("endpoint") {
		cfg.EndpointURL = strings.TrimSpace(raw.Endpoint)
	}
	if meta.IsDefined("token_file") {
		cfg.TokenFile = strings.TrimSpace(raw.TokenFile)
	}
	if meta.IsDefined("token_env") {
		cfg.TokenEnv = strings.TrimSpace(raw.TokenEnv)
	}
	if meta.IsDefined("observe_request_file") {
		cfg.ObserveRequestFile = strings.TrimSpace(raw.ObserveRequestFile)
	}
	if meta.IsDefined("user_agent") {
		ua := strings.TrimSpace(raw.UserAgent)
		if ua != "" {
			cfg.UserAgent = ua
		}
	}

	if meta.IsDefined("read_timeout") {
		d, err := parseDuration(raw.ReadTimeout, "read_timeout")
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("read_chunk_size") {
		cfg.ReadChunkSize = raw.ReadChunkSize
	}
	if meta.IsDefined("high_water_mark") {
		cfg.HighWaterMark = raw.HighWaterMark
	}
	if meta.IsDefined("keepalive_interval") {
		d, err := parseDuration(raw.KeepaliveInterval, "keepalive_interval")
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.KeepaliveInterval = d
	}

	if meta.IsDefined("retry_policy") {
		policy := strings.TrimSpace(raw.RetryPolicy)
		if policy != daemon.RetryFixed && policy != daemon.RetryBackoff {
			return daemon.ServiceConfig{}, fmt.Errorf("unknown retry_policy %q", policy)
		}
		cfg.RetryPolicy = policy
	}
	if meta.IsDefined("retry_delay") {
		d, err := parseDuration(raw.RetryDelay, "retry_delay")
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.RetryDelay = d
	}
	if meta.IsDefined("backoff_max") {
		d, err := parseDuration(raw.BackoffMax, "backoff_max")
		if err != nil {
			return daemon.ServiceConfig{}, err
		}
		cfg.BackoffMax = d
	}
	if meta.IsDefined("backoff_multiplier") {
		cfg.BackoffMultiplier = raw.BackoffMultiplier
	}
	if meta.IsDefined("backoff_jitter") {
		cfg.BackoffJitter = raw.BackoffJitter
	}

	if meta.IsDefined("metrics_listen_addr") {
		cfg.MetricsListenAddr = strings.TrimSpace(raw.MetricsListenAddr)
	}

	return cfg, nil
}

func parseDuration(s, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
