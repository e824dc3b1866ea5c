// Package daemon wires the observe pipeline into a runnable service:
// credentials, transport, stream session, metrics endpoint, and snapshot
// logging.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/krozgrov/nestwire/internal/observability"
	"github.com/krozgrov/nestwire/internal/protocol/session"
	"github.com/krozgrov/nestwire/internal/transport"
)

var (
	ErrNoEndpoint = errors.New("daemon: endpoint url not configured")
	ErrNoToken    = errors.New("daemon: no access token available")
)

// Retry policy selectors for ServiceConfig.RetryPolicy.
const (
	RetryFixed   = "fixed"
	RetryBackoff = "backoff"
)

// ServiceConfig is the resolved daemon configuration.
type ServiceConfig struct {
	EndpointURL        string
	TokenFile          string
	TokenEnv           string
	ObserveRequestFile string
	UserAgent          string

	ReadTimeout       time.Duration
	ReadChunkSize     int
	HighWaterMark     int
	KeepaliveInterval time.Duration

	RetryPolicy       string
	RetryDelay        time.Duration
	BackoffMax        time.Duration
	BackoffMultiplier float64
	BackoffJitter     bool

	MetricsListenAddr string
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		TokenEnv:    "NESTWIRE_TOKEN",
		UserAgent:   "nestwire/1.0",
		ReadTimeout: 60 * time.Second,
		RetryPolicy: RetryFixed,
		RetryDelay:  10 * time.Second,
	}
}

// Service runs one observe stream until its context is cancelled.
type Service struct {
	cfg ServiceConfig
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.EndpointURL) == "" {
		return ErrNoEndpoint
	}
	token, err := resolveToken(s.cfg)
	if err != nil {
		return err
	}
	var body []byte
	if s.cfg.ObserveRequestFile != "" {
		body, err = os.ReadFile(s.cfg.ObserveRequestFile)
		if err != nil {
			return fmt.Errorf("daemon: read observe request: %w", err)
		}
	}

	client := transport.NewClient(nil, transport.StreamRequest{
		URL:     s.cfg.EndpointURL,
		Headers: transport.ObserveHeaders(token, s.cfg.UserAgent),
		Body:    body,
	}, s.cfg.ReadTimeout)

	sess := session.New(client, session.Config{
		ReadChunkSize:     s.cfg.ReadChunkSize,
		HighWaterMark:     s.cfg.HighWaterMark,
		KeepaliveInterval: s.cfg.KeepaliveInterval,
		Retry:             buildRetry(s.cfg),
	})

	if s.cfg.MetricsListenAddr != "" {
		stopMetrics := serveMetrics(ctx, s.cfg.MetricsListenAddr)
		defer stopMetrics()
	}

	log.Info().Str("endpoint", s.cfg.EndpointURL).Msg("observe stream starting")
	for snap := range sess.Stream(ctx) {
		if snap.Empty() {
			log.Warn().Msg("stream interrupted, reconnecting")
			continue
		}
		log.Info().
			Int("devices", len(snap.Devices)).
			Int("traits", len(snap.Traits)).
			Str("structure_id", snap.StructureID).
			Msg("state updated")
	}
	return nil
}

func resolveToken(cfg ServiceConfig) (string, error) {
	if cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("daemon: read token file: %w", err)
		}
		if token := strings.TrimSpace(string(raw)); token != "" {
			return token, nil
		}
	}
	if cfg.TokenEnv != "" {
		if token := strings.TrimSpace(os.Getenv(cfg.TokenEnv)); token != "" {
			return token, nil
		}
	}
	return "", ErrNoToken
}

func buildRetry(cfg ServiceConfig) session.RetryPolicy {
	if cfg.RetryPolicy == RetryBackoff {
		return session.Backoff{
			InitialDelay: cfg.RetryDelay,
			Multiplier:   cfg.BackoffMultiplier,
			MaxDelay:     cfg.BackoffMax,
			Jitter:       cfg.BackoffJitter,
		}
	}
	return session.FixedDelay{Delay: cfg.RetryDelay}
}

func serveMetrics(ctx context.Context, addr string) func() {
	observability.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics listener up")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics listener failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()
	return func() { srv.Close() }
}
