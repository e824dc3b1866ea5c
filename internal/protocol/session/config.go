package session

import (
	"time"

	"github.com/krozgrov/nestwire/internal/protocol/frame"
)

// Config defines session read and reconnect behavior.
type Config struct {
	// ReadChunkSize is the transport read buffer size.
	ReadChunkSize int
	// HighWaterMark is passed to the frame buffer; growth beyond it is
	// reported, never truncated.
	HighWaterMark int
	// KeepaliveInterval is the idle sleep applied when a read yields no
	// data. It only yields control, nothing is sent on the wire.
	KeepaliveInterval time.Duration
	// Retry decides the wait between reconnect attempts. The default is
	// the observed server behavior, a fixed 10 second delay with no cap
	// and no jitter.
	Retry RetryPolicy
}

// DefaultConfig returns the defaults matching observed stream behavior.
func DefaultConfig() Config {
	return Config{
		ReadChunkSize:     4096,
		HighWaterMark:     frame.DefaultHighWaterMark,
		KeepaliveInterval: 500 * time.Millisecond,
		Retry:             FixedDelay{Delay: 10 * time.Second},
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ReadChunkSize <= 0 {
		c.ReadChunkSize = def.ReadChunkSize
	}
	if c.HighWaterMark <= 0 {
		c.HighWaterMark = def.HighWaterMark
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = def.KeepaliveInterval
	}
	if c.Retry == nil {
		c.Retry = def.Retry
	}
	return c
}
