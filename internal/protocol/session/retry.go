package session

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy decides how long to wait before reconnect attempt N
// (1-based). Attempts are unbounded; a policy shapes the delay only.
type RetryPolicy interface {
	NextDelay(attempt int) time.Duration
}

// FixedDelay waits the same interval before every attempt.
type FixedDelay struct {
	Delay time.Duration
}

func (f FixedDelay) NextDelay(int) time.Duration {
	return f.Delay
}

// Backoff grows the delay geometrically up to MaxDelay, with optional
// jitter in [0.5x, 1.5x).
type Backoff struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
	Rand         *rand.Rand
}

func (b Backoff) NextDelay(attempt int) time.Duration {
	if attempt <= 1 || b.InitialDelay <= 0 {
		return b.InitialDelay
	}
	mult := b.Multiplier
	if mult < 1.0 {
		mult = 1.0
	}
	delay := float64(b.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	if b.Jitter {
		f := 0.5
		if b.Rand != nil {
			f = 0.5 + b.Rand.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}
