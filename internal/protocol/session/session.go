// Package session drives the observe stream end to end: it opens a
// transport read, reassembles frames, decodes envelopes into the
// aggregate, and emits snapshots to the consumer. Transport failures
// reconnect forever; only caller cancellation ends the loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/krozgrov/nestwire/internal/observability"
	"github.com/krozgrov/nestwire/internal/protocol/envelope"
	"github.com/krozgrov/nestwire/internal/protocol/frame"
	"github.com/krozgrov/nestwire/internal/protocol/trait"
	"github.com/krozgrov/nestwire/internal/state"
)

// ErrStreamClosed reports a stream the server ended cleanly. The session
// treats it like any other transport failure and reconnects.
var ErrStreamClosed = errors.New("session: stream closed by server")

// Transport opens one streaming read attempt. Implementations own
// endpoint, headers and request body; the session only consumes bytes.
type Transport interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Session owns one observe stream: the frame buffer, the aggregate and
// the reconnect loop. State accumulated in the aggregate survives
// reconnects; the frame buffer is reset on every connect.
//
// A session is single-consumer: exactly one goroutine runs the decode
// loop, so the buffer and aggregate need no locking.
type Session struct {
	cfg        Config
	transport  Transport
	dispatcher *trait.Dispatcher
	agg        *state.Aggregate
	buf        *frame.Buffer
}

func New(t Transport, cfg Config) *Session {
	cfg = cfg.WithDefaults()
	d := trait.NewDispatcher()
	return &Session{
		cfg:        cfg,
		transport:  t,
		dispatcher: d,
		agg:        state.NewAggregate(d),
		buf:        frame.NewBuffer(cfg.HighWaterMark),
	}
}

// Stream starts the connect/read/decode loop and returns the snapshot
// channel. A snapshot is emitted whenever the aggregate changes; an
// empty sentinel snapshot is emitted on every disconnect. The channel
// closes when ctx is cancelled. Sends block until the consumer pulls,
// which simply delays the next transport read.
func (s *Session) Stream(ctx context.Context) <-chan state.Snapshot {
	updates := make(chan state.Snapshot)
	go s.run(ctx, updates)
	return updates
}

func (s *Session) run(ctx context.Context, updates chan<- state.Snapshot) {
	defer close(updates)
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		attempt++
		progressed, err := s.streamOnce(ctx, updates)
		if ctx.Err() != nil {
			return
		}
		if progressed {
			attempt = 1
		}
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("stream disconnected")
		if !emit(ctx, updates, state.Snapshot{}) {
			return
		}
		observability.RecordReconnect()
		if !sleepCtx(ctx, s.cfg.Retry.NextDelay(attempt)) {
			return
		}
	}
}

// streamOnce runs a single connect attempt until the transport fails.
// progressed reports whether at least one frame decoded, which resets
// the retry attempt counter.
func (s *Session) streamOnce(ctx context.Context, updates chan<- state.Snapshot) (progressed bool, err error) {
	rc, err := s.transport.Open(ctx)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { rc.Close() })
	defer stop()
	defer rc.Close()

	log.Info().Msg("stream connected")
	s.buf.Reset()

	chunk := make([]byte, s.cfg.ReadChunkSize)
	for {
		n, rerr := rc.Read(chunk)
		if n > 0 {
			if s.consume(ctx, updates, chunk[:n]) {
				progressed = true
			}
			if ctx.Err() != nil {
				return progressed, ctx.Err()
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return progressed, ErrStreamClosed
			}
			return progressed, fmt.Errorf("read: %w", rerr)
		}
		if n == 0 && !sleepCtx(ctx, s.cfg.KeepaliveInterval) {
			return progressed, ctx.Err()
		}
	}
}

// consume ingests one chunk and decodes every frame it completes.
// Malformed frames are logged and skipped, never fatal. It reports
// whether any envelope decoded.
func (s *Session) consume(ctx context.Context, updates chan<- state.Snapshot, chunk []byte) bool {
	// Some server versions send a bare StreamBody with no length prefix.
	// Try the direct parse first, but only between frames and only when
	// it yields actual get operations; otherwise fall through to the
	// length-prefixed path.
	if s.buf.Empty() {
		if env, ok := sniffBody(chunk); ok {
			log.Debug().Int("len", len(chunk)).Msg("unframed stream body accepted")
			if s.agg.Apply(env) {
				emit(ctx, updates, s.agg.Snapshot())
			}
			return true
		}
	}

	// One extraction pass per ingested chunk: a frame deferred by the
	// prefix re-read window stays buffered until the next read delivers
	// more bytes.
	s.buf.Ingest(chunk)
	decoded := false
	for _, fr := range s.buf.ExtractReady() {
		env, err := envelope.Decode(fr)
		if err != nil {
			observability.RecordFrameDecodeFailure()
			log.Warn().Err(err).Int("frame_len", len(fr)).Msg("frame dropped")
			continue
		}
		decoded = true
		if s.agg.Apply(env) && !emit(ctx, updates, s.agg.Snapshot()) {
			return decoded
		}
	}
	return decoded
}

// Refresh performs a one-shot read: it opens the transport and reads
// until the aggregate holds lock data, returning that snapshot. Frames
// carrying only identity or structure traits are absorbed, not returned.
// On transport failure the sentinel empty snapshot is returned alongside
// the error.
func (s *Session) Refresh(ctx context.Context) (state.Snapshot, error) {
	rc, err := s.transport.Open(ctx)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("connect: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { rc.Close() })
	defer stop()
	defer rc.Close()

	s.buf.Reset()
	chunk := make([]byte, s.cfg.ReadChunkSize)
	for {
		n, rerr := rc.Read(chunk)
		if n > 0 {
			s.buf.Ingest(chunk[:n])
			for _, fr := range s.buf.ExtractReady() {
				env, derr := envelope.Decode(fr)
				if derr != nil {
					observability.RecordFrameDecodeFailure()
					continue
				}
				if !s.agg.Apply(env) {
					continue
				}
				if snap := s.agg.Snapshot(); len(snap.Devices) > 0 {
					return snap, nil
				}
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return state.Snapshot{}, ErrStreamClosed
			}
			return state.Snapshot{}, fmt.Errorf("read: %w", rerr)
		}
	}
}

func sniffBody(raw []byte) (envelope.Envelope, bool) {
	env, err := envelope.Decode(raw)
	if err != nil {
		return envelope.Envelope{}, false
	}
	ops := 0
	for _, sub := range env.Messages {
		ops += len(sub.Gets)
	}
	return env, ops > 0
}

func emit(ctx context.Context, updates chan<- state.Snapshot, snap state.Snapshot) bool {
	select {
	case updates <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
