package frame

import (
	"github.com/rs/zerolog/log"

	"github.com/krozgrov/nestwire/internal/observability"
	"github.com/krozgrov/nestwire/internal/protocol/varint"
)

// DefaultHighWaterMark matches the bulk catalog burst threshold observed
// on the wire: a device-catalog snapshot arrives as one frame of roughly
// this size.
const DefaultHighWaterMark = 20 * 1024

// minPrefixWindow is the minimum number of buffered bytes required before
// a new length prefix is read eagerly after slicing a frame.
const minPrefixWindow = 5

// Buffer reassembles length-prefixed frames from arbitrarily-chunked
// input. One Buffer is owned by exactly one stream session and must not
// be shared.
type Buffer struct {
	buf        []byte
	pending    uint64
	hasPending bool

	highWater   int
	flaggedHigh bool
}

// NewBuffer returns an empty Buffer with the given high-water mark.
// A mark of 0 selects DefaultHighWaterMark.
func NewBuffer(highWater int) *Buffer {
	if highWater <= 0 {
		highWater = DefaultHighWaterMark
	}
	return &Buffer{highWater: highWater}
}

// Ingest appends one transport chunk. The chunk is copied; callers may
// reuse the slice.
func (b *Buffer) Ingest(chunk []byte) {
	b.buf = append(b.buf, chunk...)
	b.observeGrowth()
}

// Len reports the number of buffered, not yet extracted bytes.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Pending reports the currently expected frame length, if one has been
// read from the stream.
func (b *Buffer) Pending() (uint64, bool) {
	return b.pending, b.hasPending
}

// Empty reports whether the buffer holds no bytes and no pending length,
// i.e. the next chunk starts at a frame boundary.
func (b *Buffer) Empty() bool {
	return len(b.buf) == 0 && !b.hasPending
}

// Reset clears all buffered bytes and the pending length. Called on every
// reconnect.
func (b *Buffer) Reset() {
	b.buf = nil
	b.pending = 0
	b.hasPending = false
	b.flaggedHigh = false
}

// ExtractReady slices all complete frames currently available. Each
// returned frame is an independent copy. An incomplete length prefix or a
// partial frame leaves the buffer untouched until more bytes arrive. A
// zero-length prefix ends extraction for this pass. After a frame is
// sliced, the next prefix is read eagerly only if at least minPrefixWindow
// bytes remain; otherwise the read is deferred to the next pass.
func (b *Buffer) ExtractReady() [][]byte {
	var frames [][]byte
	for {
		if !b.hasPending {
			if len(b.buf) == 0 {
				break
			}
			v, n, ok := varint.Decode(b.buf, 0)
			if !ok {
				// Incomplete or malformed prefix; both recover by
				// waiting for more bytes.
				break
			}
			b.advance(n)
			if v == 0 {
				break
			}
			b.pending = v
			b.hasPending = true
		}
		if uint64(len(b.buf)) < b.pending {
			break
		}
		f := make([]byte, b.pending)
		copy(f, b.buf)
		b.advance(int(b.pending))
		frames = append(frames, f)
		observability.RecordFrameExtracted()
		b.pending = 0
		b.hasPending = false
		if len(b.buf) < minPrefixWindow {
			break
		}
	}
	if len(b.buf) < b.highWater {
		b.flaggedHigh = false
	}
	return frames
}

func (b *Buffer) advance(n int) {
	b.buf = b.buf[n:]
	if len(b.buf) == 0 {
		b.buf = nil
	}
}

// observeGrowth flags pathological buffer growth: a pending length has
// been read but the frame body keeps not arriving while the buffer climbs
// past the catalog threshold. Telemetry only, extraction is unaffected.
func (b *Buffer) observeGrowth() {
	if b.flaggedHigh || len(b.buf) < b.highWater || !b.hasPending {
		return
	}
	b.flaggedHigh = true
	observability.RecordBufferHighWater()
	log.Warn().
		Int("buffered", len(b.buf)).
		Uint64("pending", b.pending).
		Msg("frame buffer past high-water mark")
}
