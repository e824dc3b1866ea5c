package frame

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/krozgrov/nestwire/internal/protocol/varint"
	"github.com/krozgrov/nestwire/internal/testutil/testlog"
)

func prefixed(payload []byte) []byte {
	return append(varint.Append(nil, uint64(len(payload))), payload...)
}

func drain(b *Buffer) [][]byte {
	var frames [][]byte
	for {
		got := b.ExtractReady()
		if len(got) == 0 {
			return frames
		}
		frames = append(frames, got...)
	}
}

func TestExtractSingleFrame(t *testing.T) {
	testlog.Start(t)
	payload := bytes.Repeat([]byte{0xAB}, 42)
	b := NewBuffer(0)
	b.Ingest(prefixed(payload))
	frames := drain(b)
	if len(frames) != 1 {
		t.Fatalf("frames=%d want 1", len(frames))
	}
	if !bytes.Equal(frames[0], payload) {
		t.Fatalf("payload mismatch")
	}
	if !b.Empty() {
		t.Fatalf("buffer should be empty after extraction")
	}
}

func TestVarintSplitAcrossChunks(t *testing.T) {
	testlog.Start(t)
	// Prefix [0x96 0x01] (150) followed by 150 payload bytes, split at
	// byte 1 so the varint itself spans two network reads.
	payload := make([]byte, 150)
	for i := range payload {
		payload[i] = byte(i)
	}
	stream := prefixed(payload)
	b := NewBuffer(0)

	b.Ingest(stream[:1])
	if got := b.ExtractReady(); len(got) != 0 {
		t.Fatalf("incomplete varint yielded %d frames", len(got))
	}
	b.Ingest(stream[1:])
	frames := drain(b)
	if len(frames) != 1 {
		t.Fatalf("frames=%d want 1", len(frames))
	}
	if len(frames[0]) != 150 || !bytes.Equal(frames[0], payload) {
		t.Fatalf("frame mismatch: len=%d", len(frames[0]))
	}
}

func TestChunkingInvariance(t *testing.T) {
	testlog.Start(t)
	rng := rand.New(rand.NewSource(7))
	var stream []byte
	var want [][]byte
	for i := 0; i < 25; i++ {
		payload := make([]byte, 1+rng.Intn(400))
		rng.Read(payload)
		want = append(want, payload)
		stream = append(stream, prefixed(payload)...)
	}

	for trial := 0; trial < 50; trial++ {
		b := NewBuffer(0)
		var got [][]byte
		rest := stream
		for len(rest) > 0 {
			n := 1 + rng.Intn(len(rest))
			b.Ingest(rest[:n])
			rest = rest[n:]
			got = append(got, drain(b)...)
		}
		if len(got) != len(want) {
			t.Fatalf("trial %d: frames=%d want %d", trial, len(got), len(want))
		}
		for i := range want {
			if !bytes.Equal(got[i], want[i]) {
				t.Fatalf("trial %d: frame %d mismatch", trial, i)
			}
		}
	}

	// Whole stream at once must yield the identical sequence.
	b := NewBuffer(0)
	b.Ingest(stream)
	got := drain(b)
	if len(got) != len(want) {
		t.Fatalf("one-shot: frames=%d want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("one-shot: frame %d mismatch", i)
		}
	}
}

func TestZeroLengthPrefixEndsPass(t *testing.T) {
	testlog.Start(t)
	first := prefixed([]byte("hello"))
	stream := append(append([]byte{}, first...), 0x00)
	stream = append(stream, prefixed([]byte("world"))...)
	b := NewBuffer(0)
	b.Ingest(stream)

	got := b.ExtractReady()
	if len(got) != 1 || string(got[0]) != "hello" {
		t.Fatalf("first pass got %d frames", len(got))
	}
	// The zero prefix was consumed; a later pass picks up the next frame.
	got = b.ExtractReady()
	if len(got) != 1 || string(got[0]) != "world" {
		t.Fatalf("second pass got %d frames", len(got))
	}
}

func TestPartialFrameWaits(t *testing.T) {
	testlog.Start(t)
	payload := bytes.Repeat([]byte{0x11}, 100)
	stream := prefixed(payload)
	b := NewBuffer(0)
	b.Ingest(stream[:50])
	if got := b.ExtractReady(); len(got) != 0 {
		t.Fatalf("partial frame yielded %d frames", len(got))
	}
	if pending, ok := b.Pending(); !ok || pending != 100 {
		t.Fatalf("pending=%d ok=%v", pending, ok)
	}
	b.Ingest(stream[50:])
	if got := drain(b); len(got) != 1 || !bytes.Equal(got[0], payload) {
		t.Fatalf("frame not extracted after completion")
	}
}

func TestHighWaterDoesNotTruncate(t *testing.T) {
	testlog.Start(t)
	// A catalog-sized frame delivered in pieces must come out whole even
	// after the buffer crosses the high-water mark.
	payload := bytes.Repeat([]byte{0x5A}, 3000)
	stream := prefixed(payload)
	b := NewBuffer(1024)
	for off := 0; off < len(stream); off += 512 {
		end := off + 512
		if end > len(stream) {
			end = len(stream)
		}
		b.Ingest(stream[off:end])
	}
	got := drain(b)
	if len(got) != 1 || !bytes.Equal(got[0], payload) {
		t.Fatalf("catalog frame mismatch: frames=%d", len(got))
	}
}

func TestResetClearsState(t *testing.T) {
	testlog.Start(t)
	b := NewBuffer(0)
	b.Ingest(prefixed(bytes.Repeat([]byte{1}, 10))[:5])
	b.ExtractReady()
	b.Reset()
	if !b.Empty() {
		t.Fatalf("reset left state behind")
	}
	if _, ok := b.Pending(); ok {
		t.Fatalf("reset left pending length")
	}
}
