package schema

import (
	"math"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/testutil/testlog"
)

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMsg(b []byte, num protowire.Number, inner []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

func appendFloat(b []byte, num protowire.Number, f float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(f))
}

func TestParseScalarFields(t *testing.T) {
	testlog.Start(t)
	var b []byte
	b = appendVarint(b, 1, 7)
	b = appendString(b, 2, "serial")
	b = appendFloat(b, 3, 3.5)

	m, err := Parse(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, ok := m.Int(1); !ok || v != 7 {
		t.Fatalf("field 1: %d %v", v, ok)
	}
	if s, ok := m.String(2); !ok || s != "serial" {
		t.Fatalf("field 2: %q %v", s, ok)
	}
	if f, ok := m.Float(3); !ok || f != 3.5 {
		t.Fatalf("field 3: %v %v", f, ok)
	}
	if m.Has(4) {
		t.Fatalf("field 4 should be absent")
	}
}

func TestParseRejectsTruncated(t *testing.T) {
	testlog.Start(t)
	b := appendString(nil, 2, "serial")
	if _, err := Parse(b[:len(b)-2]); err == nil {
		t.Fatalf("expected malformed error")
	}
}

func TestRepeatedNestedMessages(t *testing.T) {
	testlog.Start(t)
	inner1 := appendVarint(nil, 1, 10)
	inner2 := appendVarint(nil, 1, 20)
	var b []byte
	b = appendMsg(b, 5, inner1)
	b = appendMsg(b, 5, inner2)

	m, err := Parse(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	msgs := m.Msgs(5)
	if len(msgs) != 2 {
		t.Fatalf("msgs=%d want 2", len(msgs))
	}
	if v, _ := msgs[0].Int(1); v != 10 {
		t.Fatalf("first nested: %d", v)
	}
	if v, _ := msgs[1].Int(1); v != 20 {
		t.Fatalf("second nested: %d", v)
	}
}

func TestStringValuePresence(t *testing.T) {
	testlog.Start(t)
	with := appendMsg(nil, 4, appendString(nil, 1, "Yale"))
	m, err := Parse(with)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s, ok := StringValue(m, 4); !ok || s != "Yale" {
		t.Fatalf("wrapper present: %q %v", s, ok)
	}

	// Absent wrapper reads as unset, not empty string.
	m, err = Parse(appendVarint(nil, 9, 1))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := StringValue(m, 4); ok {
		t.Fatalf("absent wrapper must be unset")
	}

	// Present wrapper with empty inner value also reads as unset.
	m, err = Parse(appendMsg(nil, 4, nil))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := StringValue(m, 4); ok {
		t.Fatalf("empty wrapper must be unset")
	}
}

func TestSecondsFlattening(t *testing.T) {
	testlog.Start(t)
	ts := appendVarint(nil, 1, 1700000000)
	ts = appendVarint(ts, 2, 500000000)
	m, err := Parse(appendMsg(nil, 5, ts))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, ok := Seconds(m, 5)
	if !ok {
		t.Fatalf("expected timestamp")
	}
	if got != 1700000000.5 {
		t.Fatalf("seconds=%v", got)
	}

	// Zero seconds reads as unset, mirroring the wire quirk.
	m, err = Parse(appendMsg(nil, 5, appendVarint(nil, 2, 900)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := Seconds(m, 5); ok {
		t.Fatalf("zero-second timestamp must be unset")
	}
}

func TestFloatValueWrapper(t *testing.T) {
	testlog.Start(t)
	m, err := Parse(appendMsg(nil, 2, appendFloat(nil, 1, 87.0)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f, ok := FloatValue(m, 2); !ok || f != 87.0 {
		t.Fatalf("float wrapper: %v %v", f, ok)
	}
	if _, ok := FloatValue(m, 3); ok {
		t.Fatalf("absent float wrapper must be unset")
	}
}
