// Package schema is the trait schema registry substrate: low-level
// protobuf wire access for the observe envelope and every known trait
// payload. Field layouts are reverse engineered from captures and pinned
// here; nothing is generated from .proto files.
package schema

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformed = errors.New("schema: malformed message")
	ErrWireType  = errors.New("schema: unexpected wire type")
)

type field struct {
	typ     protowire.Type
	varint  uint64
	fixed32 uint32
	fixed64 uint64
	raw     []byte
}

// Msg is a flat parsed view of one protobuf message. Repeated fields keep
// their wire order.
type Msg struct {
	fields map[protowire.Number][]field
}

// Parse scans b into a Msg. Unknown fields are retained; groups are
// skipped whole.
func Parse(b []byte) (Msg, error) {
	m := Msg{fields: make(map[protowire.Number][]field)}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Msg{}, fmt.Errorf("%w: bad tag", ErrMalformed)
		}
		b = b[n:]
		var f field
		f.typ = typ
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("%w: field %d varint", ErrMalformed, num)
			}
			f.varint = v
			b = b[n:]
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("%w: field %d fixed32", ErrMalformed, num)
			}
			f.fixed32 = v
			b = b[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("%w: field %d fixed64", ErrMalformed, num)
			}
			f.fixed64 = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("%w: field %d bytes", ErrMalformed, num)
			}
			f.raw = v
			b = b[n:]
		case protowire.StartGroupType:
			v, n := protowire.ConsumeGroup(num, b)
			if n < 0 {
				return Msg{}, fmt.Errorf("%w: field %d group", ErrMalformed, num)
			}
			f.raw = v
			b = b[n:]
		default:
			return Msg{}, fmt.Errorf("%w: field %d type %d", ErrWireType, num, typ)
		}
		m.fields[num] = append(m.fields[num], f)
	}
	return m, nil
}

// Has reports whether field num appeared on the wire at all.
func (m Msg) Has(num protowire.Number) bool {
	return len(m.fields[num]) > 0
}

// Uint returns the last varint occurrence of field num.
func (m Msg) Uint(num protowire.Number) (uint64, bool) {
	f, ok := m.last(num, protowire.VarintType)
	if !ok {
		return 0, false
	}
	return f.varint, true
}

// Int returns the last varint occurrence of field num as a signed value.
// Enum codes travel this way.
func (m Msg) Int(num protowire.Number) (int64, bool) {
	v, ok := m.Uint(num)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// Bool returns the last varint occurrence of field num as a bool.
func (m Msg) Bool(num protowire.Number) (bool, bool) {
	v, ok := m.Uint(num)
	if !ok {
		return false, false
	}
	return v != 0, true
}

// Float returns the last fixed32 occurrence of field num as a float32
// widened to float64.
func (m Msg) Float(num protowire.Number) (float64, bool) {
	f, ok := m.last(num, protowire.Fixed32Type)
	if !ok {
		return 0, false
	}
	return float64(math.Float32frombits(f.fixed32)), true
}

// Double returns the last fixed64 occurrence of field num as a float64.
func (m Msg) Double(num protowire.Number) (float64, bool) {
	f, ok := m.last(num, protowire.Fixed64Type)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(f.fixed64), true
}

// String returns the last bytes occurrence of field num as a string.
func (m Msg) String(num protowire.Number) (string, bool) {
	f, ok := m.last(num, protowire.BytesType)
	if !ok {
		return "", false
	}
	return string(f.raw), true
}

// Bytes returns the last bytes occurrence of field num.
func (m Msg) Bytes(num protowire.Number) ([]byte, bool) {
	f, ok := m.last(num, protowire.BytesType)
	if !ok {
		return nil, false
	}
	return f.raw, true
}

// Msg parses the last bytes occurrence of field num as a nested message.
func (m Msg) Msg(num protowire.Number) (Msg, bool) {
	raw, ok := m.Bytes(num)
	if !ok {
		return Msg{}, false
	}
	nested, err := Parse(raw)
	if err != nil {
		return Msg{}, false
	}
	return nested, true
}

// Msgs parses every bytes occurrence of field num as a nested message,
// in wire order. Occurrences that fail to parse are skipped.
func (m Msg) Msgs(num protowire.Number) []Msg {
	var out []Msg
	for _, f := range m.fields[num] {
		if f.typ != protowire.BytesType {
			continue
		}
		nested, err := Parse(f.raw)
		if err != nil {
			continue
		}
		out = append(out, nested)
	}
	return out
}

func (m Msg) last(num protowire.Number, typ protowire.Type) (field, bool) {
	fs := m.fields[num]
	for i := len(fs) - 1; i >= 0; i-- {
		if fs[i].typ == typ {
			return fs[i], true
		}
	}
	return field{}, false
}
