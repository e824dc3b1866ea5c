// Package wiretest builds observe-protocol wire bytes for tests: trait
// payloads, Any-wrapped properties, get operations, and whole framed
// streams.
package wiretest

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/protocol/varint"
)

func AppendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func AppendBool(b []byte, num protowire.Number, v bool) []byte {
	var raw uint64
	if v {
		raw = 1
	}
	return AppendVarint(b, num, raw)
}

func AppendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func AppendMsg(b []byte, num protowire.Number, inner []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

func AppendFloat(b []byte, num protowire.Number, f float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(f))
}

// StringWrapper builds an indirect-string wrapper field.
func StringWrapper(b []byte, num protowire.Number, s string) []byte {
	return AppendMsg(b, num, AppendString(nil, 1, s))
}

// FloatWrapper builds a FloatValue-shaped wrapper field.
func FloatWrapper(b []byte, num protowire.Number, f float32) []byte {
	return AppendMsg(b, num, AppendFloat(nil, 1, f))
}

// SecondsMsg builds a Duration/Timestamp-shaped field from seconds and
// nanos.
func SecondsMsg(b []byte, num protowire.Number, secs int64, nanos int64) []byte {
	inner := AppendVarint(nil, 1, uint64(secs))
	if nanos != 0 {
		inner = AppendVarint(inner, 2, uint64(nanos))
	}
	return AppendMsg(b, num, inner)
}

// Any builds an Any-shaped message with the given type url and value.
func Any(typeURL string, value []byte) []byte {
	b := AppendString(nil, 1, typeURL)
	return AppendMsg(b, 2, value)
}

// GetOp builds a get operation referencing objectID/key whose data
// property is the given Any bytes. Pass nil anyBytes for an operation
// without a payload.
func GetOp(objectID, key string, anyBytes []byte) []byte {
	obj := AppendString(nil, 1, objectID)
	obj = AppendString(obj, 2, key)
	op := AppendMsg(nil, 1, obj)
	if anyBytes != nil {
		op = AppendMsg(op, 2, AppendMsg(nil, 1, anyBytes))
	}
	return op
}

// WithLegacySlot marks a get operation with the legacy field-7 slot that
// identifies an untyped bolt-lock payload.
func WithLegacySlot(op []byte) []byte {
	return AppendVarint(op, 7, 1)
}

// SubMessage groups get operations into one StreamBody sub-message.
func SubMessage(ops ...[]byte) []byte {
	var sub []byte
	for _, op := range ops {
		sub = AppendMsg(sub, 1, op)
	}
	return sub
}

// StreamBody builds a StreamBody envelope from sub-messages.
func StreamBody(subs ...[]byte) []byte {
	var body []byte
	for _, sub := range subs {
		body = AppendMsg(body, 1, sub)
	}
	return body
}

// Framed length-prefixes a serialized envelope the way the transport
// delivers it.
func Framed(frame []byte) []byte {
	return append(varint.Append(nil, uint64(len(frame))), frame...)
}
