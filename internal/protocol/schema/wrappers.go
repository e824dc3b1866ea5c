package schema

import "google.golang.org/protobuf/encoding/protowire"

// Well-known wrapper and time shapes shared by many traits. Wrappers are
// presence-checked: an absent wrapper means "unset", never the zero value.

const (
	wrapperValueField protowire.Number = 1
	timeSecondsField  protowire.Number = 1
	timeNanosField    protowire.Number = 2
)

// StringValue reads a google.protobuf.StringValue-shaped wrapper at
// field num. Returns ok=false when the wrapper itself is absent; an empty
// inner string with the wrapper present also reads as unset, matching the
// indirect-string quirk on the wire.
func StringValue(m Msg, num protowire.Number) (string, bool) {
	w, ok := m.Msg(num)
	if !ok {
		return "", false
	}
	s, ok := w.String(wrapperValueField)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// FloatValue reads a google.protobuf.FloatValue-shaped wrapper at field
// num.
func FloatValue(m Msg, num protowire.Number) (float64, bool) {
	w, ok := m.Msg(num)
	if !ok {
		return 0, false
	}
	return w.Float(wrapperValueField)
}

// Seconds reads a Duration- or Timestamp-shaped sub-message at field num
// and flattens seconds plus fractional nanos into one float64 seconds
// value. A sub-message with zero seconds reads as unset.
func Seconds(m Msg, num protowire.Number) (float64, bool) {
	w, ok := m.Msg(num)
	if !ok {
		return 0, false
	}
	secs, ok := w.Int(timeSecondsField)
	if !ok || secs == 0 {
		return 0, false
	}
	nanos, _ := w.Int(timeNanosField)
	return float64(secs) + float64(nanos)/1e9, true
}
