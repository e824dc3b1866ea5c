package varint

// MaxLen is the longest legal base-128 encoding of a 64-bit value.
const MaxLen = 10

// Decode reads a base-128 varint from buf starting at pos. Each byte
// contributes 7 bits, low group first; the high bit marks continuation.
// It returns the value, the position after the last consumed byte, and
// whether a complete value was read. ok is false when the buffer runs out
// before a terminating byte, or when the encoding exceeds MaxLen bytes or
// 64 bits of significance.
func Decode(buf []byte, pos int) (uint64, int, bool) {
	var value uint64
	shift := uint(0)
	p := pos
	for p < len(buf) {
		b := buf[p]
		p++
		if shift == 63 && b > 1 {
			// The tenth byte may only carry the final bit.
			return 0, pos, false
		}
		value |= uint64(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			return value, p, true
		}
		if p-pos >= MaxLen {
			return 0, pos, false
		}
	}
	return 0, pos, false
}

// Append writes the base-128 encoding of v to dst and returns the
// extended slice.
func Append(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}
