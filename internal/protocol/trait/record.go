package trait

// Kind discriminates the payload of a Value.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindBool
	KindString
)

// Value is one decoded trait field. Enumerated states keep their raw
// integer wire codes; downstream consumers choose their own enum
// semantics. Absent fields are omitted from the record map entirely.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func IntVal(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

func FloatVal(v float64) Value {
	return Value{Kind: KindFloat, Float: v}
}

func BoolVal(v bool) Value {
	return Value{Kind: KindBool, Bool: v}
}

func StringVal(v string) Value {
	return Value{Kind: KindString, Str: v}
}

// Record is the decode result for one (object id, type tag) pair. A
// payload that failed to unpack keeps Decoded=false and the reason in
// Err; that is never an error to the caller.
type Record struct {
	ObjectID string
	TypeURL  string
	Decoded  bool
	Data     map[string]Value
	Err      string
}

// Key is the aggregation key: newer records for the same key overwrite
// older ones.
func (r Record) Key() string {
	return r.ObjectID + ":" + r.TypeURL
}

// Field returns the named field and whether it was present on the wire.
func (r Record) Field(name string) (Value, bool) {
	v, ok := r.Data[name]
	return v, ok
}
