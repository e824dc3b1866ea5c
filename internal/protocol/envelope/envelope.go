// Package envelope decodes one observe frame into the top-level
// StreamBody shape: an ordered list of sub-messages, each carrying get
// operations that reference an object id plus a polymorphic trait
// payload.
package envelope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/observability"
	"github.com/krozgrov/nestwire/internal/protocol/schema"
)

// ErrDecode reports a frame that did not parse as a StreamBody. The frame
// is dropped and the session continues.
var ErrDecode = errors.New("envelope: stream body decode failed")

// Legacy and canonical type tag prefixes. Some server versions tag
// payloads with the vendor prefix; the registry only knows the canonical
// one.
const (
	LegacyTypePrefix    = "type.nestlabs.com/"
	CanonicalTypePrefix = "type.googleapis.com/"
)

// BoltLockTypeURL is the type assumed for untyped payloads that carry the
// legacy field-7 slot (observed on some server versions for the primary
// lock-state trait).
const BoltLockTypeURL = "weave.trait.security.BoltLockTrait"

// StreamBody wire layout.
const (
	fieldMessage protowire.Number = 1

	fieldGet protowire.Number = 1

	fieldObject       protowire.Number = 1
	fieldData         protowire.Number = 2
	fieldLegacyBolt   protowire.Number = 7
	fieldObjectID     protowire.Number = 1
	fieldObjectKey    protowire.Number = 2
	fieldDataProperty protowire.Number = 1
	fieldAnyTypeURL   protowire.Number = 1
	fieldAnyValue     protowire.Number = 2
)

// GetOperation is one read-style entry of a sub-message. Payload is nil
// when the server sent a classification without trait bytes.
type GetOperation struct {
	ObjectID  string
	ObjectKey string
	TypeURL   string
	Payload   []byte
}

// SubMessage is one ordered group of get operations.
type SubMessage struct {
	Gets []GetOperation
}

// Envelope is the decoded StreamBody for one frame.
type Envelope struct {
	Messages []SubMessage
}

// NormalizeTypeURL rewrites the legacy vendor prefix to the canonical
// prefix. Idempotent; tags without the legacy prefix pass through
// unchanged.
func NormalizeTypeURL(u string) string {
	if strings.HasPrefix(u, LegacyTypePrefix) {
		return CanonicalTypePrefix + strings.TrimPrefix(u, LegacyTypePrefix)
	}
	return u
}

// Decode parses one complete frame. Operations whose type tag is absent
// and whose raw bytes lack the legacy field-7 slot cannot be classified;
// they are dropped silently (counted, not errored).
func Decode(frameBytes []byte) (Envelope, error) {
	body, err := schema.Parse(frameBytes)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var env Envelope
	for _, msg := range body.Msgs(fieldMessage) {
		var sub SubMessage
		for _, rawOp := range msg.Msgs(fieldGet) {
			op, ok := decodeGet(rawOp)
			if !ok {
				continue
			}
			sub.Gets = append(sub.Gets, op)
		}
		env.Messages = append(env.Messages, sub)
	}
	return env, nil
}

func decodeGet(rawOp schema.Msg) (GetOperation, bool) {
	var op GetOperation
	if obj, ok := rawOp.Msg(fieldObject); ok {
		op.ObjectID, _ = obj.String(fieldObjectID)
		if key, ok := obj.String(fieldObjectKey); ok {
			op.ObjectKey = key
		}
	}
	if op.ObjectKey == "" {
		op.ObjectKey = "unknown"
	}

	if data, ok := rawOp.Msg(fieldData); ok {
		if property, ok := data.Msg(fieldDataProperty); ok {
			op.TypeURL, _ = property.String(fieldAnyTypeURL)
			op.Payload, _ = property.Bytes(fieldAnyValue)
		}
	}

	if op.TypeURL == "" {
		if !rawOp.Has(fieldLegacyBolt) {
			observability.RecordTraitDropped(observability.DropReasonUnclassified)
			log.Debug().
				Str("object_id", op.ObjectID).
				Str("object_key", op.ObjectKey).
				Msg("unclassifiable get operation dropped")
			return GetOperation{}, false
		}
		op.TypeURL = BoltLockTypeURL
	}
	op.TypeURL = NormalizeTypeURL(op.TypeURL)
	return op, true
}
