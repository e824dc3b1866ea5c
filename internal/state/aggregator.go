// Package state holds the long-lived per-session view of the observed
// devices: the last trait record seen for every (object id, type tag)
// pair, plus the two identity fields discovered along the way.
package state

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/krozgrov/nestwire/internal/protocol/envelope"
	"github.com/krozgrov/nestwire/internal/protocol/trait"
)

// DeviceSummary condenses a lock object's primary trait record into the
// three flags callers poll for.
type DeviceSummary struct {
	Locked        bool
	Moving        bool
	ActuatorState int64
}

// Snapshot is the consumer-facing view of an aggregate at one point in
// time. It is re-derived from the aggregate on every emission, never
// cached. A zero Snapshot doubles as the disconnect sentinel.
type Snapshot struct {
	Devices     map[string]DeviceSummary
	UserID      string
	StructureID string
	Traits      map[string]trait.Record
}

// Empty reports whether the snapshot is the disconnect sentinel.
func (s Snapshot) Empty() bool {
	return len(s.Traits) == 0 && s.UserID == "" && s.StructureID == ""
}

// Aggregate accumulates trait records across the lifetime of a session.
// It is not safe for concurrent use: exactly one goroutine drives
// Apply/Snapshot, which is the session's consumer loop.
type Aggregate struct {
	dispatcher  *trait.Dispatcher
	records     map[string]trait.Record
	userID      string
	structureID string
}

func NewAggregate(d *trait.Dispatcher) *Aggregate {
	return &Aggregate{
		dispatcher: d,
		records:    make(map[string]trait.Record),
	}
}

// Apply decodes every get operation in the envelope and upserts the
// resulting records, last write winning per (object id, type tag) key.
// It reports whether at least one record was produced.
func (a *Aggregate) Apply(env envelope.Envelope) bool {
	changed := false
	for _, sub := range env.Messages {
		for _, op := range sub.Gets {
			rec, ok := a.dispatcher.Decode(op.ObjectID, op.TypeURL, op.Payload)
			if !ok {
				continue
			}
			a.records[rec.Key()] = rec
			a.latch(rec)
			changed = true
		}
	}
	return changed
}

// latch maintains the two discovered identity fields. The user id is
// set once from a user-info record, but the lock's acting-user
// reference takes priority and may overwrite it later. The structure id
// tracks whatever the structure-info trait last reported.
func (a *Aggregate) latch(rec trait.Record) {
	if !rec.Decoded {
		return
	}
	switch {
	case strings.Contains(rec.TypeURL, "UserInfoTrait"):
		if a.userID == "" {
			a.userID = rec.ObjectID
			log.Info().Str("user_id", a.userID).Msg("discovered user id")
		}
	case strings.Contains(rec.TypeURL, "StructureInfoTrait"):
		if v, ok := rec.Field("structure_id"); ok && v.Str != "" {
			if a.structureID != v.Str {
				a.structureID = v.Str
				log.Info().Str("structure_id", a.structureID).Msg("discovered structure id")
			}
		}
	default:
		if v, ok := rec.Field("actor_originator"); ok && v.Str != "" {
			if a.userID != v.Str {
				a.userID = v.Str
				log.Debug().Str("user_id", a.userID).Msg("user id updated from lock actor")
			}
		}
	}
}

// Snapshot derives the consumer view from the current aggregate.
func (a *Aggregate) Snapshot() Snapshot {
	snap := Snapshot{
		Devices:     make(map[string]DeviceSummary),
		UserID:      a.userID,
		StructureID: a.structureID,
		Traits:      make(map[string]trait.Record, len(a.records)),
	}
	for key, rec := range a.records {
		snap.Traits[key] = rec
		if !rec.Decoded || !isPrimaryLock(rec.TypeURL) {
			continue
		}
		var sum DeviceSummary
		if v, ok := rec.Field("locked_state"); ok {
			sum.Locked = v.Int == trait.BoltLockedStateLocked
		}
		if v, ok := rec.Field("actuator_state"); ok {
			sum.ActuatorState = v.Int
			sum.Moving = v.Int != trait.BoltActuatorStateOK
		}
		snap.Devices[rec.ObjectID] = sum
	}
	return snap
}

func isPrimaryLock(typeURL string) bool {
	return strings.Contains(typeURL, "BoltLockTrait") &&
		!strings.Contains(typeURL, "BoltLockSettings") &&
		!strings.Contains(typeURL, "BoltLockCapabilities")
}
