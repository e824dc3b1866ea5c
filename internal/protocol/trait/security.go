package trait

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/protocol/schema"
)

// Raw wire codes for the bolt lock state machine. Only the two codes the
// device summary depends on are named; everything else passes through
// untranslated.
const (
	BoltLockedStateLocked int64 = 1
	BoltActuatorStateOK   int64 = 1
)

// weave.trait.security.BoltLockTrait
const (
	boltState         protowire.Number = 1
	boltActuatorState protowire.Number = 2
	boltLockedState   protowire.Number = 3
	boltActor         protowire.Number = 4
	boltLastChangedAt protowire.Number = 5
	actorMethod       protowire.Number = 1
	actorOriginator   protowire.Number = 2
	actorAgent        protowire.Number = 3
	originResourceID  protowire.Number = 1
)

func decodeBoltLock(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"state":          enumVal(m, boltState),
		"actuator_state": enumVal(m, boltActuatorState),
		"locked_state":   enumVal(m, boltLockedState),
	}
	if actor, ok := m.Msg(boltActor); ok {
		data["actor_method"] = enumVal(actor, actorMethod)
		if origin, ok := actor.Msg(actorOriginator); ok {
			if id, ok := origin.String(originResourceID); ok && id != "" {
				data["actor_originator"] = StringVal(id)
			}
		}
		if agent, ok := actor.Msg(actorAgent); ok {
			if id, ok := agent.String(originResourceID); ok && id != "" {
				data["actor_agent"] = StringVal(id)
			}
		}
	}
	if at, ok := schema.Seconds(m, boltLastChangedAt); ok {
		data["locked_state_last_changed_at"] = FloatVal(at)
	}
	return data, nil
}

// weave.trait.security.BoltLockSettingsTrait
const (
	settingsAutoRelockOn       protowire.Number = 1
	settingsAutoRelockDuration protowire.Number = 2
)

func decodeBoltLockSettings(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{}
	if on, ok := m.Bool(settingsAutoRelockOn); ok {
		data["auto_relock_on"] = BoolVal(on)
	}
	if d, ok := schema.Seconds(m, settingsAutoRelockDuration); ok {
		data["auto_relock_duration_seconds"] = FloatVal(d)
	}
	return data, nil
}

// weave.trait.security.BoltLockCapabilitiesTrait
const (
	capsHandedness            protowire.Number = 1
	capsMaxAutoRelockDuration protowire.Number = 2
)

func decodeBoltLockCapabilities(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"handedness": enumVal(m, capsHandedness),
	}
	if d, ok := schema.Seconds(m, capsMaxAutoRelockDuration); ok {
		data["max_auto_relock_duration_seconds"] = FloatVal(d)
	}
	return data, nil
}

// weave.trait.security.PincodeInputTrait
const pincodeInputState protowire.Number = 1

func decodePincodeInput(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	return map[string]Value{
		"pincode_input_state": enumVal(m, pincodeInputState),
	}, nil
}

// weave.trait.security.TamperTrait
const (
	tamperState           protowire.Number = 1
	tamperFirstObserved   protowire.Number = 2
	tamperFirstObservedMs protowire.Number = 3
)

func decodeTamper(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"tamper_state": enumVal(m, tamperState),
	}
	if at, ok := schema.Seconds(m, tamperFirstObserved); ok {
		data["first_observed_at"] = FloatVal(at)
	}
	if at, ok := schema.Seconds(m, tamperFirstObservedMs); ok {
		data["first_observed_at_ms"] = FloatVal(at)
	}
	return data, nil
}

// enumVal reads an enumerated field as its raw wire code. Proto3 scalar
// semantics apply: absent reads as 0.
func enumVal(m schema.Msg, num protowire.Number) Value {
	v, _ := m.Int(num)
	return IntVal(v)
}
