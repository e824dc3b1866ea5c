package trait

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/protocol/schema"
)

// nest.trait.detector.OpenCloseTrait
const (
	openCloseState           protowire.Number = 1
	openCloseFirstObserved   protowire.Number = 2
	openCloseFirstObservedMs protowire.Number = 3
)

func decodeOpenClose(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"open_close_state": enumVal(m, openCloseState),
	}
	if at, ok := schema.Seconds(m, openCloseFirstObserved); ok {
		data["first_observed_at"] = FloatVal(at)
	}
	if at, ok := schema.Seconds(m, openCloseFirstObservedMs); ok {
		data["first_observed_at_ms"] = FloatVal(at)
	}
	return data, nil
}

// nest.trait.detector.AmbientMotionTrait
const (
	motionState  protowire.Number = 1
	motionLastAt protowire.Number = 2
)

func decodeAmbientMotion(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"motion_state": enumVal(m, motionState),
	}
	if at, ok := schema.Seconds(m, motionLastAt); ok {
		data["last_motion_at"] = FloatVal(at)
	}
	return data, nil
}

// nest.trait.detector.AmbientMotionSettingsTrait
const motionEnabled protowire.Number = 1

func decodeAmbientMotionSettings(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{}
	if on, ok := m.Bool(motionEnabled); ok {
		data["enabled"] = BoolVal(on)
	}
	return data, nil
}

// nest.trait.detector.AmbientMotionTimingSettingsTrait
const (
	motionEventWindow  protowire.Number = 1
	motionHoldDuration protowire.Number = 2
)

func decodeAmbientMotionTiming(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{}
	if d, ok := schema.Seconds(m, motionEventWindow); ok {
		data["event_window_seconds"] = FloatVal(d)
	}
	if d, ok := schema.Seconds(m, motionHoldDuration); ok {
		data["hold_duration_seconds"] = FloatVal(d)
	}
	return data, nil
}
