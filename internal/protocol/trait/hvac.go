package trait

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/protocol/schema"
)

// nest.trait.hvac.TargetTemperatureSettingsTrait
const (
	targetTempMode    protowire.Number = 1
	targetTempHeating protowire.Number = 2
	targetTempCooling protowire.Number = 3
)

func decodeTargetTemperatureSettings(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"mode": enumVal(m, targetTempMode),
	}
	if v, ok := schema.FloatValue(m, targetTempHeating); ok {
		data["heating_target_celsius"] = FloatVal(v)
	}
	if v, ok := schema.FloatValue(m, targetTempCooling); ok {
		data["cooling_target_celsius"] = FloatVal(v)
	}
	return data, nil
}

// nest.trait.hvac.HvacControlTrait
const (
	hvacHeaterState     protowire.Number = 1
	hvacCompressorState protowire.Number = 2
	hvacFanState        protowire.Number = 3
)

func decodeHvacControl(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	return map[string]Value{
		"heater_state":     enumVal(m, hvacHeaterState),
		"compressor_state": enumVal(m, hvacCompressorState),
		"fan_state":        enumVal(m, hvacFanState),
	}, nil
}

// nest.trait.hvac.EcoModeStateTrait
const (
	ecoModeState        protowire.Number = 1
	ecoModeChangeReason protowire.Number = 2
)

func decodeEcoModeState(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	return map[string]Value{
		"eco_mode":      enumVal(m, ecoModeState),
		"change_reason": enumVal(m, ecoModeChangeReason),
	}, nil
}

// nest.trait.hvac.EcoModeSettingsTrait
const (
	ecoAutoEnabled protowire.Number = 1
	ecoLowTemp     protowire.Number = 2
	ecoHighTemp    protowire.Number = 3
)

func decodeEcoModeSettings(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{}
	if on, ok := m.Bool(ecoAutoEnabled); ok {
		data["auto_eco_enabled"] = BoolVal(on)
	}
	if v, ok := schema.FloatValue(m, ecoLowTemp); ok {
		data["low_temperature_celsius"] = FloatVal(v)
	}
	if v, ok := schema.FloatValue(m, ecoHighTemp); ok {
		data["high_temperature_celsius"] = FloatVal(v)
	}
	return data, nil
}

// nest.trait.hvac.FanControlSettingsTrait
const (
	fanSettingsMode  protowire.Number = 1
	fanSettingsTimer protowire.Number = 2
)

func decodeFanControlSettings(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"mode": enumVal(m, fanSettingsMode),
	}
	if d, ok := schema.Seconds(m, fanSettingsTimer); ok {
		data["timer_duration_seconds"] = FloatVal(d)
	}
	return data, nil
}

// nest.trait.hvac.FanControlTrait
const (
	fanSpeed       protowire.Number = 1
	fanTimerEndsAt protowire.Number = 2
)

func decodeFanControl(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"speed": enumVal(m, fanSpeed),
	}
	if at, ok := schema.Seconds(m, fanTimerEndsAt); ok {
		data["timer_ends_at"] = FloatVal(at)
	}
	return data, nil
}
