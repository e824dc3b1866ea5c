package trait

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/protocol/schema"
)

// weave.trait.power.BatteryPowerSourceTrait. Voltage and remaining
// percent are float wrappers; the percent additionally sits inside a
// presence-checked remaining sub-message.
const (
	batteryCondition   protowire.Number = 1
	batteryStatus      protowire.Number = 2
	batteryReplacement protowire.Number = 3
	batteryVoltage     protowire.Number = 4
	batteryRemaining   protowire.Number = 5

	remainingPercent protowire.Number = 1
)

func decodeBatteryPowerSource(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{
		"condition":             enumVal(m, batteryCondition),
		"status":                enumVal(m, batteryStatus),
		"replacement_indicator": enumVal(m, batteryReplacement),
	}
	if v, ok := schema.FloatValue(m, batteryVoltage); ok {
		data["voltage"] = FloatVal(v)
	}
	if remaining, ok := m.Msg(batteryRemaining); ok {
		if pct, ok := schema.FloatValue(remaining, remainingPercent); ok {
			data["battery_level"] = FloatVal(pct)
		}
	}
	return data, nil
}
