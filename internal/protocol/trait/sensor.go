package trait

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/protocol/schema"
)

// nest.trait.sensor.TemperatureTrait and HumidityTrait. Both readings
// are wrapped in a presence-checked sub-message: no wrapper means no
// reading, never a zero measurement.
const sensorValue protowire.Number = 1

func decodeTemperature(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{}
	if v, ok := schema.FloatValue(m, sensorValue); ok {
		data["temperature_celsius"] = FloatVal(v)
	}
	return data, nil
}

func decodeHumidity(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{}
	if v, ok := schema.FloatValue(m, sensorValue); ok {
		data["humidity_percent"] = FloatVal(v)
	}
	return data, nil
}
