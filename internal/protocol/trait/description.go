package trait

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/protocol/schema"
)

// weave.trait.description.DeviceIdentityTrait. Manufacturer and model
// travel as indirect string wrappers; serial and firmware are plain
// strings where empty means unset.
const (
	identityManufacturer protowire.Number = 2
	identityModelName    protowire.Number = 4
	identitySerialNumber protowire.Number = 6
	identityFwVersion    protowire.Number = 7
)

func decodeDeviceIdentity(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{}
	if s, ok := m.String(identitySerialNumber); ok && s != "" {
		data["serial_number"] = StringVal(s)
	}
	if s, ok := m.String(identityFwVersion); ok && s != "" {
		data["firmware_version"] = StringVal(s)
	}
	if s, ok := schema.StringValue(m, identityManufacturer); ok {
		data["manufacturer"] = StringVal(s)
	}
	if s, ok := schema.StringValue(m, identityModelName); ok {
		data["model"] = StringVal(s)
	}
	return data, nil
}
