package trait

import (
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/krozgrov/nestwire/internal/protocol/schema"
)

// nest.trait.structure.StructureInfoTrait. The legacy id is a composite
// string like "structure.0123abcd"; the usable structure id is the
// segment after the first dot.
const structureLegacyID protowire.Number = 2

func decodeStructureInfo(payload []byte) (map[string]Value, error) {
	m, err := schema.Parse(payload)
	if err != nil {
		return nil, err
	}
	data := map[string]Value{}
	if legacy, ok := m.String(structureLegacyID); ok && legacy != "" {
		data["legacy_id"] = StringVal(legacy)
		if parts := strings.Split(legacy, "."); len(parts) > 1 {
			data["structure_id"] = StringVal(parts[1])
		}
	}
	return data, nil
}

// nest.trait.user.UserInfoTrait carries no payload fields; the user's
// identity is the object id of the operation itself.
func decodeUserInfo(payload []byte) (map[string]Value, error) {
	if _, err := schema.Parse(payload); err != nil {
		return nil, err
	}
	return map[string]Value{}, nil
}
