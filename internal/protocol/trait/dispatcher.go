// Package trait classifies polymorphic trait payloads by their type tag
// and decodes each known family into a flat field record. Matching is
// substring containment on the canonical tag, ordered most-specific
// first: trait families share name stems (a settings variant contains the
// base name), so base rules carry exclusion sets.
package trait

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/krozgrov/nestwire/internal/observability"
)

type decodeFunc func(payload []byte) (map[string]Value, error)

type rule struct {
	// name is the canonical tag fragment that selects this family.
	name string
	// exclude lists fragments that must not also be present. Guards the
	// base family of a shared stem against its variants.
	exclude []string
	decode  decodeFunc
}

// Dispatcher is the trait decode registry. It is stateless and safe to
// share across sessions.
type Dispatcher struct {
	rules []rule
}

// NewDispatcher returns a dispatcher holding the full rule table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{rules: []rule{
		{name: "BoltLockSettingsTrait", decode: decodeBoltLockSettings},
		{name: "BoltLockCapabilitiesTrait", decode: decodeBoltLockCapabilities},
		{
			name:    "BoltLockTrait",
			exclude: []string{"BoltLockSettings", "BoltLockCapabilities"},
			decode:  decodeBoltLock,
		},
		{name: "PincodeInputTrait", decode: decodePincodeInput},
		{name: "TamperTrait", decode: decodeTamper},
		{name: "DeviceIdentityTrait", decode: decodeDeviceIdentity},
		{name: "BatteryPowerSourceTrait", decode: decodeBatteryPowerSource},
		{name: "TargetTemperatureSettingsTrait", decode: decodeTargetTemperatureSettings},
		{name: "HvacControlTrait", decode: decodeHvacControl},
		{name: "EcoModeStateTrait", decode: decodeEcoModeState},
		{name: "EcoModeSettingsTrait", decode: decodeEcoModeSettings},
		{name: "FanControlSettingsTrait", decode: decodeFanControlSettings},
		{
			name:    "FanControlTrait",
			exclude: []string{"FanControlSettings"},
			decode:  decodeFanControl,
		},
		{name: "OpenCloseTrait", decode: decodeOpenClose},
		{name: "AmbientMotionTimingSettingsTrait", decode: decodeAmbientMotionTiming},
		{
			name:    "AmbientMotionSettingsTrait",
			exclude: []string{"AmbientMotionTimingSettings"},
			decode:  decodeAmbientMotionSettings,
		},
		{
			name:    "AmbientMotionTrait",
			exclude: []string{"AmbientMotionSettings", "AmbientMotionTiming"},
			decode:  decodeAmbientMotion,
		},
		{name: "TemperatureTrait", decode: decodeTemperature},
		{name: "HumidityTrait", decode: decodeHumidity},
		{name: "StructureInfoTrait", decode: decodeStructureInfo},
		{name: "UserInfoTrait", decode: decodeUserInfo},
	}}
}

// Decode classifies and unpacks one trait payload. ok=false means the
// operation produced no record at all (no payload bytes); a tag that
// matches no rule still produces an undecoded record so the aggregate
// keeps sight of unknown traits. Unpack failures are recorded in the
// returned record, never returned as errors.
func (d *Dispatcher) Decode(objectID, typeURL string, payload []byte) (Record, bool) {
	if payload == nil {
		observability.RecordTraitDropped(observability.DropReasonNoPayload)
		log.Warn().
			Str("object_id", objectID).
			Str("type_url", typeURL).
			Msg("trait payload missing, skipping decode")
		return Record{}, false
	}

	rec := Record{ObjectID: objectID, TypeURL: typeURL}
	r, ok := d.match(typeURL)
	if !ok {
		log.Debug().
			Str("object_id", objectID).
			Str("type_url", typeURL).
			Msg("no decoder for trait type")
		return rec, true
	}

	data, err := r.decode(payload)
	if err != nil {
		rec.Err = err.Error()
		log.Debug().
			Str("object_id", objectID).
			Str("type_url", typeURL).
			Err(err).
			Msg("trait unpack failed")
		return rec, true
	}
	rec.Decoded = true
	rec.Data = data
	observability.RecordTraitDecoded(r.name)
	log.Debug().
		Str("object_id", objectID).
		Str("trait", r.name).
		Int("fields", len(data)).
		Msg("trait decoded")
	return rec, true
}

func (d *Dispatcher) match(typeURL string) (rule, bool) {
	for _, r := range d.rules {
		if !strings.Contains(typeURL, r.name) {
			continue
		}
		excluded := false
		for _, ex := range r.exclude {
			if strings.Contains(typeURL, ex) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		return r, true
	}
	return rule{}, false
}
