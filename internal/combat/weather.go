package combat

import (
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/world"
)

// WeatherMult is the environmental multiplier applied to pre-mitigation
// damage based on the room's weather and the damage type.
func WeatherMult(room *world.Room, damageType string) float64 {
	if room == nil {
		return 1
	}
	mult := 1.0
	if room.Flag(world.FlagWet) {
		switch damageType {
		case data.DamageFire:
			mult *= 0.75
		case data.DamageLightning:
			mult *= 1.25
		}
	}
	if room.Flag(world.FlagStormy) && damageType == data.DamageLightning {
		mult *= 1.5
	}
	if room.Flag(world.FlagFreezing) {
		switch damageType {
		case data.DamageCold:
			mult *= 1.25
		case data.DamageFire:
			mult *= 0.9
		}
	}
	if room.Flag(world.FlagBlazing) {
		switch damageType {
		case data.DamageFire:
			mult *= 1.25
		case data.DamageCold:
			mult *= 0.9
		}
	}
	if room.Flag(world.FlagSandstorm) {
		switch damageType {
		case data.DamageFire, data.DamageCold, data.DamageLightning, data.DamageAcid:
			mult *= 0.85
		}
	}
	return mult
}
