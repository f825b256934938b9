// Package rules holds the ruleset math: stat modifier curve, attack
// ratings, dodge, skill bonuses, and the leveling curve. Everything here is
// a pure function so the combat pipeline and the character model share one
// source of truth.
package rules

import "math"

// Mod is the stat modifier curve: mod = floor(stat/3).
func Mod(stat int) int {
	if stat < 0 {
		return 0
	}
	return stat / 3
}

// MAR is the melee attack rating.
func MAR(mightMod, agiMod int) int { return mightMod + agiMod/2 }

// RAR is the ranged attack rating.
func RAR(agiMod, mightMod int) int { return agiMod + mightMod/2 }

// APR is the arcane power rating.
func APR(intMod, auraMod int) int { return intMod + auraMod/2 }

// DPR is the divine power rating.
func DPR(auraMod, persMod int) int { return auraMod + persMod/2 }

// DodgeValue derives DV from the agility modifier. Characters subtract
// their total armor value: armor penalizes dodge. Mobs carry no armor load.
func DodgeValue(agiMod, armorValue int) int {
	return agiMod*2 - armorValue
}

// WeaponSkillBonus converts a weapon skill rank to a hit-rating bonus.
func WeaponSkillBonus(rank int) int { return rank / 25 }

// ParryChance converts the parrying skill rank to a chance, hard-capped.
func ParryChance(rank int) float64 {
	c := float64(rank) * 0.005
	if c > 0.5 {
		c = 0.5
	}
	return c
}

// BlockChance is the shield's base chance plus the shield-usage bonus.
func BlockChance(base float64, shieldRank int) float64 {
	return base + float64(shieldRank/10)*0.01
}

// SpellPowerBonus converts a school's power rating to bonus magical damage.
func SpellPowerBonus(power int) int {
	b := power / 4
	if b < 1 {
		b = 1
	}
	return b
}

// BarteringPercent is the shop price swing (percent) earned from the
// bartering skill: cheaper buys, richer sells.
func BarteringPercent(rank int) int { return rank / 25 }

// PoolCap is the XP pool ceiling: intellect × 100.
func PoolCap(intellect int) int64 { return int64(intellect) * 100 }

// Curve is the leveling curve, parameterized from config.
type Curve struct {
	Base     float64
	Exponent float64
	MaxLevel int
}

// TotalForLevel returns the cumulative XP total required to hold a level.
// Level 1 requires 0.
func (c Curve) TotalForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > c.MaxLevel {
		level = c.MaxLevel
	}
	return int64(c.Base * math.Pow(float64(level-1), c.Exponent))
}

// LevelForTotal returns the level a cumulative XP total earns.
func (c Curve) LevelForTotal(total int64) int {
	lvl := 1
	for lvl < c.MaxLevel && total >= c.TotalForLevel(lvl+1) {
		lvl++
	}
	return lvl
}

// DeathXPLoss returns 10% of the progress earned inside the current level,
// never dipping below the level floor.
func (c Curve) DeathXPLoss(total int64, level int) int64 {
	floor := c.TotalForLevel(level)
	progress := total - floor
	if progress <= 0 {
		return 0
	}
	return progress / 10
}
