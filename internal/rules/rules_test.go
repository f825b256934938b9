package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMod(t *testing.T) {
	assert.Equal(t, 5, Mod(15))
	assert.Equal(t, 4, Mod(12))
	assert.Equal(t, 0, Mod(2))
	assert.Equal(t, 0, Mod(-3), "negative stats clamp to zero modifier")
}

func TestRatings(t *testing.T) {
	// might 15 → mod 5, agi 12 → mod 4
	assert.Equal(t, 7, MAR(5, 4))
	assert.Equal(t, 6, RAR(4, 5))
	assert.Equal(t, 7, APR(5, 4))
	assert.Equal(t, 6, DPR(4, 5))
}

func TestDodgeValue(t *testing.T) {
	assert.Equal(t, 6, DodgeValue(3, 0))
	assert.Equal(t, 1, DodgeValue(3, 5), "armor load penalizes dodge")
}

func TestParryChance(t *testing.T) {
	assert.InDelta(t, 0.1, ParryChance(20), 1e-9)
	assert.InDelta(t, 0.5, ParryChance(150), 1e-9, "hard cap at 0.5")
}

func TestBlockChance(t *testing.T) {
	assert.InDelta(t, 0.17, BlockChance(0.15, 20), 1e-9)
	assert.InDelta(t, 0.15, BlockChance(0.15, 9), 1e-9)
}

func TestPoolCap(t *testing.T) {
	assert.Equal(t, int64(1200), PoolCap(12))
}

func TestCurve(t *testing.T) {
	c := Curve{Base: 1000, Exponent: 1.8, MaxLevel: 50}

	assert.Equal(t, int64(0), c.TotalForLevel(1))
	assert.Equal(t, int64(1000), c.TotalForLevel(2))
	assert.Less(t, c.TotalForLevel(2), c.TotalForLevel(3))

	assert.Equal(t, 1, c.LevelForTotal(0))
	assert.Equal(t, 1, c.LevelForTotal(999))
	assert.Equal(t, 2, c.LevelForTotal(1000))
	assert.Equal(t, 50, c.LevelForTotal(1<<62), "clamped at max level")
}

func TestDeathXPLoss(t *testing.T) {
	c := Curve{Base: 1000, Exponent: 1.8, MaxLevel: 50}
	floor := c.TotalForLevel(3)

	assert.Equal(t, int64(50), c.DeathXPLoss(floor+500, 3))
	assert.Equal(t, int64(0), c.DeathXPLoss(floor, 3), "no loss at the level floor")
}
