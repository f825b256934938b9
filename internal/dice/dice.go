// Package dice provides the random rolls used by the simulation. All
// randomness flows through a Roller so combat and loot code can be driven
// by a scripted sequence in tests.
package dice

import (
	"math/rand"
	"time"
)

// MaxExplosions caps chained exploding-die re-rolls.
const MaxExplosions = 10

// Roller is the source of all game randomness.
type Roller interface {
	// Die rolls a single die, returning a value in [1, size].
	// size < 1 returns 0.
	Die(size int) int
	// Float returns a uniform value in [0.0, 1.0).
	Float() float64
}

// D20 rolls a twenty-sided die.
func D20(r Roller) int { return r.Die(20) }

// Sum rolls n dice of the given size and sums them.
func Sum(r Roller, n, size int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += r.Die(size)
	}
	return total
}

// Explode rolls one die; each time the maximum face comes up, one more die
// of the same size is rolled and added, up to MaxExplosions chained rolls.
func Explode(r Roller, size int) int {
	if size < 2 {
		return r.Die(size)
	}
	total := 0
	for i := 0; i <= MaxExplosions; i++ {
		v := r.Die(size)
		total += v
		if v != size {
			break
		}
	}
	return total
}

// Chance returns true with probability p.
func Chance(r Roller, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float() < p
}

// Between returns a uniform value in [lo, hi]. lo > hi returns lo.
func Between(r Roller, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Die(hi-lo+1) - 1
}

type randRoller struct {
	rng *rand.Rand
}

// NewRoller returns a Roller backed by math/rand with the given seed.
func NewRoller(seed int64) Roller {
	return &randRoller{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeRoller returns a Roller seeded from the wall clock.
func NewTimeRoller() Roller {
	return NewRoller(time.Now().UnixNano())
}

func (r *randRoller) Die(size int) int {
	if size < 1 {
		return 0
	}
	return r.rng.Intn(size) + 1
}

func (r *randRoller) Float() float64 {
	return r.rng.Float64()
}
