package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplode(t *testing.T) {
	tests := []struct {
		name string
		rolls []int
		size int
		want int
	}{
		{"no explosion", []int{2}, 3, 2},
		{"one explosion", []int{3, 2}, 3, 5},
		{"chain of two", []int{3, 3, 1}, 3, 7},
		{"hard cap", []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}, 3, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Scripted{Dies: tt.rolls}
			assert.Equal(t, tt.want, Explode(r, tt.size))
		})
	}
}

func TestExplodeCapCount(t *testing.T) {
	// Always rolling max: exactly 1 + MaxExplosions dice are consumed.
	rolls := make([]int, 20)
	for i := range rolls {
		rolls[i] = 6
	}
	r := &Scripted{Dies: rolls}
	got := Explode(r, 6)
	assert.Equal(t, 6*(MaxExplosions+1), got)
	assert.Len(t, r.Dies, 20-(MaxExplosions+1))
}

func TestChance(t *testing.T) {
	r := &Scripted{Floats: []float64{0.14}}
	assert.True(t, Chance(r, 0.17), "0.14 < 0.17 succeeds")
	r = &Scripted{Floats: []float64{0.5}}
	assert.False(t, Chance(r, 0.5), "equal to threshold fails")
	assert.False(t, Chance(&Scripted{}, 0))
	assert.True(t, Chance(&Scripted{}, 1))
}

func TestBetween(t *testing.T) {
	r := NewRoller(42)
	for i := 0; i < 200; i++ {
		v := Between(r, 3, 9)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 9)
	}
	assert.Equal(t, 5, Between(r, 5, 5))
	assert.Equal(t, 5, Between(r, 5, 2))
}

func TestSumRange(t *testing.T) {
	r := NewRoller(1)
	for i := 0; i < 100; i++ {
		v := Sum(r, 4, 6)
		assert.GreaterOrEqual(t, v, 4)
		assert.LessOrEqual(t, v, 24)
	}
}
