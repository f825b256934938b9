package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session input, run commands
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: roundtime, casting, mob AI, effects
	PhasePostUpdate              // 3: regen, absorption, respawn, weather
	PhaseOutput                  // 4: flush session output buffers
	PhasePersist                 // 5: batch save of dirty state
	PhaseCleanup                 // 6: destroy queued instances
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
