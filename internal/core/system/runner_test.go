package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSystem struct {
	phase Phase
	log   *[]Phase
}

func (s *recordingSystem) Phase() Phase        { return s.phase }
func (s *recordingSystem) Update(time.Duration) { *s.log = append(*s.log, s.phase) }

func TestTickRunsInPhaseOrder(t *testing.T) {
	var log []Phase
	r := NewRunner()
	// Registered out of order on purpose.
	r.Register(&recordingSystem{phase: PhasePersist, log: &log})
	r.Register(&recordingSystem{phase: PhaseInput, log: &log})
	r.Register(&recordingSystem{phase: PhaseUpdate, log: &log})
	r.Register(&recordingSystem{phase: PhaseOutput, log: &log})

	r.Tick(time.Second)
	assert.Equal(t, []Phase{PhaseInput, PhaseUpdate, PhaseOutput, PhasePersist}, log)
}

func TestTickPhaseRunsOnlyThatPhase(t *testing.T) {
	var log []Phase
	r := NewRunner()
	r.Register(&recordingSystem{phase: PhaseInput, log: &log})
	r.Register(&recordingSystem{phase: PhaseUpdate, log: &log})

	r.TickPhase(PhaseInput, time.Millisecond)
	r.TickPhase(PhaseInput, time.Millisecond)
	assert.Equal(t, []Phase{PhaseInput, PhaseInput}, log)
}
