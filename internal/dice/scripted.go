package dice

// Scripted is a Roller that replays fixed values. Tests use it to force
// specific combat outcomes. When a queue runs dry the inert fallback is
// returned: die = 1, float = 1 (so Chance never fires by accident).
type Scripted struct {
	Dies   []int
	Floats []float64
}

func (s *Scripted) Die(size int) int {
	if len(s.Dies) == 0 {
		return 1
	}
	v := s.Dies[0]
	s.Dies = s.Dies[1:]
	if v > size {
		v = size
	}
	if v < 1 {
		v = 1
	}
	return v
}

func (s *Scripted) Float() float64 {
	if len(s.Floats) == 0 {
		return 1
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}
