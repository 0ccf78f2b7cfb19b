package rng

import "sync"

// Sequence replays a fixed list of draws, cycling when exhausted. A value
// outside the requested range is wrapped into it.
type Sequence struct {
	mu   sync.Mutex
	vals []int
	i    int
}

func NewSequence(vals ...int) *Sequence {
	return &Sequence{vals: vals}
}

func (s *Sequence) Uniform(a, b int) int {
	if b < a {
		a, b = b, a
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return a
	}
	v := s.vals[s.i%len(s.vals)]
	s.i++
	span := b - a + 1
	return a + ((v-a)%span+span)%span
}

// Drawn reports how many values have been consumed.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.i
}
