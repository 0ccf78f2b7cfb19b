// Package rng is the only place dice, coins and shuffles get their entropy.
package rng

import (
	"math/rand"
	"sync"
)

// Source yields uniformly distributed integers in the closed range [a, b].
type Source interface {
	Uniform(a, b int) int
}

// Seeded is a goroutine-safe math/rand source. The same seed replays the
// same sequence of draws.
type Seeded struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSeeded(seed int64) *Seeded {
	return &Seeded{r: rand.New(rand.NewSource(seed))}
}

func (s *Seeded) Uniform(a, b int) int {
	if b < a {
		a, b = b, a
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return a + s.r.Intn(b-a+1)
}

// Shuffle permutes xs in place (Fisher-Yates) using draws from src.
func Shuffle[T any](src Source, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := src.Uniform(0, i)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// Die rolls one n-sided die.
func Die(src Source, sides int) int {
	return src.Uniform(1, sides)
}

// Dice rolls count dice and returns the faces and their sum.
func Dice(src Source, count, sides int) ([]int, int) {
	faces := make([]int, count)
	total := 0
	for i := range faces {
		faces[i] = Die(src, sides)
		total += faces[i]
	}
	return faces, total
}

// Coin returns 0 or 1.
func Coin(src Source) int {
	return src.Uniform(0, 1)
}
