// Package ai holds the move-selection strategies variants share: a
// difficulty-weighted pick over scored candidates and a depth-limited
// minimax search.
package ai

import (
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

// Scored is a candidate move with a heuristic or search score.
type Scored struct {
	Move  game.Move
	Score float64
}

// IntermediateBestPercent is how often an intermediate seat plays its top
// candidate. The rest of the time it picks uniformly.
const IntermediateBestPercent = 60

// beginnerBias scales how much a beginner prefers stronger moves. A
// candidate's weight ranges from 100 (worst) to 100+beginnerBias (best).
const beginnerBias = 50

// Best returns the first candidate with the highest score.
func Best(cands []Scored) (Scored, bool) {
	if len(cands) == 0 {
		return Scored{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}

// Choose picks one candidate according to difficulty.
func Choose(cands []Scored, d game.Difficulty, rnd rng.Source) (game.Move, bool) {
	best, ok := Best(cands)
	if !ok {
		return game.Move{}, false
	}
	switch d {
	case game.Expert:
		return best.Move, true
	case game.Beginner:
		return weighted(cands, rnd), true
	default:
		if rnd.Uniform(1, 100) <= IntermediateBestPercent {
			return best.Move, true
		}
		return cands[rnd.Uniform(0, len(cands)-1)].Move, true
	}
}

func weighted(cands []Scored, rnd rng.Source) game.Move {
	lo, hi := cands[0].Score, cands[0].Score
	for _, c := range cands {
		lo = min(lo, c.Score)
		hi = max(hi, c.Score)
	}
	weights := make([]int, len(cands))
	total := 0
	for i, c := range cands {
		w := 100
		if hi > lo {
			w += int(beginnerBias * (c.Score - lo) / (hi - lo))
		}
		weights[i] = w
		total += w
	}
	r := rnd.Uniform(0, total-1)
	for i, w := range weights {
		if r < w {
			return cands[i].Move
		}
		r -= w
	}
	return cands[len(cands)-1].Move
}

// Uniform scores every move equally, for variants with no useful heuristic.
func Uniform(moves []game.Move) []Scored {
	out := make([]Scored, len(moves))
	for i, m := range moves {
		out[i] = Scored{Move: m}
	}
	return out
}

// Depths maps difficulty to minimax search depth.
type Depths struct {
	Beginner     int
	Intermediate int
	Expert       int
}

func DefaultDepths() Depths {
	return Depths{Beginner: 1, Intermediate: 3, Expert: 5}
}

// For returns the configured depth, never less than 1.
func (d Depths) For(diff game.Difficulty) int {
	n := d.Intermediate
	switch diff {
	case game.Beginner:
		n = d.Beginner
	case game.Expert:
		n = d.Expert
	}
	return max(n, 1)
}
