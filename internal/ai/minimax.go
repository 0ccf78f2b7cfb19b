package ai

import (
	"math"

	"tabletop/internal/game"
	"tabletop/internal/rng"
)

// WinScore is the value of a won terminal position. Wins found sooner score
// higher than wins found later.
const WinScore = 1e9

// Evaluator scores a non-terminal position from seat's point of view.
type Evaluator[S any] func(s S, seat game.Seat) float64

// Searcher runs depth-limited minimax with alpha-beta pruning over a
// variant's own transitions. It needs a two-seat perfect-information game.
// The maximising side is whichever node has the root seat to move, so
// multi-step turns that keep current_turn stay on the maximising side.
type Searcher[S game.Stateful[S]] struct {
	Rules game.Rules[S]
	Eval  Evaluator[S]
	Depth int
	Rand  rng.Source
}

func (sr Searcher[S]) rand() rng.Source {
	if sr.Rand != nil {
		return sr.Rand
	}
	return rng.NewSeeded(0)
}

func (sr Searcher[S]) child(s S, mover game.Seat, m game.Move, rnd rng.Source) S {
	next := sr.Rules.Apply(s.Clone(), mover, m, rnd)
	return sr.Rules.AdvanceTurn(next)
}

// Best returns the move with the highest minimax value for seat.
func (sr Searcher[S]) Best(s S, seat game.Seat) (game.Move, float64, bool) {
	moves := sr.Rules.ValidMoves(s, seat)
	if len(moves) == 0 {
		return game.Move{}, 0, false
	}
	rnd := sr.rand()
	depth := max(sr.Depth, 1)
	alpha, beta := math.Inf(-1), math.Inf(1)
	best, bestV := moves[0], math.Inf(-1)
	for _, m := range moves {
		v := sr.value(sr.child(s, seat, m, rnd), seat, depth-1, 1, alpha, beta, rnd)
		if v > bestV {
			best, bestV = m, v
		}
		alpha = max(alpha, bestV)
	}
	return best, bestV, true
}

// Score returns the exact minimax value of every root move. It searches
// each move with a full window, so it costs more than Best.
func (sr Searcher[S]) Score(s S, seat game.Seat) []Scored {
	moves := sr.Rules.ValidMoves(s, seat)
	rnd := sr.rand()
	depth := max(sr.Depth, 1)
	out := make([]Scored, len(moves))
	for i, m := range moves {
		v := sr.value(sr.child(s, seat, m, rnd), seat, depth-1, 1, math.Inf(-1), math.Inf(1), rnd)
		out[i] = Scored{Move: m, Score: v}
	}
	return out
}

func (sr Searcher[S]) value(s S, root game.Seat, depth, ply int, alpha, beta float64, rnd rng.Source) float64 {
	if end := sr.Rules.CheckEnd(s); end.Ended {
		return terminal(end, root, ply)
	}
	if depth <= 0 {
		return sr.Eval(s, root)
	}
	mover, ok := s.Head().CurrentTurn.Seat()
	if !ok {
		return sr.Eval(s, root)
	}
	moves := sr.Rules.ValidMoves(s, mover)
	if len(moves) == 0 {
		return sr.Eval(s, root)
	}
	if mover == root {
		v := math.Inf(-1)
		for _, m := range moves {
			v = max(v, sr.value(sr.child(s, mover, m, rnd), root, depth-1, ply+1, alpha, beta, rnd))
			alpha = max(alpha, v)
			if alpha >= beta {
				break
			}
		}
		return v
	}
	v := math.Inf(1)
	for _, m := range moves {
		v = min(v, sr.value(sr.child(s, mover, m, rnd), root, depth-1, ply+1, alpha, beta, rnd))
		beta = min(beta, v)
		if alpha >= beta {
			break
		}
	}
	return v
}

func terminal(end game.EndResult, root game.Seat, ply int) float64 {
	if len(end.Winners) == 0 || len(end.Winners) > 1 {
		return 0
	}
	if end.Winners[0] == root {
		return WinScore - float64(ply)
	}
	return -WinScore + float64(ply)
}

// Pick returns the best move at the searcher's depth. Difficulty only
// changes the depth; a searching seat never plays a move that scores
// strictly below another root move.
func (sr Searcher[S]) Pick(s S, seat game.Seat) (game.Move, bool) {
	m, _, ok := sr.Best(s, seat)
	return m, ok
}
