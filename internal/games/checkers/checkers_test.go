package checkers

import (
	"testing"

	"tabletop/internal/ai"
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

func newRules() *Rules { return New(ai.Depths{Beginner: 1, Intermediate: 2, Expert: 4}) }

func emptyState(t *testing.T, turn game.Seat) *State {
	t.Helper()
	s, err := newRules().Init([]game.SeatInfo{{Seat: 0}, {Seat: 1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range s.Board {
		s.Board[i] = Empty
	}
	s.CurrentTurn = game.SeatTurn(turn)
	return s
}

func TestInitialPosition(t *testing.T) {
	r := newRules()
	s, err := r.Init([]game.SeatInfo{{Seat: 0}, {Seat: 1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.count(0) != 12 || s.count(1) != 12 {
		t.Fatalf("pieces %d/%d", s.count(0), s.count(1))
	}
	if got := len(r.ValidMoves(s, 0)); got != 7 {
		t.Fatalf("opening moves = %d, want 7", got)
	}
	if len(r.ValidMoves(s, 1)) != 0 {
		t.Fatal("seat 1 has moves on seat 0's turn")
	}
}

func TestCaptureIsForced(t *testing.T) {
	r := newRules()
	s := emptyState(t, 0)
	s.Board[sq(5, 2)] = ManDark
	s.Board[sq(4, 3)] = ManLight
	s.Board[sq(6, 7)] = ManDark
	moves := r.ValidMoves(s, 0)
	if len(moves) != 1 || moves[0].Path[0] != sq(5, 2) || moves[0].Path[1] != sq(3, 4) {
		t.Fatalf("moves = %v", moves)
	}
	step := move(sq(6, 7), sq(5, 6))
	if err := r.Validate(s, 0, step); !game.IsViolation(err, game.IllegalMove) {
		t.Fatalf("non-capture accepted while capture available: %v", err)
	}
}

func TestMultiJumpKeepsTurn(t *testing.T) {
	r := newRules()
	s := emptyState(t, 0)
	s.Board[sq(6, 1)] = ManDark
	s.Board[sq(5, 2)] = ManLight
	s.Board[sq(3, 4)] = ManLight
	s.Board[sq(0, 7)] = ManLight

	s = r.AdvanceTurn(r.Apply(s, 0, move(sq(6, 1), sq(4, 3)), nil))
	if s.Chain != sq(4, 3) || !s.CurrentTurn.Is(0) {
		t.Fatalf("chain=%d turn=%v", s.Chain, s.CurrentTurn)
	}
	moves := r.ValidMoves(s, 0)
	if len(moves) != 1 || moves[0].Path[1] != sq(2, 5) {
		t.Fatalf("continuation = %v", moves)
	}
	s = r.AdvanceTurn(r.Apply(s, 0, moves[0], nil))
	if s.Chain != NoChain || !s.CurrentTurn.Is(1) {
		t.Fatalf("chain=%d turn=%v", s.Chain, s.CurrentTurn)
	}
	if s.count(1) != 1 {
		t.Fatalf("light pieces left = %d", s.count(1))
	}
}

func TestPromotionEndsChain(t *testing.T) {
	r := newRules()
	s := emptyState(t, 0)
	s.Board[sq(2, 1)] = ManDark
	s.Board[sq(1, 2)] = ManLight
	// After crowning at (0,3) this piece could jump again as a king.
	s.Board[sq(1, 4)] = ManLight
	s = r.AdvanceTurn(r.Apply(s, 0, move(sq(2, 1), sq(0, 3)), nil))
	if s.Board[sq(0, 3)] != KingDark {
		t.Fatalf("not crowned: %d", s.Board[sq(0, 3)])
	}
	if s.Chain != NoChain || !s.CurrentTurn.Is(1) {
		t.Fatal("crowning should end the turn")
	}
}

func TestNoMovesLoses(t *testing.T) {
	r := newRules()
	s := emptyState(t, 1)
	s.Board[sq(7, 0)] = ManLight
	s.Board[sq(5, 2)] = ManDark
	end := r.CheckEnd(s)
	if !end.Ended || end.Reason != "no_moves" || end.Winners[0] != 0 {
		t.Fatalf("end = %+v", end)
	}
	s.Board[sq(7, 0)] = Empty
	if end := r.CheckEnd(s); end.Reason != "no_pieces" {
		t.Fatalf("end = %+v", end)
	}
}

func TestNoProgressDraw(t *testing.T) {
	r := newRules()
	s := emptyState(t, 0)
	s.Board[sq(7, 0)] = KingDark
	s.Board[sq(0, 7)] = KingLight
	s.MaxQuiet = 4
	for i := 0; i < 4; i++ {
		seat, _ := s.CurrentTurn.Seat()
		if end := r.CheckEnd(s); end.Ended {
			t.Fatalf("ended early at ply %d: %+v", i, end)
		}
		s = r.AdvanceTurn(r.Apply(s, seat, r.ValidMoves(s, seat)[0], nil))
	}
	end := r.CheckEnd(s)
	if !end.Ended || end.Reason != "no_progress" || len(end.Winners) != 0 {
		t.Fatalf("end = %+v", end)
	}
}

func TestAIPrefersCapture(t *testing.T) {
	r := newRules()
	s := emptyState(t, 1)
	s.Board[sq(2, 3)] = ManLight
	s.Board[sq(3, 4)] = ManDark
	s.Board[sq(7, 0)] = ManDark
	s.Board[sq(0, 1)] = ManLight
	for _, d := range []game.Difficulty{game.Beginner, game.Intermediate, game.Expert} {
		for seed := int64(0); seed < 20; seed++ {
			m, ok := r.AIMove(s, 1, d, rng.NewSeeded(seed))
			if !ok || m.Path[0] != sq(2, 3) || m.Path[1] != sq(4, 5) {
				t.Fatalf("%s seed %d: ai move = %v", d, seed, m)
			}
		}
	}
}

func TestMinimaxNeverPicksStrictlyWorse(t *testing.T) {
	r := newRules()
	s, _ := r.Init([]game.SeatInfo{{Seat: 0}, {Seat: 1}}, nil)
	src := rng.NewSeeded(17)
	for ply := 0; ply < 10 && !r.CheckEnd(s).Ended; ply++ {
		seat, _ := s.CurrentTurn.Seat()
		for _, d := range []game.Difficulty{game.Beginner, game.Intermediate, game.Expert} {
			sr := ai.Searcher[*State]{Rules: r, Eval: Evaluate, Depth: r.depths.For(d)}
			scored := sr.Score(s, seat)
			top, _ := ai.Best(scored)
			m, ok := r.AIMove(s, seat, d, rng.NewSeeded(int64(ply)))
			if !ok {
				t.Fatalf("ply %d %s: no move", ply, d)
			}
			for _, c := range scored {
				if c.Move.Equal(m) && c.Score < top.Score {
					t.Fatalf("ply %d %s: played %v worth %v, %v available", ply, d, m, c.Score, top.Score)
				}
			}
		}
		moves := r.ValidMoves(s, seat)
		s = r.AdvanceTurn(r.Apply(s, seat, moves[src.Uniform(0, len(moves)-1)], nil))
		if err := s.Check(); err != nil {
			t.Fatal(err)
		}
	}
}
