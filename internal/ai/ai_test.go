package ai

import (
	"testing"

	"tabletop/internal/game"
	"tabletop/internal/rng"
)

// nim: two seats alternately take 1 or 2 stones; whoever takes the last
// stone wins.
type nimState struct {
	game.Header
	Stones int `json:"stones"`
	Last   int `json:"last"`
}

func (s *nimState) Clone() *nimState {
	cp := *s
	cp.Header = s.Header.Copy()
	return &cp
}

type nim struct{}

func (nim) Info() game.Info { return game.Info{ID: "nim", MinSeats: 2, MaxSeats: 2} }

func (nim) Init(_ []game.SeatInfo, settings game.Settings) (*nimState, error) {
	r := game.ReadSettings(settings)
	n := r.PositiveInt("stones", 7)
	return &nimState{Header: game.Header{Seats: 2, CurrentTurn: game.SeatTurn(0)}, Stones: n, Last: -1}, r.Err()
}

func (nim) Setup(s *nimState, _ rng.Source) *nimState { return s }

func (n nim) Validate(s *nimState, seat game.Seat, m game.Move) error {
	if _, err := game.CheckTurn(&s.Header, seat, m); err != nil {
		return err
	}
	return game.RequireListed(n.ValidMoves(s, seat), m)
}

func (nim) Apply(s *nimState, seat game.Seat, m game.Move, _ rng.Source) *nimState {
	s.Stones -= m.Target
	s.Last = int(seat)
	return s
}

func (nim) AdvanceTurn(s *nimState) *nimState {
	cur, _ := s.CurrentTurn.Seat()
	s.CurrentTurn = game.SeatTurn(game.NextSeat(cur, 2))
	return s
}

func (nim) CheckEnd(s *nimState) game.EndResult {
	if s.Stones == 0 {
		return game.EndResult{Ended: true, Reason: "last_stone", Winners: []game.Seat{game.Seat(s.Last)}}
	}
	return game.EndResult{}
}

func (nim) ScoreRound(s *nimState, _ rng.Source) *nimState { return s }

func (nim) AIMove(*nimState, game.Seat, game.Difficulty, rng.Source) (game.Move, bool) {
	return game.Move{}, false
}

func (nim) ValidMoves(s *nimState, seat game.Seat) []game.Move {
	if !s.CurrentTurn.Is(seat) || s.Stones == 0 {
		return nil
	}
	var out []game.Move
	for take := 1; take <= min(2, s.Stones); take++ {
		out = append(out, game.Move{Action: "take", Target: take})
	}
	return out
}

func (nim) PublicView(s *nimState, _ game.Seat) *nimState { return s.Clone() }

func zeroEval(*nimState, game.Seat) float64 { return 0 }

func TestSearcherFindsForcedWin(t *testing.T) {
	// With 4 stones the mover wins by taking 1 (leaving a multiple of 3).
	s, _ := nim{}.Init(nil, game.Settings{"stones": 4})
	sr := Searcher[*nimState]{Rules: nim{}, Eval: zeroEval, Depth: 6}
	m, v, ok := sr.Best(s, 0)
	if !ok || m.Target != 1 {
		t.Fatalf("best = %v ok=%v", m, ok)
	}
	if v <= 0 {
		t.Fatalf("forced win should score positive, got %v", v)
	}
	if s.Stones != 4 {
		t.Fatal("search mutated the root state")
	}
}

func TestSearcherNeverPicksStrictlyWorse(t *testing.T) {
	for stones := 1; stones <= 9; stones++ {
		for depth := 1; depth <= 5; depth++ {
			s, _ := nim{}.Init(nil, game.Settings{"stones": stones})
			sr := Searcher[*nimState]{Rules: nim{}, Eval: zeroEval, Depth: depth}
			m, v, _ := sr.Best(s, 0)
			scored := sr.Score(s, 0)
			top, _ := Best(scored)
			if v != top.Score {
				t.Fatalf("stones=%d depth=%d: best value %v, exact top %v", stones, depth, v, top.Score)
			}
			for _, c := range scored {
				if c.Move.Equal(m) && c.Score < top.Score {
					t.Fatalf("stones=%d depth=%d: chose %v scoring %v below %v", stones, depth, m, c.Score, top.Score)
				}
			}
		}
	}
}

func TestPickPlaysBestAtEveryDepth(t *testing.T) {
	for stones := 1; stones <= 9; stones++ {
		for depth := 1; depth <= 5; depth++ {
			s, _ := nim{}.Init(nil, game.Settings{"stones": stones})
			sr := Searcher[*nimState]{Rules: nim{}, Eval: zeroEval, Depth: depth, Rand: rng.NewSeeded(int64(stones))}
			m, ok := sr.Pick(s, 0)
			if !ok {
				t.Fatalf("stones=%d depth=%d: no move", stones, depth)
			}
			top, _ := Best(sr.Score(s, 0))
			for _, c := range sr.Score(s, 0) {
				if c.Move.Equal(m) && c.Score < top.Score {
					t.Fatalf("stones=%d depth=%d: picked %v scoring %v below %v", stones, depth, m, c.Score, top.Score)
				}
			}
		}
	}
}

func TestSearcherPrefersFasterWin(t *testing.T) {
	// Two stones: taking both wins immediately, taking one loses.
	s, _ := nim{}.Init(nil, game.Settings{"stones": 2})
	sr := Searcher[*nimState]{Rules: nim{}, Eval: zeroEval, Depth: 3}
	m, _, _ := sr.Best(s, 0)
	if m.Target != 2 {
		t.Fatalf("want take 2, got %v", m)
	}
}

func TestChooseExpertTakesBest(t *testing.T) {
	cands := []Scored{
		{Move: game.Move{Action: "a"}, Score: 1},
		{Move: game.Move{Action: "b"}, Score: 9},
		{Move: game.Move{Action: "c"}, Score: 3},
	}
	for i := 0; i < 20; i++ {
		m, ok := Choose(cands, game.Expert, rng.NewSeeded(int64(i)))
		if !ok || m.Action != "b" {
			t.Fatalf("expert chose %v", m)
		}
	}
}

func TestChooseIntermediateUsesThreshold(t *testing.T) {
	cands := []Scored{
		{Move: game.Move{Action: "a"}, Score: 1},
		{Move: game.Move{Action: "b"}, Score: 9},
	}
	// 60 is within the best-move band, 61 falls through to a uniform pick
	// of index 0.
	if m, _ := Choose(cands, game.Intermediate, rng.NewSequence(60)); m.Action != "b" {
		t.Fatalf("roll 60 chose %v", m)
	}
	if m, _ := Choose(cands, game.Intermediate, rng.NewSequence(61, 0)); m.Action != "a" {
		t.Fatalf("roll 61 chose %v", m)
	}
}

func TestChooseBeginnerLeansToStrongMoves(t *testing.T) {
	cands := []Scored{
		{Move: game.Move{Action: "weak"}, Score: 0},
		{Move: game.Move{Action: "strong"}, Score: 10},
	}
	src := rng.NewSeeded(99)
	counts := map[string]int{}
	for i := 0; i < 5000; i++ {
		m, _ := Choose(cands, game.Beginner, src)
		counts[m.Action]++
	}
	if counts["weak"] == 0 || counts["strong"] <= counts["weak"] {
		t.Fatalf("beginner distribution %v", counts)
	}
	if counts["strong"] > 4*counts["weak"] {
		t.Fatalf("beginner bias too strong: %v", counts)
	}
}

func TestChooseEmpty(t *testing.T) {
	if _, ok := Choose(nil, game.Expert, rng.NewSeeded(1)); ok {
		t.Fatal("empty candidates should yield no move")
	}
}

func TestDepthsFloor(t *testing.T) {
	d := Depths{Beginner: 0, Intermediate: 2, Expert: 6}
	if d.For(game.Beginner) != 1 || d.For(game.Intermediate) != 2 || d.For(game.Expert) != 6 {
		t.Fatalf("depths %+v", d)
	}
	if d.For("unknown") != 2 {
		t.Fatal("unknown difficulty should use intermediate depth")
	}
}
