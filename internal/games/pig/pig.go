// Package pig is the push-your-luck dice game: roll to grow a turn total,
// hold to bank it, and lose the whole turn total on a 1.
package pig

import (
	"tabletop/internal/ai"
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

const (
	ID         = "pig"
	ActionRoll = "roll"
	ActionHold = "hold"

	DefaultTarget = 100
	// holdAt is the turn total a sensible player banks at.
	holdAt = 20
)

type State struct {
	game.Header
	Scores       []int `json:"scores"`
	RoundTotal   int   `json:"round_total"`
	LastRoll     int   `json:"last_roll"`
	TurnComplete bool  `json:"turn_complete"`
	Target       int   `json:"target"`
}

func (s *State) Clone() *State {
	cp := *s
	cp.Header = s.Header.Copy()
	cp.Scores = append([]int(nil), s.Scores...)
	return &cp
}

type Rules struct{}

func New() *Rules { return &Rules{} }

func (r *Rules) Info() game.Info {
	return game.Info{ID: ID, Name: "Pig", MinSeats: 2, MaxSeats: 6,
		Description: "Roll to build a turn total, hold to bank it; a 1 wipes the turn."}
}

func (r *Rules) Init(seats []game.SeatInfo, settings game.Settings) (*State, error) {
	if err := game.CheckSeats(r.Info(), seats); err != nil {
		return nil, err
	}
	rd := game.ReadSettings(settings)
	s := &State{
		Header: game.Header{Seats: len(seats), Phase: "waiting", Winners: []game.Seat{}},
		Scores: make([]int, len(seats)),
		Target: rd.PositiveInt("target", DefaultTarget),
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	game.OpenGate(&s.Header, game.GateStartGame, 0, nil)
	return s, nil
}

// Setup draws the seat that rolls first.
func (r *Rules) Setup(s *State, rnd rng.Source) *State {
	if s.Gate != nil {
		first := game.Seat(rnd.Uniform(0, s.Seats-1))
		s.Gate.Next = &first
	}
	return s
}

func (r *Rules) Validate(s *State, seat game.Seat, m game.Move) error {
	if gate, err := game.CheckTurn(&s.Header, seat, m); err != nil || gate {
		return err
	}
	switch m.Action {
	case ActionRoll:
		return nil
	case ActionHold:
		if s.RoundTotal == 0 {
			return game.Violation(game.IllegalMove, "nothing to hold")
		}
		return nil
	}
	return game.Violation(game.IllegalMove, "unknown action %q", m.Action)
}

func (r *Rules) Apply(s *State, seat game.Seat, m game.Move, rnd rng.Source) *State {
	switch m.Action {
	case game.ActionBeginGame:
		game.ResolveGate(&s.Header)
		s.Phase = "play"
	case ActionRoll:
		s.LastRoll = rng.Die(rnd, 6)
		if s.LastRoll == 1 {
			s.RoundTotal = 0
			s.TurnComplete = true
		} else {
			s.RoundTotal += s.LastRoll
		}
	case ActionHold:
		s.Scores[seat] += s.RoundTotal
		s.RoundTotal = 0
		s.TurnComplete = true
	}
	return s
}

func (r *Rules) AdvanceTurn(s *State) *State {
	if !s.TurnComplete || s.Gate != nil {
		return s
	}
	s.TurnComplete = false
	if cur, ok := s.CurrentTurn.Seat(); ok {
		s.CurrentTurn = game.SeatTurn(game.NextSeat(cur, s.Seats))
	}
	return s
}

func (r *Rules) CheckEnd(s *State) game.EndResult {
	return game.TargetReached(s.Scores, s.Target)
}

func (r *Rules) ScoreRound(s *State, _ rng.Source) *State { return s }

func (r *Rules) ValidMoves(s *State, seat game.Seat) []game.Move {
	if m, ok := game.GateMove(&s.Header); ok {
		return []game.Move{m}
	}
	if s.GameOver || !s.CurrentTurn.Is(seat) {
		return nil
	}
	moves := []game.Move{{Action: ActionRoll}}
	if s.RoundTotal > 0 {
		moves = append(moves, game.Move{Action: ActionHold})
	}
	return moves
}

// AIMove aims to bank at holdAt, or sooner when that already wins.
func (r *Rules) AIMove(s *State, seat game.Seat, d game.Difficulty, rnd rng.Source) (game.Move, bool) {
	if m, ok := game.GateMove(&s.Header); ok {
		return m, true
	}
	moves := r.ValidMoves(s, seat)
	want := min(holdAt, s.Target-s.Scores[seat])
	cands := make([]ai.Scored, len(moves))
	for i, m := range moves {
		score := float64(want - s.RoundTotal)
		if m.Action == ActionHold {
			score = -score + 0.5
		}
		cands[i] = ai.Scored{Move: m, Score: score}
	}
	return ai.Choose(cands, d, rnd)
}

func (r *Rules) PublicView(s *State, _ game.Seat) *State { return s.Clone() }
