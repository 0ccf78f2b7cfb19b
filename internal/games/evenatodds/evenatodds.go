// Package evenatodds has every seat secretly bid on whether two dice will
// sum even or odd. Bids are hidden until all are in, then the dice are
// rolled and shown behind a resolve_round gate.
package evenatodds

import (
	"tabletop/internal/ai"
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

const (
	ID        = "evenatodds"
	ActionBid = "bid"
	Even      = "even"
	Odd       = "odd"
	// Hidden replaces another seat's bid in a public view.
	Hidden = "hidden"

	PhaseBidding = "bidding"
	PhaseReveal  = "reveal"

	DefaultTarget = 5
)

type State struct {
	game.Header
	Scores      []int    `json:"scores"`
	Target      int      `json:"target"`
	Round       int      `json:"round"`
	Bids        []string `json:"bids"`
	Dice        []int    `json:"dice,omitempty"`
	Sum         int      `json:"sum"`
	RoundPoints []int    `json:"round_points,omitempty"`
}

func (s *State) Clone() *State {
	cp := *s
	cp.Header = s.Header.Copy()
	cp.Scores = append([]int(nil), s.Scores...)
	cp.Bids = append([]string(nil), s.Bids...)
	cp.Dice = append([]int(nil), s.Dice...)
	cp.RoundPoints = append([]int(nil), s.RoundPoints...)
	return &cp
}

func parity(n int) string {
	if n%2 == 0 {
		return Even
	}
	return Odd
}

type Rules struct{}

func New() *Rules { return &Rules{} }

func (r *Rules) Info() game.Info {
	return game.Info{ID: ID, Name: "Even at Odds", MinSeats: 2, MaxSeats: 6,
		Description: "Everyone secretly calls even or odd, then two dice decide."}
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
		Bids:   make([]string, len(seats)),
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	game.OpenGate(&s.Header, game.GateStartGame, 0, nil)
	return s, nil
}

func (r *Rules) Setup(s *State, _ rng.Source) *State { return s }

func (r *Rules) startBidding(s *State) {
	s.Round++
	s.Phase = PhaseBidding
	s.Simultaneous = true
	s.Bids = make([]string, s.Seats)
	s.Dice = nil
	s.Sum = 0
	s.RoundPoints = nil
}

func (r *Rules) Validate(s *State, seat game.Seat, m game.Move) error {
	if gate, err := game.CheckTurn(&s.Header, seat, m); err != nil || gate {
		return err
	}
	if s.Phase != PhaseBidding {
		return game.Violation(game.WrongPhase, "bids are closed")
	}
	if s.Bids[seat] != "" {
		return game.Violation(game.IllegalMove, "seat %d already bid", seat)
	}
	return game.RequireListed(r.ValidMoves(s, seat), m)
}

func (r *Rules) Apply(s *State, seat game.Seat, m game.Move, rnd rng.Source) *State {
	if game.IsGateAction(m) {
		game.ResolveGate(&s.Header)
		r.startBidding(s)
		return s
	}
	s.Bids[seat] = m.Value
	for _, b := range s.Bids {
		if b == "" {
			return s
		}
	}
	s.Dice, s.Sum = rng.Dice(rnd, 2, 6)
	s.RoundPoints = make([]int, s.Seats)
	for i, b := range s.Bids {
		if b == parity(s.Sum) {
			s.RoundPoints[i] = 1
		}
	}
	s.Simultaneous = false
	s.Phase = PhaseReveal
	s.RoundOver = true
	return s
}

// AdvanceTurn does nothing: bidding is simultaneous and rounds end on a gate.
func (r *Rules) AdvanceTurn(s *State) *State { return s }

func (r *Rules) CheckEnd(s *State) game.EndResult {
	return game.TargetReached(s.Scores, s.Target)
}

// ScoreRound banks the round and opens the reveal gate. The nominal turn
// holder rotates each round.
func (r *Rules) ScoreRound(s *State, _ rng.Source) *State {
	if !s.RoundOver {
		return s
	}
	s.RoundOver = false
	for i, p := range s.RoundPoints {
		s.Scores[i] += p
	}
	if r.CheckEnd(s).Ended {
		return s
	}
	cur, _ := s.CurrentTurn.Seat()
	game.OpenGate(&s.Header, game.GateResolveRound, game.NextSeat(cur, s.Seats), map[string]int{
		"sum":  s.Sum,
		"even": 1 - s.Sum%2,
	})
	return s
}

func (r *Rules) ValidMoves(s *State, seat game.Seat) []game.Move {
	if m, ok := game.GateMove(&s.Header); ok {
		return []game.Move{m}
	}
	if s.GameOver || s.Phase != PhaseBidding || int(seat) >= len(s.Bids) || s.Bids[seat] != "" {
		return nil
	}
	return []game.Move{{Action: ActionBid, Value: Even}, {Action: ActionBid, Value: Odd}}
}

// AIMove: the two parities are equally likely, so every difficulty guesses.
func (r *Rules) AIMove(s *State, seat game.Seat, d game.Difficulty, rnd rng.Source) (game.Move, bool) {
	moves := r.ValidMoves(s, seat)
	if len(moves) == 1 {
		return moves[0], true
	}
	return ai.Choose(ai.Uniform(moves), game.Beginner, rnd)
}

// PublicView hides other seats' bids while bidding is open.
func (r *Rules) PublicView(s *State, seat game.Seat) *State {
	v := s.Clone()
	if s.Phase != PhaseBidding {
		return v
	}
	for i, b := range v.Bids {
		if b != "" && game.Seat(i) != seat {
			v.Bids[i] = Hidden
		}
	}
	return v
}
