// Package oddmanout has three or more seats flip coins at once. When
// exactly one coin differs from the rest, its owner scores.
package oddmanout

import (
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

const (
	ID         = "oddmanout"
	ActionFlip = "flip"

	Unflipped = -1
	// Concealed stands in for another seat's coin before the reveal.
	Concealed = -2

	PhaseFlip   = "flip"
	PhaseReveal = "reveal"

	DefaultTarget = 3
)

type State struct {
	game.Header
	Scores []int `json:"scores"`
	Target int   `json:"target"`
	Round  int   `json:"round"`
	// Coins holds 0 (tails) or 1 (heads) per seat, Unflipped until flipped.
	Coins []int `json:"coins"`
	// Odd is the seat that scored last round, -1 when nobody did.
	Odd int `json:"odd"`
}

func (s *State) Clone() *State {
	cp := *s
	cp.Header = s.Header.Copy()
	cp.Scores = append([]int(nil), s.Scores...)
	cp.Coins = append([]int(nil), s.Coins...)
	return &cp
}

// OddOne returns the single seat whose coin differs from all the others.
func OddOne(coins []int) (game.Seat, bool) {
	heads, lastHead, lastTail := 0, -1, -1
	for i, c := range coins {
		if c == 1 {
			heads++
			lastHead = i
		} else {
			lastTail = i
		}
	}
	switch {
	case heads == 1 && len(coins) > 2:
		return game.Seat(lastHead), true
	case heads == len(coins)-1 && len(coins) > 2:
		return game.Seat(lastTail), true
	}
	return 0, false
}

type Rules struct{}

func New() *Rules { return &Rules{} }

func (r *Rules) Info() game.Info {
	return game.Info{ID: ID, Name: "Odd Man Out", MinSeats: 3, MaxSeats: 6,
		Description: "Everyone flips at once; the lone different coin scores."}
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
		Odd:    -1,
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	s.Coins = unflipped(len(seats))
	game.OpenGate(&s.Header, game.GateStartGame, 0, nil)
	return s, nil
}

func unflipped(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = Unflipped
	}
	return out
}

func (r *Rules) Setup(s *State, _ rng.Source) *State { return s }

func (r *Rules) Validate(s *State, seat game.Seat, m game.Move) error {
	if gate, err := game.CheckTurn(&s.Header, seat, m); err != nil || gate {
		return err
	}
	if s.Phase != PhaseFlip {
		return game.Violation(game.WrongPhase, "not flipping")
	}
	if s.Coins[seat] != Unflipped {
		return game.Violation(game.IllegalMove, "seat %d already flipped", seat)
	}
	return game.RequireListed(r.ValidMoves(s, seat), m)
}

func (r *Rules) Apply(s *State, seat game.Seat, m game.Move, rnd rng.Source) *State {
	if game.IsGateAction(m) {
		game.ResolveGate(&s.Header)
		s.Round++
		s.Phase = PhaseFlip
		s.Simultaneous = true
		s.Coins = unflipped(s.Seats)
		s.Odd = -1
		return s
	}
	s.Coins[seat] = rng.Coin(rnd)
	for _, c := range s.Coins {
		if c == Unflipped {
			return s
		}
	}
	s.Simultaneous = false
	s.Phase = PhaseReveal
	s.RoundOver = true
	return s
}

func (r *Rules) AdvanceTurn(s *State) *State { return s }

func (r *Rules) CheckEnd(s *State) game.EndResult {
	return game.TargetReached(s.Scores, s.Target)
}

func (r *Rules) ScoreRound(s *State, _ rng.Source) *State {
	if !s.RoundOver {
		return s
	}
	s.RoundOver = false
	odd, ok := OddOne(s.Coins)
	if ok {
		s.Odd = int(odd)
		s.Scores[odd]++
	}
	if r.CheckEnd(s).Ended {
		return s
	}
	heads := 0
	for _, c := range s.Coins {
		heads += c
	}
	cur, _ := s.CurrentTurn.Seat()
	game.OpenGate(&s.Header, game.GateResolveRound, game.NextSeat(cur, s.Seats), map[string]int{
		"odd":   s.Odd,
		"heads": heads,
	})
	return s
}

func (r *Rules) ValidMoves(s *State, seat game.Seat) []game.Move {
	if m, ok := game.GateMove(&s.Header); ok {
		return []game.Move{m}
	}
	if s.GameOver || s.Phase != PhaseFlip || int(seat) >= len(s.Coins) || s.Coins[seat] != Unflipped {
		return nil
	}
	return []game.Move{{Action: ActionFlip}}
}

// AIMove has no choice to make beyond taking its single legal move.
func (r *Rules) AIMove(s *State, seat game.Seat, _ game.Difficulty, _ rng.Source) (game.Move, bool) {
	moves := r.ValidMoves(s, seat)
	if len(moves) == 0 {
		return game.Move{}, false
	}
	return moves[0], true
}

// PublicView shows a seat only whether others have flipped until all have.
func (r *Rules) PublicView(s *State, seat game.Seat) *State {
	v := s.Clone()
	if s.Phase != PhaseFlip {
		return v
	}
	for i, c := range v.Coins {
		if c != Unflipped && game.Seat(i) != seat {
			v.Coins[i] = Concealed
		}
	}
	return v
}
