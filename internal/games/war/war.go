// Package war is the two-seat card game: both seats flip at once, the
// higher card takes the table, and ties go to war.
package war

import (
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

const (
	ID         = "war"
	ActionFlip = "flip"

	PhaseFlip = "flip"

	// warCards is how many face-down cards each seat stakes on a tie.
	warCards = 3

	DefaultMaxRounds = 500
)

type State struct {
	game.Header
	Piles [][]int `json:"piles"`
	// Counts mirrors len(Piles[i]) so public views can drop the piles.
	Counts []int `json:"counts"`
	// Table holds every staked card. FaceDown marks the war stakes among
	// them; public views show those as 0.
	Table    []int  `json:"table"`
	FaceDown []bool `json:"face_down"`
	Up       []int  `json:"up"`
	Flipped  []bool `json:"flipped"`
	Wars     int    `json:"wars"`
	Round    int    `json:"round"`
	MaxRound int    `json:"max_rounds"`
	Taker    int    `json:"taker"`
}

func (s *State) Clone() *State {
	cp := *s
	cp.Header = s.Header.Copy()
	cp.Piles = make([][]int, len(s.Piles))
	for i := range s.Piles {
		cp.Piles[i] = append([]int(nil), s.Piles[i]...)
	}
	cp.Counts = append([]int(nil), s.Counts...)
	cp.Table = append([]int(nil), s.Table...)
	cp.FaceDown = append([]bool(nil), s.FaceDown...)
	cp.Up = append([]int(nil), s.Up...)
	cp.Flipped = append([]bool(nil), s.Flipped...)
	return &cp
}

func (s *State) recount() {
	for i := range s.Piles {
		s.Counts[i] = len(s.Piles[i])
	}
}

// NewDeck is four of each rank, 2 through 14 (ace high).
func NewDeck() []int {
	deck := make([]int, 0, 52)
	for rank := 2; rank <= 14; rank++ {
		for k := 0; k < 4; k++ {
			deck = append(deck, rank)
		}
	}
	return deck
}

type Rules struct{}

func New() *Rules { return &Rules{} }

func (r *Rules) Info() game.Info {
	return game.Info{ID: ID, Name: "War", MinSeats: 2, MaxSeats: 2,
		Description: "Flip together; high card takes the table, ties go to war."}
}

func (r *Rules) Init(seats []game.SeatInfo, settings game.Settings) (*State, error) {
	if err := game.CheckSeats(r.Info(), seats); err != nil {
		return nil, err
	}
	rd := game.ReadSettings(settings)
	s := &State{
		Header:   game.Header{Seats: 2, CurrentTurn: game.SeatTurn(0), Phase: PhaseFlip, Simultaneous: true, Winners: []game.Seat{}},
		Piles:    [][]int{{}, {}},
		Counts:   []int{0, 0},
		Up:       []int{0, 0},
		Flipped:  []bool{false, false},
		MaxRound: rd.PositiveInt("max_rounds", DefaultMaxRounds),
		Taker:    -1,
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// Setup shuffles and deals the deck alternately.
func (r *Rules) Setup(s *State, rnd rng.Source) *State {
	deck := NewDeck()
	rng.Shuffle(rnd, deck)
	s.Piles = [][]int{{}, {}}
	for i, c := range deck {
		s.Piles[i%2] = append(s.Piles[i%2], c)
	}
	s.recount()
	return s
}

func (r *Rules) Validate(s *State, seat game.Seat, m game.Move) error {
	if gate, err := game.CheckTurn(&s.Header, seat, m); err != nil || gate {
		return err
	}
	if s.Flipped[seat] {
		return game.Violation(game.IllegalMove, "seat %d already flipped", seat)
	}
	return game.RequireListed(r.ValidMoves(s, seat), m)
}

func (r *Rules) Apply(s *State, seat game.Seat, m game.Move, _ rng.Source) *State {
	if game.IsGateAction(m) {
		game.ResolveGate(&s.Header)
		s.Simultaneous = true
		s.Phase = PhaseFlip
		s.Table = nil
		s.FaceDown = nil
		s.Up = []int{0, 0}
		s.Wars = 0
		s.Taker = -1
		return s
	}
	card := s.Piles[seat][0]
	s.Piles[seat] = s.Piles[seat][1:]
	s.Up[seat] = card
	s.Table = append(s.Table, card)
	s.FaceDown = append(s.FaceDown, false)
	s.Flipped[seat] = true
	s.recount()
	if !s.Flipped[0] || !s.Flipped[1] {
		return s
	}
	s.Flipped = []bool{false, false}
	switch {
	case s.Up[0] > s.Up[1]:
		s.Taker = 0
	case s.Up[1] > s.Up[0]:
		s.Taker = 1
	default:
		s.Wars++
		for i := range s.Piles {
			n := min(warCards, len(s.Piles[i])-1)
			if n > 0 {
				s.Table = append(s.Table, s.Piles[i][:n]...)
				for range n {
					s.FaceDown = append(s.FaceDown, true)
				}
				s.Piles[i] = s.Piles[i][n:]
			}
		}
		s.recount()
		return s
	}
	s.Round++
	s.Piles[s.Taker] = append(s.Piles[s.Taker], s.Table...)
	s.recount()
	s.Simultaneous = false
	s.RoundOver = true
	return s
}

func (r *Rules) AdvanceTurn(s *State) *State { return s }

// CheckEnd: a seat that must flip with an empty pile loses; after
// MaxRound exchanges the bigger pile wins.
func (r *Rules) CheckEnd(s *State) game.EndResult {
	for seat := 0; seat < 2; seat++ {
		if len(s.Piles[seat]) == 0 && !s.Flipped[seat] && s.Gate == nil && !s.RoundOver {
			return game.EndResult{Ended: true, Reason: "out_of_cards", Winners: []game.Seat{game.Seat(1 - seat)}}
		}
	}
	if s.Round >= s.MaxRound && len(s.Table) == 0 {
		return game.EndResult{Ended: true, Reason: "max_rounds", Winners: game.Leaders(s.Counts)}
	}
	return game.EndResult{}
}

// ScoreRound opens the gate that shows who took the table.
func (r *Rules) ScoreRound(s *State, _ rng.Source) *State {
	if !s.RoundOver {
		return s
	}
	s.RoundOver = false
	taken := len(s.Table)
	s.Table = nil
	s.FaceDown = nil
	if r.CheckEnd(s).Ended {
		return s
	}
	game.OpenGate(&s.Header, game.GateResolveRound, game.Seat(s.Taker), map[string]int{
		"taker": s.Taker,
		"cards": taken,
		"wars":  s.Wars,
	})
	return s
}

func (r *Rules) ValidMoves(s *State, seat game.Seat) []game.Move {
	if m, ok := game.GateMove(&s.Header); ok {
		return []game.Move{m}
	}
	if s.GameOver || s.Phase != PhaseFlip || seat < 0 || int(seat) >= 2 || s.Flipped[seat] || len(s.Piles[seat]) == 0 {
		return nil
	}
	return []game.Move{{Action: ActionFlip}}
}

func (r *Rules) AIMove(s *State, seat game.Seat, _ game.Difficulty, _ rng.Source) (game.Move, bool) {
	moves := r.ValidMoves(s, seat)
	if len(moves) == 0 {
		return game.Move{}, false
	}
	return moves[0], true
}

// PublicView drops pile contents and face-down stakes; only the counts
// and face-up cards are public.
func (r *Rules) PublicView(s *State, _ game.Seat) *State {
	v := s.Clone()
	v.Piles = nil
	for i, down := range v.FaceDown {
		if down && i < len(v.Table) {
			v.Table[i] = 0
		}
	}
	return v
}
