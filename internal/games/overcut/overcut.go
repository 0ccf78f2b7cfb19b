// Package overcut is a two-seat bidding dice game. The bidder names a
// number, then rolls the dice. Reaching the bid scores it and hands the
// excess to the opponent; falling short hands the whole bid over.
package overcut

import (
	"tabletop/internal/ai"
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

const (
	ID         = "overcut"
	ActionBid  = "bid"
	ActionRoll = "roll"

	PhaseBid    = "bid"
	PhaseRoll   = "roll"
	PhaseReveal = "reveal"

	ResultOvercut  = "overcut"
	ResultExact    = "exact"
	ResultUndercut = "undercut"

	DefaultTarget = 100
	DefaultDice   = 6
)

type State struct {
	game.Header
	Scores      []int     `json:"scores"`
	Target      int       `json:"target"`
	Dice        int       `json:"dice"`
	Round       int       `json:"round"`
	Bidder      game.Seat `json:"bidder"`
	Bid         int       `json:"bid"`
	Roll        []int     `json:"roll,omitempty"`
	Total       int       `json:"total"`
	ResultType  string    `json:"result_type,omitempty"`
	RoundPoints []int     `json:"round_points,omitempty"`
}

func (s *State) Clone() *State {
	cp := *s
	cp.Header = s.Header.Copy()
	cp.Scores = append([]int(nil), s.Scores...)
	cp.Roll = append([]int(nil), s.Roll...)
	cp.RoundPoints = append([]int(nil), s.RoundPoints...)
	return &cp
}

// Settle scores a finished roll: points for the bidder and the opponent.
func Settle(bid, total int) (result string, bidder, opponent int) {
	switch {
	case total > bid:
		return ResultOvercut, bid, total - bid
	case total == bid:
		return ResultExact, bid, 0
	}
	return ResultUndercut, 0, bid
}

type Rules struct{}

func New() *Rules { return &Rules{} }

func (r *Rules) Info() game.Info {
	return game.Info{ID: ID, Name: "Overcut", MinSeats: 2, MaxSeats: 2,
		Description: "Bid on a dice total; overshoot feeds the opponent, undershoot hands them the bid."}
}

func (r *Rules) Init(seats []game.SeatInfo, settings game.Settings) (*State, error) {
	if err := game.CheckSeats(r.Info(), seats); err != nil {
		return nil, err
	}
	rd := game.ReadSettings(settings)
	s := &State{
		Header: game.Header{Seats: 2, Phase: "waiting", Winners: []game.Seat{}},
		Scores: make([]int, 2),
		Target: rd.PositiveInt("target", DefaultTarget),
		Dice:   rd.IntRange("dice", DefaultDice, 1, 12),
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	game.OpenGate(&s.Header, game.GateStartGame, 0, nil)
	return s, nil
}

// Setup draws the first bidder.
func (r *Rules) Setup(s *State, rnd rng.Source) *State {
	if s.Gate != nil {
		first := game.Seat(rng.Coin(rnd))
		s.Gate.Next = &first
	}
	return s
}

func (r *Rules) startRound(s *State) {
	bidder, _ := s.CurrentTurn.Seat()
	s.Round++
	s.Bidder = bidder
	s.Bid = 0
	s.Roll = nil
	s.Total = 0
	s.ResultType = ""
	s.RoundPoints = nil
	s.Phase = PhaseBid
}

func (r *Rules) Validate(s *State, seat game.Seat, m game.Move) error {
	if gate, err := game.CheckTurn(&s.Header, seat, m); err != nil || gate {
		return err
	}
	switch {
	case s.Phase == PhaseBid && m.Action != ActionBid,
		s.Phase == PhaseRoll && m.Action != ActionRoll:
		return game.Violation(game.WrongPhase, "%s is not allowed during %s", m.Action, s.Phase)
	}
	return game.RequireListed(r.ValidMoves(s, seat), m)
}

func (r *Rules) Apply(s *State, seat game.Seat, m game.Move, rnd rng.Source) *State {
	switch m.Action {
	case game.ActionBeginGame, game.ActionContinue:
		game.ResolveGate(&s.Header)
		r.startRound(s)
	case ActionBid:
		s.Bid = m.Target
		s.Phase = PhaseRoll
	case ActionRoll:
		s.Roll, s.Total = rng.Dice(rnd, s.Dice, 6)
		result, bidderPts, oppPts := Settle(s.Bid, s.Total)
		s.ResultType = result
		s.RoundPoints = make([]int, 2)
		s.RoundPoints[s.Bidder] = bidderPts
		s.RoundPoints[1-s.Bidder] = oppPts
		s.Phase = PhaseReveal
		s.RoundOver = true
	}
	return s
}

// AdvanceTurn is a no-op: the bidder keeps the turn from bid through roll
// and the round ends on a gate.
func (r *Rules) AdvanceTurn(s *State) *State { return s }

func (r *Rules) CheckEnd(s *State) game.EndResult {
	return game.TargetReached(s.Scores, s.Target)
}

// ScoreRound banks the roll and, unless that decides the match, opens a
// resolve_round gate that passes the bid to the other seat.
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
	game.OpenGate(&s.Header, game.GateResolveRound, 1-s.Bidder, map[string]int{
		"bid":             s.Bid,
		"total":           s.Total,
		"bidder_points":   s.RoundPoints[s.Bidder],
		"opponent_points": s.RoundPoints[1-s.Bidder],
	})
	return s
}

func (r *Rules) ValidMoves(s *State, seat game.Seat) []game.Move {
	if m, ok := game.GateMove(&s.Header); ok {
		return []game.Move{m}
	}
	if s.GameOver || !s.CurrentTurn.Is(seat) {
		return nil
	}
	switch s.Phase {
	case PhaseBid:
		out := make([]game.Move, 0, 5*s.Dice+1)
		for b := s.Dice; b <= 6*s.Dice; b++ {
			out = append(out, game.Move{Action: ActionBid, Target: b})
		}
		return out
	case PhaseRoll:
		return []game.Move{{Action: ActionRoll}}
	}
	return nil
}

// AIMove bids by expected score margin over the exact distribution of the
// dice total.
func (r *Rules) AIMove(s *State, seat game.Seat, d game.Difficulty, rnd rng.Source) (game.Move, bool) {
	moves := r.ValidMoves(s, seat)
	if len(moves) == 0 {
		return game.Move{}, false
	}
	if s.Gate != nil || s.Phase != PhaseBid {
		return moves[0], true
	}
	dist := SumDistribution(s.Dice)
	cands := make([]ai.Scored, len(moves))
	for i, m := range moves {
		cands[i] = ai.Scored{Move: m, Score: ExpectedMargin(m.Target, dist)}
	}
	return ai.Choose(cands, d, rnd)
}

// ExpectedMargin is the bidder's expected points minus the opponent's.
func ExpectedMargin(bid int, dist []float64) float64 {
	ev := 0.0
	for total, p := range dist {
		if p == 0 {
			continue
		}
		_, mine, theirs := Settle(bid, total)
		ev += p * float64(mine-theirs)
	}
	return ev
}

// SumDistribution returns P(total = i) for the sum of n six-sided dice.
func SumDistribution(n int) []float64 {
	dist := []float64{1}
	for k := 0; k < n; k++ {
		next := make([]float64, len(dist)+6)
		for t, p := range dist {
			for face := 1; face <= 6; face++ {
				next[t+face] += p / 6
			}
		}
		dist = next
	}
	return dist
}

func (r *Rules) PublicView(s *State, _ game.Seat) *State { return s.Clone() }
