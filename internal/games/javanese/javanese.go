// Package javanese is the 9x9 card-placement game. Each seat draws from
// its own deck of two copies of 1..9 and holds three cards. The first card
// goes in the centre and every later card goes next to the previous one,
// onto an empty cell or over a strictly lower card. Four in a line wins.
// When nobody can play, the best line sum decides.
package javanese

import (
	"math"

	"tabletop/internal/ai"
	"tabletop/internal/config"
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

const (
	ID          = "javanese"
	ActionPlace = "place"

	MaxHandSize      = 3
	CardMin, CardMax = 1, 9
	CopiesPerValue   = 2
	NoOwner          = -1
)

type Pos struct {
	R int `json:"r"`
	C int `json:"c"`
}

type Cell struct {
	Owner int `json:"owner"` // seat, -1 if empty
	Value int `json:"value"` // 0 if empty
}

// Hand is one seat's cards. Deck is drawn from the front.
type Hand struct {
	Cards     []int `json:"cards,omitempty"`
	Deck      []int `json:"deck,omitempty"`
	HandCount int   `json:"hand_count"`
	DeckCount int   `json:"deck_count"`
}

type State struct {
	game.Header
	Size     int      `json:"size"`
	Board    [][]Cell `json:"board"`
	Hands    []Hand   `json:"hands"`
	LastMove *Pos     `json:"last_move,omitempty"`
	Placed   int      `json:"placed"`
}

func (s *State) Clone() *State {
	cp := *s
	cp.Header = s.Header.Copy()
	cp.Board = make([][]Cell, len(s.Board))
	for r := range s.Board {
		cp.Board[r] = append([]Cell(nil), s.Board[r]...)
	}
	cp.Hands = make([]Hand, len(s.Hands))
	for i, h := range s.Hands {
		cp.Hands[i] = Hand{
			Cards:     append([]int(nil), h.Cards...),
			Deck:      append([]int(nil), h.Deck...),
			HandCount: h.HandCount,
			DeckCount: h.DeckCount,
		}
	}
	if s.LastMove != nil {
		lm := *s.LastMove
		cp.LastMove = &lm
	}
	return &cp
}

// ===== Utilities

func NewDeck() []int {
	out := make([]int, 0, (CardMax-CardMin+1)*CopiesPerValue)
	for v := CardMin; v <= CardMax; v++ {
		for k := 0; k < CopiesPerValue; k++ {
			out = append(out, v)
		}
	}
	return out
}

func (s *State) drawToHand(seat game.Seat) {
	h := &s.Hands[seat]
	for len(h.Cards) < MaxHandSize && len(h.Deck) > 0 {
		h.Cards = append(h.Cards, h.Deck[0])
		h.Deck = h.Deck[1:]
	}
	h.HandCount = len(h.Cards)
	h.DeckCount = len(h.Deck)
}

func (s *State) center() Pos { return Pos{R: s.Size / 2, C: s.Size / 2} }

func (s *State) inBounds(r, c int) bool { return r >= 0 && r < s.Size && c >= 0 && c < s.Size }

var neighbours = [][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

var lines = [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// candidates are the cells the next card may go on.
func (s *State) candidates() []Pos {
	if s.LastMove == nil {
		return []Pos{s.center()}
	}
	var out []Pos
	for _, d := range neighbours {
		r, c := s.LastMove.R+d[0], s.LastMove.C+d[1]
		if s.inBounds(r, c) {
			out = append(out, Pos{r, c})
		}
	}
	return out
}

func place(p Pos, card int) game.Move {
	return game.Move{Action: ActionPlace, Path: []int{p.R, p.C}, Target: card}
}

// legal lists every (cell, card) the seat may play. Duplicate cards in
// hand produce one move.
func (s *State) legal(seat game.Seat) []game.Move {
	h := s.Hands[seat]
	if len(h.Cards) == 0 {
		return nil
	}
	var moves []game.Move
	for _, pos := range s.candidates() {
		cell := s.Board[pos.R][pos.C]
		seen := map[int]bool{}
		for _, card := range h.Cards {
			if seen[card] {
				continue
			}
			seen[card] = true
			if cell.Owner == NoOwner || card > cell.Value {
				moves = append(moves, place(pos, card))
			}
		}
	}
	return moves
}

func (s *State) anyoneCanMove() bool {
	for i := range s.Hands {
		if len(s.legal(game.Seat(i))) > 0 {
			return true
		}
	}
	return false
}

// run is the length and card sum of owner's line through (r,c) along d.
func (s *State) run(r, c int, d [2]int, owner int) (length, sum int) {
	for _, sign := range []int{1, -1} {
		cr, cc := r+sign*d[0], c+sign*d[1]
		for s.inBounds(cr, cc) && s.Board[cr][cc].Owner == owner {
			length++
			sum += s.Board[cr][cc].Value
			cr += sign * d[0]
			cc += sign * d[1]
		}
	}
	if s.Board[r][c].Owner == owner {
		length++
		sum += s.Board[r][c].Value
	}
	return length, sum
}

// fourInARow returns the owner of any line of four, or NoOwner.
func (s *State) fourInARow() int {
	for r := 0; r < s.Size; r++ {
		for c := 0; c < s.Size; c++ {
			owner := s.Board[r][c].Owner
			if owner == NoOwner {
				continue
			}
			for _, d := range lines {
				if n, _ := s.run(r, c, d, owner); n >= 4 {
					return owner
				}
			}
		}
	}
	return NoOwner
}

// bestSegmentSum is the highest card sum over owner's lines of two or
// more, or the best single card when owner has no such line.
func (s *State) bestSegmentSum(owner int) int {
	best, solo := 0, 0
	for r := 0; r < s.Size; r++ {
		for c := 0; c < s.Size; c++ {
			if s.Board[r][c].Owner != owner {
				continue
			}
			solo = max(solo, s.Board[r][c].Value)
			for _, d := range lines {
				if n, sum := s.run(r, c, d, owner); n >= 2 {
					best = max(best, sum)
				}
			}
		}
	}
	if best > 0 {
		return best
	}
	return solo
}

func (s *State) totalSum(owner int) int {
	sum := 0
	for _, row := range s.Board {
		for _, cell := range row {
			if cell.Owner == owner {
				sum += cell.Value
			}
		}
	}
	return sum
}

// pointsWinners ranks by best segment sum, then by total sum on board.
func (s *State) pointsWinners() []game.Seat {
	seg := make([]int, len(s.Hands))
	for i := range seg {
		seg[i] = s.bestSegmentSum(i)
	}
	leaders := game.Leaders(seg)
	if len(leaders) == 1 {
		return leaders
	}
	totals := make([]int, len(leaders))
	for i, seat := range leaders {
		totals[i] = s.totalSum(int(seat))
	}
	var out []game.Seat
	for _, i := range game.Leaders(totals) {
		out = append(out, leaders[i])
	}
	return out
}

// ===== Rules

type Rules struct {
	weights *config.LiveWeights
}

func New(w config.Weights) *Rules {
	return NewLive(config.NewLiveWeights(w))
}

// NewLive scores placements with whatever w holds at the time.
func NewLive(w *config.LiveWeights) *Rules {
	return &Rules{weights: w}
}

func (r *Rules) Info() game.Info {
	return game.Info{ID: ID, Name: "Javanese Chess", MinSeats: 2, MaxSeats: 4,
		Description: "Place numbered cards next to the last card played; four in a line wins."}
}

func (r *Rules) Init(seats []game.SeatInfo, settings game.Settings) (*State, error) {
	if err := game.CheckSeats(r.Info(), seats); err != nil {
		return nil, err
	}
	rd := game.ReadSettings(settings)
	size := rd.IntRange("board_size", max(r.weights.Get().BoardSize, 5), 5, 15)
	if err := rd.Err(); err != nil {
		return nil, err
	}
	s := &State{
		Header: game.Header{Seats: len(seats), Phase: "waiting", Winners: []game.Seat{}},
		Size:   size,
		Board:  make([][]Cell, size),
		Hands:  make([]Hand, len(seats)),
	}
	for i := range s.Board {
		s.Board[i] = make([]Cell, size)
		for j := range s.Board[i] {
			s.Board[i][j] = Cell{Owner: NoOwner}
		}
	}
	game.OpenGate(&s.Header, game.GateStartGame, 0, nil)
	return s, nil
}

// Setup shuffles every seat's deck, deals hands and draws the first seat.
func (r *Rules) Setup(s *State, rnd rng.Source) *State {
	for i := range s.Hands {
		deck := NewDeck()
		rng.Shuffle(rnd, deck)
		s.Hands[i] = Hand{Deck: deck}
		s.drawToHand(game.Seat(i))
	}
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
	if m.Action != ActionPlace || len(m.Path) != 2 {
		return game.Violation(game.IllegalMove, "expected place with path [row, col]")
	}
	row, col := m.Path[0], m.Path[1]
	switch {
	case !s.inBounds(row, col):
		return game.Violation(game.IllegalMove, "(%d,%d) is off the board", row, col)
	case !contains(s.Hands[seat].Cards, m.Target):
		return game.Violation(game.IllegalMove, "card %d not in hand", m.Target)
	}
	return game.RequireListed(s.legal(seat), m)
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func (r *Rules) Apply(s *State, seat game.Seat, m game.Move, _ rng.Source) *State {
	if game.IsGateAction(m) {
		game.ResolveGate(&s.Header)
		s.Phase = "play"
		return s
	}
	row, col := m.Path[0], m.Path[1]
	s.Board[row][col] = Cell{Owner: int(seat), Value: m.Target}
	s.LastMove = &Pos{R: row, C: col}
	s.Placed++
	h := &s.Hands[seat]
	for i, v := range h.Cards {
		if v == m.Target {
			h.Cards = append(h.Cards[:i:i], h.Cards[i+1:]...)
			break
		}
	}
	s.drawToHand(seat)
	return s
}

// AdvanceTurn passes to the next seat that has a legal move. If no seat
// has one the turn stays put and CheckEnd ends the game on points.
func (r *Rules) AdvanceTurn(s *State) *State {
	cur, ok := s.CurrentTurn.Seat()
	if !ok || s.GameOver {
		return s
	}
	next := cur
	for i := 0; i < s.Seats; i++ {
		next = game.NextSeat(next, s.Seats)
		if len(s.legal(next)) > 0 {
			s.CurrentTurn = game.SeatTurn(next)
			return s
		}
	}
	return s
}

func (r *Rules) CheckEnd(s *State) game.EndResult {
	if w := s.fourInARow(); w != NoOwner {
		return game.EndResult{Ended: true, Reason: "four_in_a_row", Winners: []game.Seat{game.Seat(w)}}
	}
	if s.Gate == nil && !s.anyoneCanMove() {
		return game.EndResult{Ended: true, Reason: "points", Winners: s.pointsWinners()}
	}
	return game.EndResult{}
}

func (r *Rules) ScoreRound(s *State, _ rng.Source) *State { return s }

func (r *Rules) ValidMoves(s *State, seat game.Seat) []game.Move {
	if m, ok := game.GateMove(&s.Header); ok {
		return []game.Move{m}
	}
	if s.GameOver || !s.CurrentTurn.Is(seat) {
		return nil
	}
	return s.legal(seat)
}

func (r *Rules) AIMove(s *State, seat game.Seat, d game.Difficulty, rnd rng.Source) (game.Move, bool) {
	if m, ok := game.GateMove(&s.Header); ok {
		return m, true
	}
	moves := r.ValidMoves(s, seat)
	cands := make([]ai.Scored, len(moves))
	for i, m := range moves {
		cands[i] = ai.Scored{Move: m, Score: float64(r.Evaluate(s, seat, m))}
	}
	return ai.Choose(cands, d, rnd)
}

// PublicView hides every deck and every hand but the viewer's own.
func (r *Rules) PublicView(s *State, seat game.Seat) *State {
	v := s.Clone()
	for i := range v.Hands {
		v.Hands[i].Deck = nil
		if game.Seat(i) != seat {
			v.Hands[i].Cards = nil
		}
	}
	return v
}

// ===== Bot heuristic

// Evaluate scores one placement for seat with the configured weights.
func (r *Rules) Evaluate(s *State, seat game.Seat, m game.Move) int {
	w := r.weights.Get()
	me := int(seat)
	row, col, card := m.Path[0], m.Path[1], m.Target
	prev := s.Board[row][col]

	after := s.Clone()
	after.Board[row][col] = Cell{Owner: me, Value: card}

	if after.fourInARow() == me {
		return w.WWin + card
	}

	score := 0
	before, now := s.maxOpponentLine(me), after.maxOpponentLine(me)
	blocking := now < before
	switch {
	case blocking && before >= 3:
		score += w.WThreat
	case blocking:
		score += w.WBlock
	}

	best, open := 0, 0
	for _, d := range lines {
		n, _ := after.run(row, col, d, me)
		if n > best {
			best, open = n, after.openEnds(row, col, d, me)
		}
	}
	switch {
	case best >= 3:
		score += 2 * w.WBuild
		if open == 2 {
			score += w.BonusThreatMid
		} else if open == 1 {
			score += w.BonusThreatEdge
		}
	case best == 2:
		score += w.WBuild
	}

	if prev.Owner != NoOwner && prev.Owner != me {
		score += w.WOverwrite
	}

	if blocking {
		score += card * w.WCardVal
	} else {
		score += (CardMax + 1 - card) * w.WCardVal
		if card == minCard(s.Hands[seat].Cards) && prev.Owner == NoOwner {
			score += w.BonusSmallestInHand
		}
	}

	c := s.center()
	dist := max(abs(row-c.R), abs(col-c.C))
	score += s.Size/2 - dist
	return score
}

func minCard(cards []int) int {
	lo := math.MaxInt
	for _, c := range cards {
		lo = min(lo, c)
	}
	return lo
}

func (s *State) maxOpponentLine(me int) int {
	best := 0
	for r := 0; r < s.Size; r++ {
		for c := 0; c < s.Size; c++ {
			owner := s.Board[r][c].Owner
			if owner == NoOwner || owner == me {
				continue
			}
			for _, d := range lines {
				n, _ := s.run(r, c, d, owner)
				best = max(best, n)
			}
		}
	}
	return best
}

// openEnds counts the ends of the run through (r,c) that are on the board
// and not already owner's.
func (s *State) openEnds(r, c int, d [2]int, owner int) int {
	open := 0
	for _, sign := range []int{1, -1} {
		cr, cc := r, c
		for s.inBounds(cr, cc) && s.Board[cr][cc].Owner == owner {
			cr += sign * d[0]
			cc += sign * d[1]
		}
		if s.inBounds(cr, cc) && s.Board[cr][cc].Value < CardMax {
			open++
		}
	}
	return open
}
