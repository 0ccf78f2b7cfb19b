// Package checkers is English draughts on an 8x8 board with forced
// captures, multi-jump turns and promotion.
package checkers

import (
	"tabletop/internal/ai"
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

const (
	ID         = "checkers"
	Size       = 8
	ActionMove = "move"
	NoChain    = -1
)

// Piece codes on the board.
const (
	Empty = iota
	ManDark
	ManLight
	KingDark
	KingLight
)

// Seat 0 plays dark from the bottom rows and moves up; seat 1 plays light
// from the top rows and moves down.
func owner(p int) game.Seat {
	if p == ManDark || p == KingDark {
		return 0
	}
	return 1
}

func isKing(p int) bool { return p == KingDark || p == KingLight }

func forward(seat game.Seat) int {
	if seat == 0 {
		return -1
	}
	return 1
}

type State struct {
	game.Header
	Board []int `json:"board"`
	// Chain is the square of a piece partway through a multi-jump.
	Chain int `json:"chain"`
	// Quiet counts plies since the last capture or man move.
	Quiet    int `json:"quiet"`
	MaxQuiet int `json:"max_quiet"`
}

func (s *State) Clone() *State {
	cp := *s
	cp.Header = s.Header.Copy()
	cp.Board = append([]int(nil), s.Board...)
	return &cp
}

func sq(r, c int) int { return r*Size + c }

func rc(i int) (int, int) { return i / Size, i % Size }

func inBounds(r, c int) bool { return r >= 0 && r < Size && c >= 0 && c < Size }

func move(from, to int) game.Move {
	return game.Move{Action: ActionMove, Path: []int{from, to}}
}

func (s *State) dirs(at int) [][2]int {
	p := s.Board[at]
	if isKing(p) {
		return [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	}
	f := forward(owner(p))
	return [][2]int{{f, -1}, {f, 1}}
}

func (s *State) jumpsFrom(at int) []game.Move {
	p := s.Board[at]
	if p == Empty {
		return nil
	}
	r, c := rc(at)
	var out []game.Move
	for _, d := range s.dirs(at) {
		mr, mc := r+d[0], c+d[1]
		lr, lc := r+2*d[0], c+2*d[1]
		if !inBounds(lr, lc) {
			continue
		}
		mid := s.Board[sq(mr, mc)]
		if mid != Empty && owner(mid) != owner(p) && s.Board[sq(lr, lc)] == Empty {
			out = append(out, move(at, sq(lr, lc)))
		}
	}
	return out
}

func (s *State) stepsFrom(at int) []game.Move {
	r, c := rc(at)
	var out []game.Move
	for _, d := range s.dirs(at) {
		nr, nc := r+d[0], c+d[1]
		if inBounds(nr, nc) && s.Board[sq(nr, nc)] == Empty {
			out = append(out, move(at, sq(nr, nc)))
		}
	}
	return out
}

// legal lists seat's moves. A capture anywhere on the board makes every
// non-capture illegal.
func (s *State) legal(seat game.Seat) []game.Move {
	if s.Chain != NoChain {
		return s.jumpsFrom(s.Chain)
	}
	var jumps, steps []game.Move
	for i, p := range s.Board {
		if p == Empty || owner(p) != seat {
			continue
		}
		jumps = append(jumps, s.jumpsFrom(i)...)
		if len(jumps) == 0 {
			steps = append(steps, s.stepsFrom(i)...)
		}
	}
	if len(jumps) > 0 {
		return jumps
	}
	return steps
}

func (s *State) count(seat game.Seat) int {
	n := 0
	for _, p := range s.Board {
		if p != Empty && owner(p) == seat {
			n++
		}
	}
	return n
}

type Rules struct {
	depths ai.Depths
}

func New(depths ai.Depths) *Rules {
	return &Rules{depths: depths}
}

func (r *Rules) Info() game.Info {
	return game.Info{ID: ID, Name: "Checkers", MinSeats: 2, MaxSeats: 2,
		Description: "Captures are compulsory; jumps chain within a turn; men crown on the far row."}
}

func (r *Rules) Init(seats []game.SeatInfo, settings game.Settings) (*State, error) {
	if err := game.CheckSeats(r.Info(), seats); err != nil {
		return nil, err
	}
	rd := game.ReadSettings(settings)
	s := &State{
		Header:   game.Header{Seats: 2, CurrentTurn: game.SeatTurn(0), Phase: "play", Winners: []game.Seat{}},
		Board:    make([]int, Size*Size),
		Chain:    NoChain,
		MaxQuiet: rd.PositiveInt("max_quiet", 80),
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if (row+col)%2 == 0 {
				continue
			}
			switch {
			case row < 3:
				s.Board[sq(row, col)] = ManLight
			case row > 4:
				s.Board[sq(row, col)] = ManDark
			}
		}
	}
	return s, nil
}

func (r *Rules) Setup(s *State, _ rng.Source) *State { return s }

func (r *Rules) Validate(s *State, seat game.Seat, m game.Move) error {
	if _, err := game.CheckTurn(&s.Header, seat, m); err != nil {
		return err
	}
	if m.Action != ActionMove || len(m.Path) != 2 {
		return game.Violation(game.IllegalMove, "expected move with a two-square path")
	}
	return game.RequireListed(s.legal(seat), m)
}

func (r *Rules) Apply(s *State, seat game.Seat, m game.Move, _ rng.Source) *State {
	from, to := m.Path[0], m.Path[1]
	p := s.Board[from]
	s.Board[from] = Empty
	fr, fc := rc(from)
	tr, tc := rc(to)
	captured := tr-fr == 2 || fr-tr == 2
	if captured {
		s.Board[sq((fr+tr)/2, (fc+tc)/2)] = Empty
	}
	crowned := !isKing(p) && ((seat == 0 && tr == 0) || (seat == 1 && tr == Size-1))
	if crowned {
		p += 2
	}
	s.Board[to] = p
	if captured || !isKing(p) || crowned {
		s.Quiet = 0
	} else {
		s.Quiet++
	}
	s.Chain = NoChain
	if captured && !crowned && len(s.jumpsFrom(to)) > 0 {
		s.Chain = to
	}
	return s
}

// AdvanceTurn keeps the turn while a jump chain continues.
func (r *Rules) AdvanceTurn(s *State) *State {
	if s.Chain != NoChain || s.GameOver {
		return s
	}
	if cur, ok := s.CurrentTurn.Seat(); ok {
		s.CurrentTurn = game.SeatTurn(game.NextSeat(cur, s.Seats))
	}
	return s
}

// CheckEnd: a side with no pieces or no legal move on its turn loses.
func (r *Rules) CheckEnd(s *State) game.EndResult {
	for seat := game.Seat(0); seat < 2; seat++ {
		if s.count(seat) == 0 {
			return game.EndResult{Ended: true, Reason: "no_pieces", Winners: []game.Seat{1 - seat}}
		}
	}
	if cur, ok := s.CurrentTurn.Seat(); ok && len(s.legal(cur)) == 0 {
		return game.EndResult{Ended: true, Reason: "no_moves", Winners: []game.Seat{1 - cur}}
	}
	if s.MaxQuiet > 0 && s.Quiet >= s.MaxQuiet {
		return game.EndResult{Ended: true, Reason: "no_progress", Winners: []game.Seat{}}
	}
	return game.EndResult{}
}

func (r *Rules) ScoreRound(s *State, _ rng.Source) *State { return s }

func (r *Rules) ValidMoves(s *State, seat game.Seat) []game.Move {
	if s.GameOver || !s.CurrentTurn.Is(seat) {
		return nil
	}
	return s.legal(seat)
}

func (r *Rules) AIMove(s *State, seat game.Seat, d game.Difficulty, rnd rng.Source) (game.Move, bool) {
	sr := ai.Searcher[*State]{Rules: r, Eval: Evaluate, Depth: r.depths.For(d), Rand: rnd}
	return sr.Pick(s, seat)
}

func (r *Rules) PublicView(s *State, _ game.Seat) *State { return s.Clone() }

const (
	manValue  = 100
	kingValue = 160
)

// Evaluate is material with kings weighted up, plus a small bonus for
// men that have advanced.
func Evaluate(s *State, seat game.Seat) float64 {
	score := 0
	for i, p := range s.Board {
		if p == Empty {
			continue
		}
		v := manValue
		if isKing(p) {
			v = kingValue
		} else {
			row, _ := rc(i)
			if owner(p) == 0 {
				v += 2 * (Size - 1 - row)
			} else {
				v += 2 * row
			}
		}
		if owner(p) == seat {
			score += v
		} else {
			score -= v
		}
	}
	return float64(score)
}
