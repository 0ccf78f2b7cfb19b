// Package fourfall is a drop-four game on a 6x7 grid: pieces fall to the
// lowest empty row of the chosen column and four in a line wins.
package fourfall

import (
	"tabletop/internal/ai"
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

const (
	ID         = "fourfall"
	Rows       = 6
	Cols       = 7
	Empty      = -1
	ActionDrop = "drop"
)

// columnOrder searches the middle first, which prunes far more.
var columnOrder = [Cols]int{3, 2, 4, 1, 5, 0, 6}

type State struct {
	game.Header
	Board [][]int `json:"board"`
	Moves int     `json:"moves"`
}

func (s *State) Clone() *State {
	cp := &State{Header: s.Header.Copy(), Moves: s.Moves}
	cp.Board = make([][]int, len(s.Board))
	for r := range s.Board {
		cp.Board[r] = append([]int(nil), s.Board[r]...)
	}
	return cp
}

// landing is the row a piece dropped into col comes to rest on, or -1 if
// the column is full.
func (s *State) landing(col int) int {
	for r := Rows - 1; r >= 0; r-- {
		if s.Board[r][col] == Empty {
			return r
		}
	}
	return -1
}

type Rules struct {
	depths ai.Depths
}

func New(depths ai.Depths) *Rules {
	return &Rules{depths: depths}
}

func (r *Rules) Info() game.Info {
	return game.Info{ID: ID, Name: "Fourfall", MinSeats: 2, MaxSeats: 2,
		Description: "Drop pieces into a 6x7 grid; four in a row wins."}
}

func (r *Rules) Init(seats []game.SeatInfo, _ game.Settings) (*State, error) {
	if err := game.CheckSeats(r.Info(), seats); err != nil {
		return nil, err
	}
	s := &State{
		Header: game.Header{Seats: 2, CurrentTurn: game.SeatTurn(0), Phase: "play", Winners: []game.Seat{}},
		Board:  make([][]int, Rows),
	}
	for i := range s.Board {
		s.Board[i] = make([]int, Cols)
		for j := range s.Board[i] {
			s.Board[i][j] = Empty
		}
	}
	return s, nil
}

func (r *Rules) Setup(s *State, _ rng.Source) *State { return s }

func (r *Rules) Validate(s *State, seat game.Seat, m game.Move) error {
	if _, err := game.CheckTurn(&s.Header, seat, m); err != nil {
		return err
	}
	if m.Action != ActionDrop {
		return game.Violation(game.IllegalMove, "unknown action %q", m.Action)
	}
	if m.Target < 0 || m.Target >= Cols {
		return game.Violation(game.IllegalMove, "column %d out of range", m.Target)
	}
	if s.landing(m.Target) < 0 {
		return game.Violation(game.IllegalMove, "column %d is full", m.Target)
	}
	return nil
}

func (r *Rules) Apply(s *State, seat game.Seat, m game.Move, _ rng.Source) *State {
	row := s.landing(m.Target)
	s.Board[row][m.Target] = int(seat)
	s.Moves++
	return s
}

func (r *Rules) AdvanceTurn(s *State) *State {
	if cur, ok := s.CurrentTurn.Seat(); ok && !s.GameOver {
		s.CurrentTurn = game.SeatTurn(game.NextSeat(cur, s.Seats))
	}
	return s
}

var lines = [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func inBounds(r, c int) bool { return r >= 0 && r < Rows && c >= 0 && c < Cols }

func (s *State) winner() int {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			p := s.Board[r][c]
			if p == Empty {
				continue
			}
			for _, d := range lines {
				n := 1
				for n < 4 && inBounds(r+d[0]*n, c+d[1]*n) && s.Board[r+d[0]*n][c+d[1]*n] == p {
					n++
				}
				if n == 4 {
					return p
				}
			}
		}
	}
	return Empty
}

func (r *Rules) CheckEnd(s *State) game.EndResult {
	if w := s.winner(); w != Empty {
		return game.EndResult{Ended: true, Reason: "four_in_a_row", Winners: []game.Seat{game.Seat(w)}}
	}
	if s.Moves >= Rows*Cols {
		return game.EndResult{Ended: true, Reason: "board_full", Winners: []game.Seat{}}
	}
	return game.EndResult{}
}

func (r *Rules) ScoreRound(s *State, _ rng.Source) *State { return s }

func (r *Rules) ValidMoves(s *State, seat game.Seat) []game.Move {
	if s.GameOver || !s.CurrentTurn.Is(seat) {
		return nil
	}
	var out []game.Move
	for _, c := range columnOrder {
		if s.landing(c) >= 0 {
			out = append(out, game.Move{Action: ActionDrop, Target: c})
		}
	}
	return out
}

func (r *Rules) AIMove(s *State, seat game.Seat, d game.Difficulty, rnd rng.Source) (game.Move, bool) {
	sr := ai.Searcher[*State]{Rules: r, Eval: Evaluate, Depth: r.depths.For(d), Rand: rnd}
	return sr.Pick(s, seat)
}

// PublicView is a copy: nothing on a fourfall board is hidden.
func (r *Rules) PublicView(s *State, _ game.Seat) *State { return s.Clone() }

// Evaluate scores every window of four cells plus centre-column control.
func Evaluate(s *State, seat game.Seat) float64 {
	me := int(seat)
	score := 0
	for r := 0; r < Rows; r++ {
		if s.Board[r][Cols/2] == me {
			score += 3
		}
	}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			for _, d := range lines {
				if !inBounds(r+d[0]*3, c+d[1]*3) {
					continue
				}
				mine, theirs, empty := 0, 0, 0
				for k := 0; k < 4; k++ {
					switch p := s.Board[r+d[0]*k][c+d[1]*k]; {
					case p == me:
						mine++
					case p == Empty:
						empty++
					default:
						theirs++
					}
				}
				score += window(mine, theirs, empty)
			}
		}
	}
	return float64(score)
}

func window(mine, theirs, empty int) int {
	switch {
	case mine == 3 && empty == 1:
		return 5
	case mine == 2 && empty == 2:
		return 2
	case theirs == 3 && empty == 1:
		return -4
	}
	return 0
}
