// Package game defines the rules contract every variant implements and the
// turn bookkeeping shared by all of them.
package game

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Seat is a participant position, 0..N-1.
type Seat int

// Turn is either a seat or NoOwner. NoOwner is the zero value and is used
// exactly while a gate is open.
type Turn struct {
	seat  Seat
	owned bool
}

var NoOwner = Turn{}

func SeatTurn(s Seat) Turn { return Turn{seat: s, owned: true} }

func (t Turn) Seat() (Seat, bool) { return t.seat, t.owned }

func (t Turn) Owned() bool { return t.owned }

// Is reports whether seat s owns the turn.
func (t Turn) Is(s Seat) bool { return t.owned && t.seat == s }

func (t Turn) String() string {
	if !t.owned {
		return "none"
	}
	return strconv.Itoa(int(t.seat))
}

func (t Turn) MarshalJSON() ([]byte, error) {
	if !t.owned {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(t.seat), 10), nil
}

func (t *Turn) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = NoOwner
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("current_turn: %w", err)
	}
	*t = SeatTurn(Seat(n))
	return nil
}

// Gate suspends turn ownership until its resolving action arrives.
type Gate struct {
	Type string         `json:"type"`
	Next *Seat          `json:"next,omitempty"`
	Data map[string]int `json:"data,omitempty"`
}

func (g *Gate) clone() *Gate {
	if g == nil {
		return nil
	}
	cp := &Gate{Type: g.Type}
	if g.Next != nil {
		n := *g.Next
		cp.Next = &n
	}
	if g.Data != nil {
		cp.Data = make(map[string]int, len(g.Data))
		for k, v := range g.Data {
			cp.Data[k] = v
		}
	}
	return cp
}

// Header holds the fields every game state carries. Variants embed it so
// the fields serialise inline next to the game-specific ones.
type Header struct {
	Seats        int    `json:"seats"`
	CurrentTurn  Turn   `json:"current_turn"`
	Phase        string `json:"phase"`
	Simultaneous bool   `json:"simultaneous,omitempty"`
	AwaitingGate bool   `json:"awaiting_gate"`
	Gate         *Gate  `json:"gate,omitempty"`
	RoundOver    bool   `json:"round_over,omitempty"`
	GameOver     bool   `json:"game_over"`
	EndReason    string `json:"end_reason,omitempty"`
	Winners      []Seat `json:"winners"`
}

func (h *Header) Head() *Header { return h }

// Copy returns a deep copy.
func (h Header) Copy() Header {
	cp := h
	cp.Gate = h.Gate.clone()
	if h.Winners != nil {
		cp.Winners = append([]Seat(nil), h.Winners...)
	}
	return cp
}

// Check verifies that the turn is owned by a valid seat exactly when no
// gate is open.
func (h *Header) Check() error {
	seat, owned := h.CurrentTurn.Seat()
	switch {
	case owned && h.Gate != nil:
		return fmt.Errorf("seat %d owns the turn while gate %q is open", seat, h.Gate.Type)
	case !owned && h.Gate == nil:
		return fmt.Errorf("no seat owns the turn and no gate is open")
	case owned && (seat < 0 || int(seat) >= h.Seats):
		return fmt.Errorf("current_turn %d outside 0..%d", seat, h.Seats-1)
	case h.Gate != nil && !h.AwaitingGate:
		return fmt.Errorf("gate %q open without awaiting_gate", h.Gate.Type)
	}
	return nil
}

// Move is a game-defined action payload.
type Move struct {
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
	Target int    `json:"target,omitempty"`
	Path   []int  `json:"path,omitempty"`
}

func (m Move) Equal(o Move) bool {
	if m.Action != o.Action || m.Value != o.Value || m.Target != o.Target || len(m.Path) != len(o.Path) {
		return false
	}
	for i := range m.Path {
		if m.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

func (m Move) String() string {
	s := m.Action
	if m.Value != "" {
		s += " " + m.Value
	}
	if m.Target != 0 {
		s += " " + strconv.Itoa(m.Target)
	}
	if len(m.Path) > 0 {
		s += fmt.Sprint(" ", m.Path)
	}
	return s
}

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Expert       Difficulty = "expert"
)

// ParseDifficulty falls back to Intermediate for unknown names.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case Beginner, Expert:
		return Difficulty(s)
	}
	return Intermediate
}

type SeatInfo struct {
	Seat       Seat       `json:"seat"`
	IsAI       bool       `json:"is_ai"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

type EndResult struct {
	Ended   bool   `json:"ended"`
	Reason  string `json:"reason,omitempty"`
	Winners []Seat `json:"winners"`
}

// Info describes a registered variant.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MinSeats    int    `json:"min_seats"`
	MaxSeats    int    `json:"max_seats"`
	Description string `json:"description,omitempty"`
}
