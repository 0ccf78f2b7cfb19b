// Package room tracks who sits where. It owns seat assignment, bots and
// whether a room is accepting moves; game state lives in the engine.
package room

import (
	"errors"
	"time"

	"tabletop/internal/game"
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

var (
	ErrNotFound      = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrNotWaiting    = errors.New("room has already started")
	ErrTooFewPlayers = errors.New("not enough players to start")
	ErrUnknownGame   = errors.New("unknown game")
	ErrUnknownPlayer = errors.New("player not in room")
)

type Player struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	IsBot      bool            `json:"isBot"`
	Difficulty game.Difficulty `json:"difficulty,omitempty"`
	Seat       game.Seat       `json:"seat"`
}

type Room struct {
	ID        string        `json:"id"`
	Code      string        `json:"code"`
	GameID    string        `json:"gameId"`
	Players   []Player      `json:"players"`
	Settings  game.Settings `json:"settings,omitempty"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (r *Room) Clone() *Room {
	cp := *r
	cp.Players = append([]Player(nil), r.Players...)
	if r.Settings != nil {
		cp.Settings = make(game.Settings, len(r.Settings))
		for k, v := range r.Settings {
			cp.Settings[k] = v
		}
	}
	return &cp
}

// SeatInfos lists the seats in order for the engine.
func (r *Room) SeatInfos() []game.SeatInfo {
	out := make([]game.SeatInfo, len(r.Players))
	for i, p := range r.Players {
		out[i] = game.SeatInfo{Seat: p.Seat, IsAI: p.IsBot, Difficulty: p.Difficulty}
	}
	return out
}

func (r *Room) Player(id string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

type Store interface {
	GetRoom(id string) (*Room, bool)
	SaveRoom(r *Room)
	DeleteRoom(id string)
	ListRooms() []*Room
}
