package http

import "tabletop/internal/game"

// CreateRoomRequest represents the payload for /create-room.
type CreateRoomRequest struct {
	GameID     string        `json:"game_id" binding:"required"`
	PlayerName string        `json:"player_name"`
	Settings   game.Settings `json:"settings"`
}

// JoinRoomRequest represents the payload for joining an existing room.
type JoinRoomRequest struct {
	RoomCode   string `json:"room_code" binding:"required"`
	PlayerName string `json:"player_name"`
}

// PlayRequest fills the room with bots and starts the game.
type PlayRequest struct {
	RoomID     string `json:"room_id" binding:"required"`
	NumberBot  int    `json:"number_bot"`
	Difficulty string `json:"difficulty"`
}

// MoveRequest represents a player move. Version is the state version the
// player last saw.
type MoveRequest struct {
	RoomID   string    `json:"room_id" binding:"required"`
	PlayerID string    `json:"player_id" binding:"required"`
	Version  int64     `json:"version" binding:"required"`
	Move     game.Move `json:"move"`
}

type CloseRoomRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

type ErrorResponse struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind,omitempty"`
	Fields []string `json:"fields,omitempty"`
}
