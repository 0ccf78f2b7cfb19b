package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// SchemaVersion is written into every record so old rows can be told apart
// after a layout change.
const SchemaVersion = 1

var (
	ErrNotFound        = errors.New("store: record not found")
	ErrExists          = errors.New("store: record already exists")
	ErrVersionConflict = errors.New("store: version conflict")
	ErrInProgress      = errors.New("store: game still in progress")
)

// Record is one room's persisted game state. Version starts at 1 and each
// successful SaveIfVersion adds exactly 1.
type Record struct {
	SchemaVersion int       `json:"schema_version"`
	RoomID        string    `json:"room_id"`
	GameID        string    `json:"game_id"`
	Version       int64     `json:"version"`
	CurrentTurn   *int      `json:"current_turn"`
	GameOver      bool      `json:"game_over"`
	GameData      []byte    `json:"game_data"`
	Fingerprint   string    `json:"fingerprint"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Fingerprint is the hex SHA-256 of data.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (r *Record) Clone() *Record {
	cp := *r
	cp.GameData = append([]byte(nil), r.GameData...)
	if r.CurrentTurn != nil {
		t := *r.CurrentTurn
		cp.CurrentTurn = &t
	}
	return &cp
}
