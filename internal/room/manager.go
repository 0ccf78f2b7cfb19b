package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tabletop/internal/game"
	"tabletop/internal/rng"
)

type Manager struct {
	mu    sync.Mutex
	store Store
	games *game.Registry
	rnd   rng.Source
	log   *zap.Logger
	now   func() time.Time
}

func NewManager(s Store, games *game.Registry, rnd rng.Source, log *zap.Logger) *Manager {
	return &Manager{store: s, games: games, rnd: rnd, log: log, now: time.Now}
}

// SetClock replaces time.Now, for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) CreateRoom(gameID, creatorName string, settings game.Settings) (*Room, error) {
	if _, ok := m.games.Lookup(gameID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	if creatorName == "" {
		creatorName = "Player"
	}
	now := m.now()
	r := &Room{
		ID:        uuid.NewString(),
		Code:      m.randCode(6),
		GameID:    gameID,
		Settings:  settings,
		Status:    StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
		Players: []Player{{
			ID:   uuid.NewString(),
			Name: creatorName,
			Seat: 0,
		}},
	}
	m.store.SaveRoom(r)
	m.log.Info("room created", zap.String("room", r.ID), zap.String("game", gameID))
	return r, nil
}

// update runs fn on a copy of the room under the manager lock and saves
// the result if fn succeeds.
func (m *Manager) update(id string, fn func(r *Room) error) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store.GetRoom(id)
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	r.UpdatedAt = m.now()
	m.store.SaveRoom(r)
	return r, nil
}

func (m *Manager) maxSeats(r *Room) int {
	g, ok := m.games.Lookup(r.GameID)
	if !ok {
		return 0
	}
	return g.Info().MaxSeats
}

func (m *Manager) Join(id, name string) (*Room, Player, error) {
	var p Player
	r, err := m.update(id, func(r *Room) error {
		if r.Status != StatusWaiting {
			return ErrNotWaiting
		}
		if len(r.Players) >= m.maxSeats(r) {
			return ErrRoomFull
		}
		if name == "" {
			name = fmt.Sprintf("Player %d", len(r.Players)+1)
		}
		p = Player{ID: uuid.NewString(), Name: name, Seat: game.Seat(len(r.Players))}
		r.Players = append(r.Players, p)
		return nil
	})
	return r, p, err
}

// AddBots seats n AI players. n is capped at the free seats left.
func (m *Manager) AddBots(id string, n int, d game.Difficulty) (*Room, error) {
	return m.update(id, func(r *Room) error {
		if r.Status != StatusWaiting {
			return ErrNotWaiting
		}
		free := m.maxSeats(r) - len(r.Players)
		if free <= 0 {
			return ErrRoomFull
		}
		for i := 0; i < min(n, free); i++ {
			r.Players = append(r.Players, Player{
				ID:         "bot-" + uuid.NewString(),
				Name:       fmt.Sprintf("Bot %d", len(r.Players)),
				IsBot:      true,
				Difficulty: d,
				Seat:       game.Seat(len(r.Players)),
			})
		}
		return nil
	})
}

// Start marks the room active. The caller creates the game state next and
// calls Reset if that fails.
func (m *Manager) Start(id string) (*Room, error) {
	return m.update(id, func(r *Room) error {
		if r.Status != StatusWaiting {
			return ErrNotWaiting
		}
		g, ok := m.games.Lookup(r.GameID)
		if !ok {
			return ErrUnknownGame
		}
		if len(r.Players) < g.Info().MinSeats {
			return fmt.Errorf("%w: %s needs %d", ErrTooFewPlayers, r.GameID, g.Info().MinSeats)
		}
		r.Status = StatusActive
		return nil
	})
}

func (m *Manager) Reset(id string) (*Room, error) {
	return m.update(id, func(r *Room) error {
		r.Status = StatusWaiting
		return nil
	})
}

func (m *Manager) Close(id string) error {
	_, err := m.update(id, func(r *Room) error {
		r.Status = StatusClosed
		return nil
	})
	return err
}

func (m *Manager) Get(id string) (*Room, error) {
	r, ok := m.store.GetRoom(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// FindByCode looks a room up by its short join code.
func (m *Manager) FindByCode(code string) (*Room, error) {
	for _, r := range m.store.ListRooms() {
		if r.Code == code {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Manager) SeatOf(id, playerID string) (game.Seat, error) {
	r, err := m.Get(id)
	if err != nil {
		return 0, err
	}
	p, ok := r.Player(playerID)
	if !ok {
		return 0, ErrUnknownPlayer
	}
	return p.Seat, nil
}

func (m *Manager) Seats(_ context.Context, id string) ([]game.SeatInfo, error) {
	r, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return r.SeatInfos(), nil
}

func (m *Manager) IsActive(_ context.Context, id string) (bool, error) {
	r, err := m.Get(id)
	if err != nil {
		return false, err
	}
	return r.Status == StatusActive, nil
}

// Running reports whether a room's game is still being played.
type Running func(ctx context.Context, roomID string) (bool, error)

// ExpireStale deletes rooms untouched for ttl and returns their ids. Moves
// never touch the room, so an active room is kept while running says its
// game is in progress; idle games are ended by the engine first.
func (m *Manager) ExpireStale(ctx context.Context, ttl time.Duration, running Running) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-ttl)
	var out []string
	for _, r := range m.store.ListRooms() {
		if !r.UpdatedAt.Before(cutoff) {
			continue
		}
		if r.Status == StatusActive {
			live, err := running(ctx, r.ID)
			if err != nil {
				m.log.Warn("room kept, game status unknown", zap.String("room", r.ID), zap.Error(err))
				continue
			}
			if live {
				continue
			}
		}
		m.store.DeleteRoom(r.ID)
		out = append(out, r.ID)
		m.log.Info("room expired", zap.String("room", r.ID), zap.String("status", string(r.Status)))
	}
	return out
}

const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (m *Manager) randCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[m.rnd.Uniform(0, len(letters)-1)]
	}
	return string(b)
}
