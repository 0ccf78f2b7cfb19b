// Package engine runs the move pipeline for every room: load the state
// record, validate and apply through the variant's rules, then commit with
// a compare-and-swap on the record version.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"tabletop/internal/game"
	"tabletop/internal/rng"
	"tabletop/internal/store"
)

// Spectator views a game without a seat. It sees only what every seat sees.
const Spectator game.Seat = -1

var (
	ErrConflict     = fmt.Errorf("engine: state changed since it was read: %w", store.ErrVersionConflict)
	ErrRoomInactive = errors.New("engine: room is not active")
	ErrUnknownGame  = errors.New("engine: unknown game")
	ErrUnknownSeat  = errors.New("engine: seat not in room")
	ErrGameRunning  = errors.New("engine: room already has a game in progress")
)

// Store is the versioned state-record store.
type Store interface {
	Create(ctx context.Context, rec *store.Record) error
	Get(ctx context.Context, roomID string) (*store.Record, error)
	SaveIfVersion(ctx context.Context, rec *store.Record, expected int64) error
	ReplaceFinished(ctx context.Context, rec *store.Record) error
	Delete(ctx context.Context, roomID string) error
	ListIdle(ctx context.Context, before time.Time) ([]*store.Record, error)
}

// Rooms answers who sits in a room and whether it takes moves.
type Rooms interface {
	Seats(ctx context.Context, roomID string) ([]game.SeatInfo, error)
	IsActive(ctx context.Context, roomID string) (bool, error)
}

type Options struct {
	// MaxAISteps caps AI commits per request.
	MaxAISteps int

	// AIRetries bounds re-reads after an AI move loses a version race.
	AIRetries int

	Now func() time.Time
}

type Engine struct {
	store Store
	rooms Rooms
	games *game.Registry
	rnd   rng.Source
	log   *zap.Logger
	opts  Options
}

func New(s Store, rooms Rooms, games *game.Registry, rnd rng.Source, log *zap.Logger, opts Options) *Engine {
	if opts.MaxAISteps <= 0 {
		opts.MaxAISteps = 64
	}
	if opts.AIRetries < 0 {
		opts.AIRetries = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{store: s, rooms: rooms, games: games, rnd: rnd, log: log, opts: opts}
}

// Snapshot is one seat's projection of a committed state.
type Snapshot struct {
	RoomID      string      `json:"room_id"`
	GameID      string      `json:"game_id"`
	Version     int64       `json:"version"`
	Fingerprint string      `json:"fingerprint"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Seat        game.Seat   `json:"seat"`
	State       game.State  `json:"state"`
	ValidMoves  []game.Move `json:"valid_moves"`
}

type loaded struct {
	rec   *store.Record
	game  game.Game
	state game.State
}

func (e *Engine) load(ctx context.Context, roomID string) (*loaded, error) {
	rec, err := e.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	g, ok := e.games.Lookup(rec.GameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, rec.GameID)
	}
	s, err := g.Decode(rec.GameData)
	if err != nil {
		return nil, err
	}
	return &loaded{rec: rec, game: g, state: s}, nil
}

func (e *Engine) record(roomID, gameID string, s game.State, created time.Time) (*store.Record, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode %s state: %w", gameID, err)
	}
	h := s.Head()
	rec := &store.Record{
		RoomID:    roomID,
		GameID:    gameID,
		GameOver:  h.GameOver,
		GameData:  data,
		CreatedAt: created,
		UpdatedAt: e.opts.Now(),
	}
	if seat, ok := h.CurrentTurn.Seat(); ok {
		t := int(seat)
		rec.CurrentTurn = &t
	}
	return rec, nil
}

// commit writes next over l.rec if nobody else has written since l was
// loaded.
func (e *Engine) commit(ctx context.Context, l *loaded, next game.State) (*store.Record, error) {
	rec, err := e.record(l.rec.RoomID, l.rec.GameID, next, l.rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveIfVersion(ctx, rec, l.rec.Version); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return rec, nil
}

// transition validates m and computes the next state on a copy. The
// loaded state is never modified.
func (e *Engine) transition(l *loaded, seat game.Seat, m game.Move) (game.State, error) {
	g := l.game
	if err := g.Validate(l.state, seat, m); err != nil {
		return nil, err
	}
	s := g.Apply(g.Clone(l.state), seat, m, e.rnd)
	s = g.AdvanceTurn(s)
	end := g.CheckEnd(s)
	if end.Ended || s.Head().RoundOver {
		s = g.ScoreRound(s, e.rnd)
		s.Head().RoundOver = false
		end = g.CheckEnd(s)
	}
	if end.Ended {
		game.FinishGame(s.Head(), end)
		return s, nil
	}
	if err := s.Head().Check(); err != nil {
		return nil, fmt.Errorf("%s after %s: %w", g.Info().ID, m, err)
	}
	return s, nil
}

func (e *Engine) snapshot(l *loaded, seat game.Seat) *Snapshot {
	snap := &Snapshot{
		RoomID:      l.rec.RoomID,
		GameID:      l.rec.GameID,
		Version:     l.rec.Version,
		Fingerprint: l.rec.Fingerprint,
		UpdatedAt:   l.rec.UpdatedAt,
		Seat:        seat,
		State:       l.game.PublicView(l.state, seat),
		ValidMoves:  []game.Move{},
	}
	if seat != Spectator {
		if moves := l.game.ValidMoves(l.state, seat); moves != nil {
			snap.ValidMoves = moves
		}
	}
	return snap
}

func checkSeat(seats []game.SeatInfo, seat game.Seat, spectatorOK bool) error {
	if seat == Spectator && spectatorOK {
		return nil
	}
	if seat < 0 || int(seat) >= len(seats) {
		return fmt.Errorf("%w: %d", ErrUnknownSeat, seat)
	}
	return nil
}

// CreateGameState initialises a game for the room and stores it at
// version 1. A finished game in the same room is replaced; a running one
// is not.
func (e *Engine) CreateGameState(ctx context.Context, roomID, gameID string, seats []game.SeatInfo, settings game.Settings) (*Snapshot, error) {
	g, ok := e.games.Lookup(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	s, err := g.Init(seats, settings)
	if err != nil {
		return nil, err
	}
	s = g.Setup(s, e.rnd)
	if err := s.Head().Check(); err != nil {
		return nil, fmt.Errorf("%s initial state: %w", gameID, err)
	}
	rec, err := e.record(roomID, gameID, s, e.opts.Now())
	if err != nil {
		return nil, err
	}
	err = e.store.Create(ctx, rec)
	if errors.Is(err, store.ErrExists) {
		err = e.store.ReplaceFinished(ctx, rec)
	}
	if errors.Is(err, store.ErrInProgress) {
		return nil, ErrGameRunning
	}
	if err != nil {
		return nil, err
	}
	e.log.Info("game created",
		zap.String("room", roomID), zap.String("game", gameID),
		zap.Int("seats", len(seats)), zap.Int64("version", rec.Version))
	return e.snapshot(&loaded{rec: rec, game: g, state: s}, Spectator), nil
}

// SubmitMove validates and commits one move for seat. expectedVersion is
// the version the caller last read; any other stored version is a
// conflict. AI seats that can act afterwards are played before returning.
func (e *Engine) SubmitMove(ctx context.Context, roomID string, seat game.Seat, m game.Move, expectedVersion int64) (*Snapshot, error) {
	seats, err := e.activeSeats(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := checkSeat(seats, seat, false); err != nil {
		return nil, err
	}
	l, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	log := e.log.With(zap.String("room", roomID), zap.String("game", l.rec.GameID),
		zap.Int("seat", int(seat)), zap.String("action", m.Action))
	if l.rec.Version != expectedVersion {
		log.Debug("stale move", zap.Int64("version", l.rec.Version), zap.Int64("expected", expectedVersion))
		return nil, ErrConflict
	}
	next, err := e.transition(l, seat, m)
	if err != nil {
		log.Debug("move rejected", zap.Error(err))
		return nil, err
	}
	rec, err := e.commit(ctx, l, next)
	if err != nil {
		log.Info("move lost version race", zap.Error(err))
		return nil, err
	}
	log.Info("move committed", zap.Int64("version", rec.Version), zap.Bool("game_over", rec.GameOver))

	if err := e.driveAI(ctx, roomID, seats); err != nil {
		log.Warn("ai driver stopped", zap.Error(err))
	}
	return e.read(ctx, roomID, seat)
}

// ReadPublicState returns seat's view of the room's game. Pending AI turns
// are played first, so polling keeps all-AI rooms moving.
func (e *Engine) ReadPublicState(ctx context.Context, roomID string, seat game.Seat) (*Snapshot, error) {
	seats, err := e.rooms.Seats(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := checkSeat(seats, seat, true); err != nil {
		return nil, err
	}
	if active, err := e.rooms.IsActive(ctx, roomID); err == nil && active {
		if err := e.driveAI(ctx, roomID, seats); err != nil {
			e.log.Warn("ai driver stopped", zap.String("room", roomID), zap.Error(err))
		}
	}
	return e.read(ctx, roomID, seat)
}

func (e *Engine) read(ctx context.Context, roomID string, seat game.Seat) (*Snapshot, error) {
	l, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return e.snapshot(l, seat), nil
}

// ValidMoves lists seat's legal moves in the current state.
func (e *Engine) ValidMoves(ctx context.Context, roomID string, seat game.Seat) ([]game.Move, error) {
	snap, err := e.read(ctx, roomID, seat)
	if err != nil {
		return nil, err
	}
	return snap.ValidMoves, nil
}

func (e *Engine) activeSeats(ctx context.Context, roomID string) ([]game.SeatInfo, error) {
	active, err := e.rooms.IsActive(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrRoomInactive
	}
	return e.rooms.Seats(ctx, roomID)
}

// ExpireIdle ends every unfinished game with no commit for idle. Each end
// is an ordinary commit; a game that moved in the meantime is left alone.
func (e *Engine) ExpireIdle(ctx context.Context, idle time.Duration) ([]string, error) {
	recs, err := e.store.ListIdle(ctx, e.opts.Now().Add(-idle))
	if err != nil {
		return nil, err
	}
	var (
		expired []string
		errs    error
	)
	for _, rec := range recs {
		err := e.expire(ctx, rec.RoomID, rec.Version)
		switch {
		case err == nil:
			expired = append(expired, rec.RoomID)
		case errors.Is(err, ErrConflict):
			// moved since it was listed
		default:
			errs = multierr.Append(errs, fmt.Errorf("expire %s: %w", rec.RoomID, err))
		}
	}
	return expired, errs
}

func (e *Engine) expire(ctx context.Context, roomID string, version int64) error {
	l, err := e.load(ctx, roomID)
	if err != nil {
		return err
	}
	if l.rec.Version != version {
		return ErrConflict
	}
	s := l.game.Clone(l.state)
	game.FinishGame(s.Head(), game.EndResult{Ended: true, Reason: "timeout", Winners: []game.Seat{}})
	rec, err := e.commit(ctx, l, s)
	if err != nil {
		return err
	}
	e.log.Info("game timed out", zap.String("room", roomID), zap.Int64("version", rec.Version))
	return nil
}

// GameRunning reports whether the room holds a game that has not ended.
func (e *Engine) GameRunning(ctx context.Context, roomID string) (bool, error) {
	rec, err := e.store.Get(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !rec.GameOver, nil
}

// DeleteGame drops the room's state record.
func (e *Engine) DeleteGame(ctx context.Context, roomID string) error {
	return e.store.Delete(ctx, roomID)
}
