package game

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"tabletop/internal/rng"
)

// State is any game state. Cross-game code only looks at the Header.
type State interface {
	Head() *Header
}

// Stateful is the constraint on a variant's concrete state type.
type Stateful[S any] interface {
	State
	Clone() S
}

// Rules is the contract one variant implements over its own state type.
// Apply, AdvanceTurn and ScoreRound may modify their argument and return
// it; callers that need the prior value clone first. Validate, CheckEnd,
// ValidMoves, AIMove and PublicView never modify their argument.
type Rules[S Stateful[S]] interface {
	Info() Info
	Init(seats []SeatInfo, settings Settings) (S, error)
	Setup(s S, rnd rng.Source) S
	Validate(s S, seat Seat, m Move) error
	Apply(s S, seat Seat, m Move, rnd rng.Source) S
	AdvanceTurn(s S) S
	CheckEnd(s S) EndResult
	ScoreRound(s S, rnd rng.Source) S
	AIMove(s S, seat Seat, d Difficulty, rnd rng.Source) (Move, bool)
	ValidMoves(s S, seat Seat) []Move
	PublicView(s S, seat Seat) S
}

// Game is the type-erased form of Rules the engine drives.
type Game interface {
	Info() Info
	Init(seats []SeatInfo, settings Settings) (State, error)
	Setup(s State, rnd rng.Source) State
	Validate(s State, seat Seat, m Move) error
	Apply(s State, seat Seat, m Move, rnd rng.Source) State
	AdvanceTurn(s State) State
	CheckEnd(s State) EndResult
	ScoreRound(s State, rnd rng.Source) State
	AIMove(s State, seat Seat, d Difficulty, rnd rng.Source) (Move, bool)
	ValidMoves(s State, seat Seat) []Move
	PublicView(s State, seat Seat) State
	Clone(s State) State
	Decode(data []byte) (State, error)
}

type adapter[T any, S interface {
	*T
	Stateful[S]
}] struct {
	rules Rules[S]
}

// Adapt erases the state type of r. T is the state struct, S its pointer:
//
//	game.Adapt[fourfall.State](fourfall.New(depths))
func Adapt[T any, S interface {
	*T
	Stateful[S]
}](r Rules[S]) Game {
	return adapter[T, S]{rules: r}
}

func (a adapter[T, S]) cast(s State) S {
	typed, ok := s.(S)
	if !ok {
		panic(fmt.Errorf("%w: %s got %T", ErrForeignState, a.rules.Info().ID, s))
	}
	return typed
}

func (a adapter[T, S]) Info() Info { return a.rules.Info() }

func (a adapter[T, S]) Init(seats []SeatInfo, settings Settings) (State, error) {
	s, err := a.rules.Init(seats, settings)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a adapter[T, S]) Setup(s State, rnd rng.Source) State {
	return a.rules.Setup(a.cast(s), rnd)
}

func (a adapter[T, S]) Validate(s State, seat Seat, m Move) error {
	return a.rules.Validate(a.cast(s), seat, m)
}

func (a adapter[T, S]) Apply(s State, seat Seat, m Move, rnd rng.Source) State {
	return a.rules.Apply(a.cast(s), seat, m, rnd)
}

func (a adapter[T, S]) AdvanceTurn(s State) State {
	return a.rules.AdvanceTurn(a.cast(s))
}

func (a adapter[T, S]) CheckEnd(s State) EndResult {
	return a.rules.CheckEnd(a.cast(s))
}

func (a adapter[T, S]) ScoreRound(s State, rnd rng.Source) State {
	return a.rules.ScoreRound(a.cast(s), rnd)
}

func (a adapter[T, S]) AIMove(s State, seat Seat, d Difficulty, rnd rng.Source) (Move, bool) {
	return a.rules.AIMove(a.cast(s), seat, d, rnd)
}

func (a adapter[T, S]) ValidMoves(s State, seat Seat) []Move {
	return a.rules.ValidMoves(a.cast(s), seat)
}

func (a adapter[T, S]) PublicView(s State, seat Seat) State {
	return a.rules.PublicView(a.cast(s), seat)
}

func (a adapter[T, S]) Clone(s State) State {
	return a.cast(s).Clone()
}

func (a adapter[T, S]) Decode(data []byte) (State, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStateDecode, a.rules.Info().ID, err)
	}
	return S(&v), nil
}

// Registry maps game ids to their rules.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Game
}

func NewRegistry() *Registry {
	return &Registry{games: map[string]Game{}}
}

func (r *Registry) Register(g Game) error {
	id := g.Info().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	r.games[id] = g
	return nil
}

func (r *Registry) MustRegister(g Game) {
	if err := r.Register(g); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(id string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// List returns every registered variant ordered by id.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
