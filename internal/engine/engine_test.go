package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tabletop/internal/config"
	"tabletop/internal/game"
	"tabletop/internal/games"
	"tabletop/internal/games/fourfall"
	"tabletop/internal/rng"
	"tabletop/internal/store"
)

type fakeRooms struct {
	mu     sync.Mutex
	seats  map[string][]game.SeatInfo
	active map[string]bool
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{seats: map[string][]game.SeatInfo{}, active: map[string]bool{}}
}

func (f *fakeRooms) add(id string, active bool, seats ...game.SeatInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats[id] = seats
	f.active[id] = active
}

func (f *fakeRooms) Seats(_ context.Context, id string) ([]game.SeatInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[id]
	if !ok {
		return nil, errors.New("no such room")
	}
	return s, nil
}

func (f *fakeRooms) IsActive(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[id], nil
}

func human(seat int) game.SeatInfo { return game.SeatInfo{Seat: game.Seat(seat)} }

func bot(seat int, d game.Difficulty) game.SeatInfo {
	return game.SeatInfo{Seat: game.Seat(seat), IsAI: true, Difficulty: d}
}

type fixture struct {
	eng   *Engine
	store *store.MemoryStore
	rooms *fakeRooms
	reg   *game.Registry
	now   time.Time
}

func newFixture(t *testing.T, rnd rng.Source) *fixture {
	t.Helper()
	f := &fixture{
		store: store.NewMemoryStore(),
		rooms: newFakeRooms(),
		reg: games.NewRegistry(config.Config{
			Depths:  config.Depths{Beginner: 1, Intermediate: 2, Expert: 4},
			Weights: config.DefaultWeights(),
		}),
		now: time.Unix(1700000000, 0).UTC(),
	}
	f.eng = New(f.store, f.rooms, f.reg, rnd, zap.NewNop(), Options{
		MaxAISteps: 500,
		AIRetries:  3,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) create(t *testing.T, room, gameID string, settings game.Settings, seats ...game.SeatInfo) *Snapshot {
	t.Helper()
	f.rooms.add(room, true, seats...)
	snap, err := f.eng.CreateGameState(context.Background(), room, gameID, seats, settings)
	if err != nil {
		t.Fatalf("create %s: %v", gameID, err)
	}
	return snap
}

func drop(col int) game.Move { return game.Move{Action: fourfall.ActionDrop, Target: col} }

func TestCreateGameState(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	snap := f.create(t, "r1", "pig", nil, human(0), human(1))
	if snap.Version != 1 {
		t.Fatalf("version = %d", snap.Version)
	}
	h := snap.State.Head()
	if h.Gate == nil || h.Gate.Type != game.GateStartGame || h.CurrentTurn.Owned() {
		t.Fatalf("header = %+v", h)
	}
	rec, _ := f.store.Get(context.Background(), "r1")
	if rec.CurrentTurn != nil || rec.Fingerprint != store.Fingerprint(rec.GameData) {
		t.Fatalf("record = %+v", rec)
	}

	_, err := f.eng.CreateGameState(context.Background(), "r1", "pig", []game.SeatInfo{human(0), human(1)}, nil)
	if !errors.Is(err, ErrGameRunning) {
		t.Fatalf("second create err = %v", err)
	}
	_, err = f.eng.CreateGameState(context.Background(), "r2", "chess", []game.SeatInfo{human(0), human(1)}, nil)
	if !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("unknown game err = %v", err)
	}
	_, err = f.eng.CreateGameState(context.Background(), "r3", "pig", []game.SeatInfo{human(0), human(1)}, game.Settings{"target": "lots"})
	var cfgErr *game.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "target" {
		t.Fatalf("bad settings err = %v", err)
	}
}

func TestFourfallToWin(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.create(t, "r1", "fourfall", nil, human(0), human(1))
	ctx := context.Background()
	seq := []struct {
		seat, col int
	}{{0, 3}, {1, 0}, {0, 3}, {1, 0}, {0, 3}, {1, 0}, {0, 3}}
	var snap *Snapshot
	for i, mv := range seq {
		var err error
		snap, err = f.eng.SubmitMove(ctx, "r1", game.Seat(mv.seat), drop(mv.col), int64(i+1))
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		if snap.Version != int64(i+2) {
			t.Fatalf("move %d: version %d", i, snap.Version)
		}
	}
	h := snap.State.Head()
	if !h.GameOver || h.EndReason != "four_in_a_row" || len(h.Winners) != 1 || h.Winners[0] != 0 {
		t.Fatalf("header = %+v", h)
	}
	if len(snap.ValidMoves) != 0 {
		t.Fatalf("moves after game over: %v", snap.ValidMoves)
	}
	_, err := f.eng.SubmitMove(ctx, "r1", 1, drop(1), snap.Version)
	if !game.IsViolation(err, game.Finished) {
		t.Fatalf("move after end err = %v", err)
	}
}

func TestRejectedMoveChangesNothing(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.create(t, "r1", "fourfall", nil, human(0), human(1))
	ctx := context.Background()
	before, _ := f.store.Get(ctx, "r1")

	_, err := f.eng.SubmitMove(ctx, "r1", 1, drop(3), 1)
	if !game.IsViolation(err, game.WrongTurn) {
		t.Fatalf("err = %v", err)
	}
	_, err = f.eng.SubmitMove(ctx, "r1", 0, drop(9), 1)
	if !game.IsViolation(err, game.IllegalMove) {
		t.Fatalf("err = %v", err)
	}
	after, _ := f.store.Get(ctx, "r1")
	if after.Version != before.Version || after.Fingerprint != before.Fingerprint {
		t.Fatal("rejected move changed the record")
	}
}

func TestStaleVersionConflicts(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.create(t, "r1", "fourfall", nil, human(0), human(1))
	ctx := context.Background()
	if _, err := f.eng.SubmitMove(ctx, "r1", 0, drop(3), 1); err != nil {
		t.Fatal(err)
	}
	_, err := f.eng.SubmitMove(ctx, "r1", 1, drop(3), 1)
	if !errors.Is(err, ErrConflict) || !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestConcurrentSubmitCommitsOnce(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.create(t, "r1", "fourfall", nil, human(0), human(1))
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for col := 0; col < fourfall.Cols; col++ {
		wg.Add(1)
		go func(col int) {
			defer wg.Done()
			_, err := f.eng.SubmitMove(ctx, "r1", 0, drop(col), 1)
			switch {
			case err == nil:
				mu.Lock()
				committed++
				mu.Unlock()
			case !errors.Is(err, ErrConflict):
				t.Errorf("col %d: %v", col, err)
			}
		}(col)
	}
	wg.Wait()
	if committed != 1 {
		t.Fatalf("%d commits, want 1", committed)
	}
	rec, _ := f.store.Get(ctx, "r1")
	if rec.Version != 2 {
		t.Fatalf("version = %d", rec.Version)
	}
}

func TestStartGateAcceptsAnySeat(t *testing.T) {
	// Uniform(0,1) for the first seat draws 1.
	f := newFixture(t, rng.NewSequence(1))
	f.create(t, "r1", "pig", nil, human(0), human(1))
	ctx := context.Background()

	_, err := f.eng.SubmitMove(ctx, "r1", 0, game.Move{Action: "roll"}, 1)
	if !game.IsViolation(err, game.GateMismatch) {
		t.Fatalf("roll during gate err = %v", err)
	}
	snap, err := f.eng.SubmitMove(ctx, "r1", 0, game.Move{Action: game.ActionBeginGame}, 1)
	if err != nil {
		t.Fatal(err)
	}
	h := snap.State.Head()
	if h.Gate != nil || h.AwaitingGate || !h.CurrentTurn.Is(1) {
		t.Fatalf("header after gate = %+v", h)
	}
	if _, err := f.eng.SubmitMove(ctx, "r1", 1, game.Move{Action: game.ActionBeginGame}, 2); !game.IsViolation(err, game.GateMismatch) {
		t.Fatalf("second begin_game err = %v", err)
	}
}

func TestAIAnswersHumanMove(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(3))
	f.create(t, "r1", "fourfall", nil, human(0), bot(1, game.Expert))
	snap, err := f.eng.SubmitMove(context.Background(), "r1", 0, drop(3), 1)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != 3 || !snap.State.Head().CurrentTurn.Is(0) {
		t.Fatalf("version %d turn %v", snap.Version, snap.State.Head().CurrentTurn)
	}
	if len(snap.ValidMoves) == 0 {
		t.Fatal("human has no moves after ai reply")
	}
}

func TestAIRoomPlaysOutOnPoll(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(11))
	f.create(t, "r1", "pig", game.Settings{"target": 20}, bot(0, game.Expert), bot(1, game.Expert))
	snap, err := f.eng.ReadPublicState(context.Background(), "r1", Spectator)
	if err != nil {
		t.Fatal(err)
	}
	h := snap.State.Head()
	if !h.GameOver || h.EndReason != "target_reached" || len(h.Winners) != 1 {
		t.Fatalf("header = %+v", h)
	}
	if snap.Version < 3 {
		t.Fatalf("version = %d", snap.Version)
	}
}

func TestAILeavesGateToHumans(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.create(t, "r1", "pig", nil, human(0), bot(1, game.Expert))
	snap, err := f.eng.ReadPublicState(context.Background(), "r1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != 1 || snap.State.Head().Gate == nil {
		t.Fatalf("ai resolved a gate in a room with a human: version %d", snap.Version)
	}
}

func TestRoomAndSeatChecks(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.create(t, "r1", "fourfall", nil, human(0), human(1))
	ctx := context.Background()
	if _, err := f.eng.SubmitMove(ctx, "r1", 2, drop(0), 1); !errors.Is(err, ErrUnknownSeat) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.eng.ReadPublicState(ctx, "r1", 5); !errors.Is(err, ErrUnknownSeat) {
		t.Fatalf("err = %v", err)
	}
	f.rooms.add("r1", false, human(0), human(1))
	if _, err := f.eng.SubmitMove(ctx, "r1", 0, drop(0), 1); !errors.Is(err, ErrRoomInactive) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.eng.ReadPublicState(ctx, "r1", Spectator); err != nil {
		t.Fatalf("inactive room should still be readable: %v", err)
	}
}

func TestExpireIdle(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.create(t, "idle", "fourfall", nil, human(0), human(1))
	f.now = f.now.Add(20 * time.Minute)
	f.create(t, "busy", "fourfall", nil, human(0), human(1))
	ctx := context.Background()

	expired, err := f.eng.ExpireIdle(ctx, 10*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0] != "idle" {
		t.Fatalf("expired = %v", expired)
	}
	snap, _ := f.eng.ReadPublicState(ctx, "idle", Spectator)
	h := snap.State.Head()
	if !h.GameOver || h.EndReason != "timeout" || snap.Version != 2 {
		t.Fatalf("idle game = v%d %+v", snap.Version, h)
	}
	expired, _ = f.eng.ExpireIdle(ctx, 10*time.Minute)
	if len(expired) != 0 {
		t.Fatalf("finished game expired again: %v", expired)
	}

	// A finished game can be replaced by a new one.
	snap = f.create(t, "idle", "fourfall", nil, human(0), human(1))
	if snap.Version != 1 || snap.State.Head().GameOver {
		t.Fatalf("replacement = v%d", snap.Version)
	}
}

func TestReplaceFinishedGameOnce(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	ctx := context.Background()
	f.create(t, "r1", "fourfall", nil, human(0), human(1))
	if running, err := f.eng.GameRunning(ctx, "r1"); err != nil || !running {
		t.Fatalf("running = %v err = %v", running, err)
	}
	f.now = f.now.Add(time.Hour)
	if _, err := f.eng.ExpireIdle(ctx, time.Minute); err != nil {
		t.Fatal(err)
	}
	if running, _ := f.eng.GameRunning(ctx, "r1"); running {
		t.Fatal("timed-out game still running")
	}

	seats := []game.SeatInfo{human(0), human(1)}
	const callers = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.eng.CreateGameState(ctx, "r1", "fourfall", seats, nil)
			if err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			} else if !errors.Is(err, ErrGameRunning) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Fatalf("%d games created, want 1", won)
	}
	if running, _ := f.eng.GameRunning(ctx, "missing"); running {
		t.Fatal("room without a record reported running")
	}
}

func TestDeleteGame(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.create(t, "r1", "fourfall", nil, human(0), human(1))
	ctx := context.Background()
	if err := f.eng.DeleteGame(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.ReadPublicState(ctx, "r1", 0); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

// stuck offers a move to seat 1 that its AI never takes.
type stuckState struct {
	game.Header
}

func (s *stuckState) Clone() *stuckState {
	cp := *s
	cp.Header = s.Header.Copy()
	return &cp
}

type stuck struct{}

func (stuck) Info() game.Info { return game.Info{ID: "stuck", MinSeats: 2, MaxSeats: 2} }
func (stuck) Init(seats []game.SeatInfo, _ game.Settings) (*stuckState, error) {
	return &stuckState{Header: game.Header{Seats: 2, CurrentTurn: game.SeatTurn(1), Phase: "play", Winners: []game.Seat{}}}, nil
}
func (stuck) Setup(s *stuckState, _ rng.Source) *stuckState { return s }
func (stuck) Validate(*stuckState, game.Seat, game.Move) error { return nil }
func (stuck) Apply(s *stuckState, _ game.Seat, _ game.Move, _ rng.Source) *stuckState { return s }
func (stuck) AdvanceTurn(s *stuckState) *stuckState { return s }
func (stuck) CheckEnd(*stuckState) game.EndResult { return game.EndResult{} }
func (stuck) ScoreRound(s *stuckState, _ rng.Source) *stuckState { return s }
func (stuck) AIMove(*stuckState, game.Seat, game.Difficulty, rng.Source) (game.Move, bool) {
	return game.Move{}, false
}
func (stuck) ValidMoves(_ *stuckState, seat game.Seat) []game.Move {
	if seat == 1 {
		return []game.Move{{Action: "wait"}}
	}
	return nil
}
func (stuck) PublicView(s *stuckState, _ game.Seat) *stuckState { return s.Clone() }

func TestAIIdleTickIsNotAnError(t *testing.T) {
	f := newFixture(t, rng.NewSeeded(1))
	f.reg.MustRegister(game.Adapt[stuckState](stuck{}))
	f.create(t, "r1", "stuck", nil, human(0), bot(1, game.Expert))
	snap, err := f.eng.ReadPublicState(context.Background(), "r1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != 1 {
		t.Fatalf("idle tick wrote a commit: version %d", snap.Version)
	}
}
