package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tabletop/internal/config"
	"tabletop/internal/engine"
	"tabletop/internal/game"
	"tabletop/internal/games"
	"tabletop/internal/rng"
	"tabletop/internal/store"
)

const localRoom = "local"

// table is the single always-active room the terminal plays in.
type table []game.SeatInfo

func (t table) Seats(context.Context, string) ([]game.SeatInfo, error) { return t, nil }

func (t table) IsActive(context.Context, string) (bool, error) { return true, nil }

type options struct {
	gameID     string
	seats      int
	human      int
	difficulty string
	seed       int64
	maxSteps   int
}

// Plays one game in the terminal. Without -human every seat is a bot.
func main() {
	var o options
	flag.StringVar(&o.gameID, "game", "javanese", "game id")
	flag.IntVar(&o.seats, "seats", 2, "number of seats")
	flag.IntVar(&o.human, "human", -1, "seat you play, -1 for bots only")
	flag.StringVar(&o.difficulty, "difficulty", "intermediate", "bot difficulty")
	flag.Int64Var(&o.seed, "seed", time.Now().UnixNano(), "random seed")
	flag.IntVar(&o.maxSteps, "max-steps", 2000, "stop after this many moves")
	verbose := flag.Bool("v", false, "log every committed move")
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	defer log.Sync()

	snap, err := play(context.Background(), o, os.Stdin, os.Stdout, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if snap != nil {
		if err := printFinal(os.Stdout, snap); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// play runs the game through the engine and returns the last state read.
// A nil snapshot means the player closed the input.
func play(ctx context.Context, o options, in io.Reader, out io.Writer, log *zap.Logger) (*engine.Snapshot, error) {
	reg := games.NewRegistry(config.Load())
	if _, ok := reg.Lookup(o.gameID); !ok {
		var ids []string
		for _, info := range reg.List() {
			ids = append(ids, info.ID)
		}
		return nil, fmt.Errorf("unknown game %q; available: %s", o.gameID, strings.Join(ids, " "))
	}

	seats := make(table, o.seats)
	for i := range seats {
		seats[i] = game.SeatInfo{Seat: game.Seat(i), IsAI: i != o.human, Difficulty: game.ParseDifficulty(o.difficulty)}
	}
	records := store.NewMemoryStore()
	defer records.Close()
	eng := engine.New(records, seats, reg, rng.NewSeeded(o.seed), log, engine.Options{MaxAISteps: o.maxSteps})
	if _, err := eng.CreateGameState(ctx, localRoom, o.gameID, seats, nil); err != nil {
		return nil, err
	}

	viewer := engine.Spectator
	if o.human >= 0 && o.human < o.seats {
		viewer = game.Seat(o.human)
	}
	reader := bufio.NewReader(in)
	for {
		// Reading plays every pending bot turn first.
		snap, err := eng.ReadPublicState(ctx, localRoom, viewer)
		if err != nil {
			return nil, err
		}
		if snap.State.Head().GameOver || snap.Version > int64(o.maxSteps) {
			return snap, nil
		}
		if viewer == engine.Spectator || len(snap.ValidMoves) == 0 {
			fmt.Fprintln(out, "Nobody can move.")
			return snap, nil
		}
		m, err := pick(snap, reader, out)
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		_, err = eng.SubmitMove(ctx, localRoom, viewer, m, snap.Version)
		switch {
		case game.IsViolation(err, ""):
			fmt.Fprintln(out, "Rejected:", err)
		case err != nil:
			return nil, err
		default:
			fmt.Fprintf(out, "seat %d: %s\n", viewer, m)
		}
	}
}

// pick shows the seat's view and asks for one of the numbered legal moves.
func pick(snap *engine.Snapshot, in *bufio.Reader, out io.Writer) (game.Move, error) {
	view, err := json.Marshal(snap.State)
	if err != nil {
		return game.Move{}, err
	}
	fmt.Fprintf(out, "\n%s\n", view)
	for i, m := range snap.ValidMoves {
		fmt.Fprintf(out, "  [%d] %s\n", i, m)
	}
	for {
		fmt.Fprint(out, "> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return game.Move{}, err
		}
		i, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || i < 0 || i >= len(snap.ValidMoves) {
			fmt.Fprintln(out, "Pick a number from the list.")
			continue
		}
		return snap.ValidMoves[i], nil
	}
}

func printFinal(out io.Writer, snap *engine.Snapshot) error {
	js, err := json.MarshalIndent(snap.State, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\nFinal state after %d commits:\n%s\n", snap.Version-1, js)
	return err
}
