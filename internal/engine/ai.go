package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"tabletop/internal/game"
)

// errIdle ends the driver loop without an error.
var errIdle = errors.New("engine: no ai seat can act")

// driveAI plays AI seats until none can act, the game ends or
// MaxAISteps commits have been made.
func (e *Engine) driveAI(ctx context.Context, roomID string, seats []game.SeatInfo) error {
	for step := 0; step < e.opts.MaxAISteps; step++ {
		err := e.aiStep(ctx, roomID, seats)
		if errors.Is(err, errIdle) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	e.log.Warn("ai step limit reached", zap.String("room", roomID), zap.Int("steps", e.opts.MaxAISteps))
	return nil
}

// aiStep makes one AI commit. Losing the version race re-reads the state
// and chooses again.
func (e *Engine) aiStep(ctx context.Context, roomID string, seats []game.SeatInfo) error {
	backoff := retry.WithMaxRetries(uint64(e.opts.AIRetries), retry.NewExponential(5*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		l, err := e.load(ctx, roomID)
		if err != nil {
			return err
		}
		if l.state.Head().GameOver {
			return errIdle
		}
		seat, ok := nextAISeat(l, seats)
		if !ok {
			return errIdle
		}
		log := e.log.With(zap.String("room", roomID), zap.String("game", l.rec.GameID), zap.Int("seat", int(seat.Seat)))
		m, ok := l.game.AIMove(l.state, seat.Seat, seat.Difficulty, e.rnd)
		if !ok {
			log.Warn("ai idle tick", zap.Error(game.ErrNoAIMove))
			return errIdle
		}
		next, err := e.transition(l, seat.Seat, m)
		if err != nil {
			return fmt.Errorf("ai seat %d chose %s: %w", seat.Seat, m, err)
		}
		rec, err := e.commit(ctx, l, next)
		if errors.Is(err, ErrConflict) {
			log.Debug("ai move lost version race, retrying")
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		log.Info("ai move committed",
			zap.String("action", m.Action), zap.String("difficulty", string(seat.Difficulty)),
			zap.Int64("version", rec.Version))
		return nil
	})
}

// nextAISeat picks the first AI seat with something to do. Gates are left
// to humans when any human is seated.
func nextAISeat(l *loaded, seats []game.SeatInfo) (game.SeatInfo, bool) {
	humans := false
	for _, s := range seats {
		humans = humans || !s.IsAI
	}
	if humans && l.state.Head().Gate != nil {
		return game.SeatInfo{}, false
	}
	for _, s := range seats {
		if s.IsAI && len(l.game.ValidMoves(l.state, s.Seat)) > 0 {
			return s, true
		}
	}
	return game.SeatInfo{}, false
}
