package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	httpapi "tabletop/internal/api/http"
	"tabletop/internal/config"
	"tabletop/internal/engine"
	"tabletop/internal/games"
	"tabletop/internal/rng"
	"tabletop/internal/room"
	"tabletop/internal/store"
)

// @title Tabletop API
// @version 1.0
// @description Turn-based game rooms with human and AI seats (Go + Gin)
// @BasePath /
func main() {
	cfg := config.Load()
	log := newLogger(cfg)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if cfg.LogDev {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}

func newSource(cfg config.Config, log *zap.Logger) rng.Source {
	switch {
	case cfg.ServerSeed != "":
		log.Info("random source: hmac", zap.String("client_seed", cfg.ClientSeed))
		return rng.NewHMAC(cfg.ServerSeed, cfg.ClientSeed, 0)
	case cfg.Seed != 0:
		log.Info("random source: seeded", zap.Int64("seed", cfg.Seed))
		return rng.NewSeeded(cfg.Seed)
	}
	return rng.NewSeeded(time.Now().UnixNano())
}

type recordStore interface {
	engine.Store
	Close() error
}

func openStore(ctx context.Context, cfg config.Config, mem *store.MemoryStore) (recordStore, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	case "memory", "":
		return mem, nil
	}
	return nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
}

func run(cfg config.Config, log *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	records, err := openStore(ctx, cfg, mem)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, records.Close()) }()

	rnd := newSource(cfg, log)
	weights := config.NewLiveWeights(cfg.Weights)
	reg := games.NewLiveRegistry(cfg, weights)
	rm := room.NewManager(mem, reg, rnd, log.Named("room"))
	eng := engine.New(records, rm, reg, rnd, log.Named("engine"), engine.Options{
		MaxAISteps: cfg.AIMaxSteps,
		AIRetries:  cfg.AIRetries,
	})

	r := httpapi.NewRouter(rm, eng, reg, cfg, weights, log.Named("http"))
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go janitor(ctx, cfg, rm, eng, log.Named("janitor"))

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// janitor times out idle games and drops stale rooms.
func janitor(ctx context.Context, cfg config.Config, rm *room.Manager, eng *engine.Engine, log *zap.Logger) {
	if cfg.JanitorInterval <= 0 {
		return
	}
	t := time.NewTicker(cfg.JanitorInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		expired, err := eng.ExpireIdle(ctx, cfg.IdleTimeout)
		for _, e := range multierr.Errors(err) {
			log.Warn("expire idle game", zap.Error(e))
		}
		if len(expired) > 0 {
			log.Info("games timed out", zap.Strings("rooms", expired))
		}
		for _, id := range rm.ExpireStale(ctx, cfg.RoomTTL, eng.GameRunning) {
			if err := eng.DeleteGame(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
				log.Warn("drop game for stale room", zap.String("room", id), zap.Error(err))
			}
		}
	}
}
