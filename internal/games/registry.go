// Package games wires every bundled variant into a registry.
package games

import (
	"tabletop/internal/ai"
	"tabletop/internal/config"
	"tabletop/internal/game"
	"tabletop/internal/games/checkers"
	"tabletop/internal/games/evenatodds"
	"tabletop/internal/games/fourfall"
	"tabletop/internal/games/javanese"
	"tabletop/internal/games/oddmanout"
	"tabletop/internal/games/overcut"
	"tabletop/internal/games/pig"
	"tabletop/internal/games/war"
)

func Depths(cfg config.Config) ai.Depths {
	return ai.Depths{
		Beginner:     cfg.Depths.Beginner,
		Intermediate: cfg.Depths.Intermediate,
		Expert:       cfg.Depths.Expert,
	}
}

func NewRegistry(cfg config.Config) *game.Registry {
	return NewLiveRegistry(cfg, config.NewLiveWeights(cfg.Weights))
}

// NewLiveRegistry is NewRegistry with javanese weights that can be changed
// at runtime through weights.
func NewLiveRegistry(cfg config.Config, weights *config.LiveWeights) *game.Registry {
	depths := Depths(cfg)
	reg := game.NewRegistry()
	reg.MustRegister(game.Adapt[fourfall.State](fourfall.New(depths)))
	reg.MustRegister(game.Adapt[checkers.State](checkers.New(depths)))
	reg.MustRegister(game.Adapt[pig.State](pig.New()))
	reg.MustRegister(game.Adapt[overcut.State](overcut.New()))
	reg.MustRegister(game.Adapt[evenatodds.State](evenatodds.New()))
	reg.MustRegister(game.Adapt[oddmanout.State](oddmanout.New()))
	reg.MustRegister(game.Adapt[war.State](war.New()))
	reg.MustRegister(game.Adapt[javanese.State](javanese.NewLive(weights)))
	return reg
}
