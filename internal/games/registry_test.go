package games

import (
	"encoding/json"
	"testing"

	"tabletop/internal/config"
	"tabletop/internal/game"
	"tabletop/internal/rng"
)

func testConfig() config.Config {
	return config.Config{
		Depths:  config.Depths{Beginner: 1, Intermediate: 2, Expert: 3},
		Weights: config.DefaultWeights(),
	}
}

func TestRegistryListsEveryVariant(t *testing.T) {
	reg := NewRegistry(testConfig())
	want := []string{"checkers", "evenatodds", "fourfall", "javanese", "oddmanout", "overcut", "pig", "war"}
	got := reg.List()
	if len(got) != len(want) {
		t.Fatalf("got %d variants, want %d", len(got), len(want))
	}
	for i, info := range got {
		if info.ID != want[i] {
			t.Fatalf("variant %d = %s, want %s", i, info.ID, want[i])
		}
	}
}

// Every variant, from a fresh state with all seats on AI, must keep the
// turn invariant and survive a JSON round trip at every step.
func TestVariantsSelfPlay(t *testing.T) {
	reg := NewRegistry(testConfig())
	for _, info := range reg.List() {
		t.Run(info.ID, func(t *testing.T) {
			g, _ := reg.Lookup(info.ID)
			seats := make([]game.SeatInfo, info.MaxSeats)
			for i := range seats {
				seats[i] = game.SeatInfo{Seat: game.Seat(i), IsAI: true, Difficulty: game.Beginner}
			}
			src := rng.NewSeeded(7)
			s, err := g.Init(seats, nil)
			if err != nil {
				t.Fatal(err)
			}
			s = g.Setup(s, src)
			for step := 0; step < 60 && !s.Head().GameOver; step++ {
				if err := s.Head().Check(); err != nil {
					t.Fatalf("step %d: %v", step, err)
				}
				acted := false
				for _, seat := range seats {
					if len(g.ValidMoves(s, seat.Seat)) == 0 {
						continue
					}
					m, ok := g.AIMove(s, seat.Seat, seat.Difficulty, src)
					if !ok {
						continue
					}
					if err := g.Validate(s, seat.Seat, m); err != nil {
						t.Fatalf("step %d seat %d: %v", step, seat.Seat, err)
					}
					s = g.AdvanceTurn(g.Apply(s, seat.Seat, m, src))
					end := g.CheckEnd(s)
					if end.Ended || s.Head().RoundOver {
						s = g.ScoreRound(s, src)
						end = g.CheckEnd(s)
					}
					if end.Ended {
						game.FinishGame(s.Head(), end)
					}
					acted = true
					break
				}
				if !acted {
					t.Fatalf("step %d: no seat could act", step)
				}
				data, err := json.Marshal(s)
				if err != nil {
					t.Fatal(err)
				}
				if s, err = g.Decode(data); err != nil {
					t.Fatal(err)
				}
			}
		})
	}
}
