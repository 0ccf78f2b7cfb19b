package oddmanout

import (
	"testing"

	"tabletop/internal/game"
	"tabletop/internal/rng"
)

func seats(n int) []game.SeatInfo {
	out := make([]game.SeatInfo, n)
	for i := range out {
		out[i] = game.SeatInfo{Seat: game.Seat(i)}
	}
	return out
}

func TestOddOne(t *testing.T) {
	cases := []struct {
		coins []int
		seat  game.Seat
		ok    bool
	}{
		{[]int{1, 0, 0}, 0, true},
		{[]int{1, 1, 0}, 2, true},
		{[]int{1, 1, 1}, 0, false},
		{[]int{1, 1, 0, 0}, 0, false},
		{[]int{0, 0, 0, 1}, 3, true},
	}
	for _, c := range cases {
		seat, ok := OddOne(c.coins)
		if ok != c.ok || (ok && seat != c.seat) {
			t.Errorf("OddOne(%v) = %d,%v", c.coins, seat, ok)
		}
	}
}

func TestRoundFlow(t *testing.T) {
	r := New()
	s, err := r.Init(seats(3), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Validate(s, 1, game.Move{Action: ActionFlip}); !game.IsViolation(err, game.GateMismatch) {
		t.Fatalf("flip before start: %v", err)
	}
	s = r.Apply(s, 1, game.Move{Action: game.ActionBeginGame}, nil)

	coins := rng.NewSequence(1, 0, 0)
	for _, seat := range []game.Seat{2, 0, 1} {
		if err := r.Validate(s, seat, game.Move{Action: ActionFlip}); err != nil {
			t.Fatalf("seat %d: %v", seat, err)
		}
		s = r.AdvanceTurn(r.Apply(s, seat, game.Move{Action: ActionFlip}, coins))
		if seat == 2 {
			if v := r.PublicView(s, 0); v.Coins[2] != Concealed {
				t.Fatalf("coin visible early: %v", v.Coins)
			}
		}
	}
	if !s.RoundOver {
		t.Fatal("round should be over after all flips")
	}
	s = r.ScoreRound(s, nil)
	// seat 2 flipped heads, 0 and 1 tails.
	if s.Odd != 2 || s.Scores[2] != 1 {
		t.Fatalf("odd=%d scores=%v", s.Odd, s.Scores)
	}
	if s.Gate == nil || s.Gate.Data["odd"] != 2 || s.Gate.Data["heads"] != 1 {
		t.Fatalf("gate = %+v", s.Gate)
	}
	if err := s.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestTwoSeatsRejected(t *testing.T) {
	if _, err := New().Init(seats(2), nil); err == nil {
		t.Fatal("two seats accepted")
	}
}
