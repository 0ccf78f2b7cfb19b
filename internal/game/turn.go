package game

// CheckTurn runs the ownership checks every Validate starts with. It
// returns gate=true when m is the valid resolving action for an open gate,
// in which case the variant needs no further checks.
func CheckTurn(h *Header, seat Seat, m Move) (gate bool, err error) {
	if h.GameOver {
		return false, Violation(Finished, "game is over")
	}
	if seat < 0 || int(seat) >= h.Seats {
		return false, Violation(IllegalMove, "seat %d is not in this game", seat)
	}
	if h.Gate != nil {
		want := GateAction(h.Gate.Type)
		if m.Action != want {
			return false, Violation(GateMismatch, "gate %s is open, only %s is accepted", h.Gate.Type, want)
		}
		return true, nil
	}
	if IsGateAction(m) {
		return false, Violation(GateMismatch, "no gate is open")
	}
	if h.Simultaneous {
		return false, nil
	}
	if !h.CurrentTurn.Is(seat) {
		return false, Violation(WrongTurn, "it is seat %s's turn", h.CurrentTurn)
	}
	return false, nil
}

// RequireListed accepts m only if it is one of the enumerated legal moves.
func RequireListed(valid []Move, m Move) error {
	for _, v := range valid {
		if v.Equal(m) {
			return nil
		}
	}
	return Violation(IllegalMove, "%s is not a legal move", m)
}

func NextSeat(cur Seat, seats int) Seat {
	return Seat((int(cur) + 1) % seats)
}

// FinishGame stamps the terminal fields.
func FinishGame(h *Header, end EndResult) {
	h.GameOver = true
	h.RoundOver = false
	h.EndReason = end.Reason
	h.Winners = append([]Seat{}, end.Winners...)
}

// CheckSeats rejects seat lists that do not fit the variant.
func CheckSeats(info Info, seats []SeatInfo) error {
	if len(seats) < info.MinSeats || len(seats) > info.MaxSeats {
		return &ConfigError{Key: "seats", Reason: ErrSeatCount.Error() + ": " + info.ID}
	}
	for i, s := range seats {
		if int(s.Seat) != i {
			return &ConfigError{Key: "seats", Reason: "seats must be numbered 0..N-1 in order"}
		}
	}
	return nil
}

// Leaders returns every seat holding the maximum score.
func Leaders(scores []int) []Seat {
	best := 0
	var out []Seat
	for i, s := range scores {
		switch {
		case len(out) == 0 || s > best:
			best = s
			out = []Seat{Seat(i)}
		case s == best:
			out = append(out, Seat(i))
		}
	}
	return out
}

// TargetReached ends a match once any score reaches target.
func TargetReached(scores []int, target int) EndResult {
	for _, s := range scores {
		if s >= target {
			return EndResult{Ended: true, Reason: "target_reached", Winners: Leaders(scores)}
		}
	}
	return EndResult{}
}
