package game

const (
	GateStartGame    = "start_game"
	GateNextTurn     = "next_turn"
	GateResolveRound = "resolve_round"

	ActionBeginGame = "begin_game"
	ActionContinue  = "continue"
)

// GateAction is the only action that resolves a gate of the given type.
func GateAction(gateType string) string {
	if gateType == GateStartGame {
		return ActionBeginGame
	}
	return ActionContinue
}

func IsGateAction(m Move) bool {
	return m.Action == ActionBeginGame || m.Action == ActionContinue
}

// OpenGate takes the turn away from every seat. next is the seat that gets
// it back when the gate resolves through ResolveGate.
func OpenGate(h *Header, gateType string, next Seat, data map[string]int) {
	h.Gate = &Gate{Type: gateType, Next: &next, Data: data}
	h.CurrentTurn = NoOwner
	h.AwaitingGate = true
	h.Simultaneous = false
}

// CloseGate clears the gate and returns it. The caller restores current_turn.
func CloseGate(h *Header) *Gate {
	g := h.Gate
	h.Gate = nil
	h.AwaitingGate = false
	return g
}

// ResolveGate closes the gate and hands the turn to the seat recorded
// when it was opened.
func ResolveGate(h *Header) *Gate {
	g := CloseGate(h)
	if g != nil && g.Next != nil {
		h.CurrentTurn = SeatTurn(*g.Next)
	}
	return g
}

// GateMove is the resolving move for the open gate, if any.
func GateMove(h *Header) (Move, bool) {
	if h.Gate == nil || h.GameOver {
		return Move{}, false
	}
	return Move{Action: GateAction(h.Gate.Type)}, true
}
