package game

import (
	"errors"
	"fmt"
)

type ViolationKind string

const (
	WrongTurn    ViolationKind = "wrong_turn"
	IllegalMove  ViolationKind = "illegal_move"
	WrongPhase   ViolationKind = "wrong_phase"
	GateMismatch ViolationKind = "gate_mismatch"
	Finished     ViolationKind = "game_over"
)

// RuleViolation rejects a move. State is never changed by a rejected move.
type RuleViolation struct {
	Kind   ViolationKind
	Reason string
}

func (e *RuleViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func Violation(kind ViolationKind, format string, args ...any) error {
	return &RuleViolation{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// IsViolation reports whether err is a RuleViolation of the given kind.
// An empty kind matches any violation.
func IsViolation(err error, kind ViolationKind) bool {
	var rv *RuleViolation
	if !errors.As(err, &rv) {
		return false
	}
	return kind == "" || rv.Kind == kind
}

// ConfigError reports one malformed setting.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("setting %q: %s", e.Key, e.Reason)
}

var (
	ErrNoAIMove     = errors.New("ai has no legal move")
	ErrDuplicateID  = errors.New("game id already registered")
	ErrSeatCount    = errors.New("unsupported number of seats")
	ErrStateDecode  = errors.New("cannot decode game state")
	ErrForeignState = errors.New("state belongs to another game")
)
