package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tabletop/internal/engine"
	"tabletop/internal/game"
	"tabletop/internal/room"
	"tabletop/internal/store"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var rv *game.RuleViolation
	switch {
	case errors.As(err, &rv):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrConflict),
		errors.Is(err, engine.ErrRoomInactive),
		errors.Is(err, engine.ErrGameRunning),
		errors.Is(err, room.ErrNotWaiting),
		errors.Is(err, room.ErrRoomFull):
		return http.StatusConflict
	case len(game.ConfigErrors(err)) > 0,
		errors.Is(err, room.ErrTooFewPlayers),
		errors.Is(err, engine.ErrUnknownSeat):
		return http.StatusBadRequest
	case errors.Is(err, room.ErrUnknownPlayer):
		return http.StatusForbidden
	case errors.Is(err, room.ErrNotFound),
		errors.Is(err, room.ErrUnknownGame),
		errors.Is(err, engine.ErrUnknownGame),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}
	var rv *game.RuleViolation
	if errors.As(err, &rv) {
		resp.Kind = string(rv.Kind)
	}
	for _, ce := range game.ConfigErrors(err) {
		resp.Fields = append(resp.Fields, ce.Key)
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		resp.Error = "internal error"
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
