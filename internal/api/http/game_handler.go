package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tabletop/internal/engine"
	"tabletop/internal/game"
	"tabletop/internal/room"
)

// seatFor resolves the playerId query or body field to a seat. An empty id
// is a spectator.
func seatFor(rm *room.Manager, roomID, playerID string) (game.Seat, error) {
	if playerID == "" {
		return engine.Spectator, nil
	}
	return rm.SeatOf(roomID, playerID)
}

func etag(snap *engine.Snapshot) string {
	return `"` + snap.Fingerprint + `"`
}

// @Summary Poll game state
// @Description Returns the caller's view of the game. Pending AI turns are played first. Honours If-None-Match.
// @Tags Game
// @Produce json
// @Param roomId query string true "Room ID"
// @Param playerId query string false "Player ID; omit to spectate"
// @Success 200 {object} engine.Snapshot
// @Success 304
// @Router /state [get]
func StateHandler(rm *room.Manager, eng *engine.Engine, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Query("roomId")
		seat, err := seatFor(rm, roomID, c.Query("playerId"))
		if err != nil {
			writeError(c, log, err)
			return
		}
		snap, err := eng.ReadPublicState(c.Request.Context(), roomID, seat)
		if err != nil {
			writeError(c, log, err)
			return
		}
		tag := etag(snap)
		c.Header("ETag", tag)
		if c.GetHeader("If-None-Match") == tag {
			c.Status(http.StatusNotModified)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// @Summary Get possible moves for player
// @Description Returns every move the player may submit right now
// @Tags Game
// @Produce json
// @Param roomId query string true "Room ID"
// @Param playerId query string true "Player ID"
// @Success 200 {object} map[string]interface{}
// @Router /possible-moves [get]
func PossibleMovesHandler(rm *room.Manager, eng *engine.Engine, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, playerID := c.Query("roomId"), c.Query("playerId")
		if playerID == "" {
			badRequest(c, "playerId required")
			return
		}
		seat, err := rm.SeatOf(roomID, playerID)
		if err != nil {
			writeError(c, log, err)
			return
		}
		moves, err := eng.ValidMoves(c.Request.Context(), roomID, seat)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"moves": moves})
	}
}

// @Summary Player makes a move
// @Description Submit a move against the state version last seen. A stale version answers 409.
// @Tags Game
// @Accept json
// @Produce json
// @Param request body MoveRequest true "Move data"
// @Success 200 {object} engine.Snapshot
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /move [post]
func MoveHandler(rm *room.Manager, eng *engine.Engine, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "room_id, player_id and version required")
			return
		}
		seat, err := rm.SeatOf(req.RoomID, req.PlayerID)
		if err != nil {
			writeError(c, log, err)
			return
		}
		snap, err := eng.SubmitMove(c.Request.Context(), req.RoomID, seat, req.Move, req.Version)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.Header("ETag", etag(snap))
		c.JSON(http.StatusOK, snap)
	}
}
