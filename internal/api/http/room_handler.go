package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tabletop/internal/engine"
	"tabletop/internal/game"
	"tabletop/internal/room"
)

// @Summary Create new room
// @Description Create a room for one game variant with a single human player
// @Tags Room
// @Accept json
// @Produce json
// @Param request body CreateRoomRequest true "Game and player info"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /create-room [post]
func CreateRoomHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "game_id required")
			return
		}
		r, err := rm.CreateRoom(req.GameID, req.PlayerName, req.Settings)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room_code": r.Code, "room": r, "player_id": r.Players[0].ID})
	}
}

// @Summary Join a room
// @Description Take the next free seat in a waiting room
// @Tags Room
// @Accept json
// @Produce json
// @Param request body JoinRoomRequest true "Room code and player name"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} ErrorResponse
// @Router /join-room [post]
func JoinRoomHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req JoinRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "room_code required")
			return
		}
		found, err := rm.FindByCode(req.RoomCode)
		if err != nil {
			writeError(c, log, err)
			return
		}
		r, p, err := rm.Join(found.ID, req.PlayerName)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": r, "player_id": p.ID, "seat": p.Seat})
	}
}

// @Summary Add bots and start the game
// @Description Seats number_bot AI players at the given difficulty, then creates the game state
// @Tags Room
// @Accept json
// @Produce json
// @Param request body PlayRequest true "Room info"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /play [post]
func PlayHandler(rm *room.Manager, eng *engine.Engine, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "room_id required")
			return
		}
		if req.NumberBot > 0 {
			if _, err := rm.AddBots(req.RoomID, req.NumberBot, game.ParseDifficulty(req.Difficulty)); err != nil {
				writeError(c, log, err)
				return
			}
		}
		r, err := rm.Start(req.RoomID)
		if err != nil {
			writeError(c, log, err)
			return
		}
		snap, err := eng.CreateGameState(c.Request.Context(), r.ID, r.GameID, r.SeatInfos(), r.Settings)
		if err != nil {
			if _, rerr := rm.Reset(r.ID); rerr != nil {
				log.Warn("room reset failed", zap.String("room", r.ID), zap.Error(rerr))
			}
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": r, "state": snap})
	}
}

// @Summary Get a room
// @Tags Room
// @Produce json
// @Param roomId query string true "Room ID"
// @Success 200 {object} room.Room
// @Router /room [get]
func GetRoomHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := rm.Get(c.Query("roomId"))
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// @Summary Close a room
// @Description Stops accepting moves and drops the game state
// @Tags Room
// @Accept json
// @Produce json
// @Param request body CloseRoomRequest true "Room"
// @Success 200 {object} map[string]interface{}
// @Router /close-room [post]
func CloseRoomHandler(rm *room.Manager, eng *engine.Engine, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CloseRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "room_id required")
			return
		}
		if err := rm.Close(req.RoomID); err != nil {
			writeError(c, log, err)
			return
		}
		if err := eng.DeleteGame(c.Request.Context(), req.RoomID); err != nil && statusFor(err) != http.StatusNotFound {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
