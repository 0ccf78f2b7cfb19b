package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tabletop/internal/config"
	"tabletop/internal/engine"
	"tabletop/internal/game"
	"tabletop/internal/room"
)

func NewRouter(rm *room.Manager, eng *engine.Engine, games *game.Registry, cfg config.Config, weights *config.LiveWeights, log *zap.Logger) *gin.Engine {
	r := gin.Default()
	cfgH := NewConfigHandler(cfg, weights, games)

	// --- ROOM ENDPOINTS ---
	r.POST("/create-room", CreateRoomHandler(rm, log))
	r.POST("/join-room", JoinRoomHandler(rm, log))
	r.POST("/play", PlayHandler(rm, eng, log))
	r.GET("/room", GetRoomHandler(rm, log))
	r.POST("/close-room", CloseRoomHandler(rm, eng, log))

	// --- GAME ENDPOINTS ---
	r.GET("/state", StateHandler(rm, eng, log))
	r.GET("/possible-moves", PossibleMovesHandler(rm, eng, log))
	r.POST("/move", MoveHandler(rm, eng, log))

	// --- CONFIG ENDPOINTS ---
	r.GET("/games", cfgH.ListGamesHandler)
	r.GET("/config/weights", cfgH.GetWeightsHandler)
	r.POST("/config/weights", cfgH.UpdateWeightsHandler)
	r.GET("/config/depths", cfgH.GetDepthsHandler)

	return r
}
