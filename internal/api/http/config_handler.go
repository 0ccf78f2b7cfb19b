package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tabletop/internal/config"
	"tabletop/internal/game"
)

type ConfigHandler struct {
	cfg     config.Config
	weights *config.LiveWeights
	games   *game.Registry
}

func NewConfigHandler(cfg config.Config, weights *config.LiveWeights, games *game.Registry) *ConfigHandler {
	return &ConfigHandler{cfg: cfg, weights: weights, games: games}
}

// GetWeightsHandler returns the javanese heuristic weights
// @Summary Get heuristic weights
// @Description Returns the weights the javanese bots score placements with
// @Tags Config
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /config/weights [get]
func (h *ConfigHandler) GetWeightsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"weights": h.weights.Get()})
}

// UpdateWeightsHandler replaces the javanese heuristic weights
// @Summary Update heuristic weights
// @Description Replaces every weight at once; bots use them from their next move
// @Tags Config
// @Accept json
// @Produce json
// @Param request body config.Weights true "New weights"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /config/weights [post]
func (h *ConfigHandler) UpdateWeightsHandler(c *gin.Context) {
	var w config.Weights
	if err := c.ShouldBindJSON(&w); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.weights.Set(w); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"weights": w})
}

// @Summary Get search depths
// @Description Returns the minimax depth used per AI difficulty
// @Tags Config
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /config/depths [get]
func (h *ConfigHandler) GetDepthsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"depths": h.cfg.Depths})
}

// @Summary List games
// @Description Every registered game variant with its seat limits
// @Tags Config
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /games [get]
func (h *ConfigHandler) ListGamesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": h.games.List()})
}
