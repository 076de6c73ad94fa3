package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sciddle/sciddle/internal/entity"
	"github.com/sciddle/sciddle/internal/games"
	"github.com/sciddle/sciddle/internal/stacks"
	"github.com/sciddle/sciddle/internal/store"
)

// Extractor is the optional remote definition lookup.
type Extractor interface {
	Extract(ctx context.Context, article string) (string, error)
}

// Limits carries the configured selection bounds and defaults.
type Limits struct {
	DefaultStack string
	MinCards     int
	TurnTime     int
}

// Handler wires the game services into the REST surface.
type Handler struct {
	store     *store.Store
	stacks    *stacks.Service
	manager   *games.Manager
	extractor Extractor
	limits    Limits
}

func New(st *store.Store, svc *stacks.Service, manager *games.Manager, extractor Extractor, limits Limits) *Handler {
	return &Handler{store: st, stacks: svc, manager: manager, extractor: extractor, limits: limits}
}

// Register mounts all API routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/stacks", h.listStacks)
	api.GET("/stacks/:id", h.getStack)
	api.POST("/stacks/:id/merge", h.mergeStack)
	api.DELETE("/stacks", h.clearStacks)

	api.POST("/stacks/:id/game", h.startGame)
	api.DELETE("/stacks/:id/game", h.abandonGame)
	api.GET("/stacks/:id/game/winners", h.winners)

	api.POST("/stacks/:id/turn/start", h.startTurn)
	api.POST("/stacks/:id/turn/team-ack", h.acknowledgeTeam)
	api.POST("/stacks/:id/turn/difficulty", h.selectDifficulty)
	api.POST("/stacks/:id/turn/card/guessed", h.cardGuessed)
	api.POST("/stacks/:id/turn/card/skipped", h.cardSkipped)
	api.POST("/stacks/:id/turn/close", h.closeTurn)

	api.GET("/extracts/:article", h.extract)
}

func (h *Handler) listStacks(c *gin.Context) {
	list, err := h.store.FindAllStacks(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []*entity.Stack{}
	}
	c.JSON(http.StatusOK, list)
}

// getStack returns the persisted stack, building it from bundled assets on
// first access. The "default" alias resolves to the configured default stack.
func (h *Handler) getStack(c *gin.Context) {
	id := c.Param("id")
	if id == "default" {
		id = h.limits.DefaultStack
	}
	stack, err := h.store.FindStackByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrStackNotFound) && h.stacks.Knows(id) {
		stack, err = h.stacks.NewStack(id)
		if err == nil {
			err = h.store.UpdateStack(c.Request.Context(), stack)
		}
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

// mergeStack re-merges bundled content into the persisted stack. A merge that
// changes nothing is a no-op and answers 204 without persisting.
func (h *Handler) mergeStack(c *gin.Context) {
	id := c.Param("id")
	stack, err := h.store.FindStackByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	changed, err := h.stacks.MergeStackFromAssets(stack)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !changed {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.store.UpdateStack(c.Request.Context(), stack); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) clearStacks(c *gin.Context) {
	if err := h.store.ClearStacks(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) startGame(c *gin.Context) {
	var cfg entity.GameConfig
	if err := c.BindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_config"})
		return
	}
	if len(cfg.Difficulties) == 0 {
		cfg.Difficulties = []entity.Difficulty{entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyHard}
	}
	if cfg.CardCount > 0 && cfg.CardCount < h.limits.MinCards {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too_few_cards"})
		return
	}
	if cfg.TurnTime == 0 {
		cfg.TurnTime = h.limits.TurnTime
	}
	stack, err := h.manager.StartGame(c.Request.Context(), c.Param("id"), cfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	log.Info().Str("stackId", stack.ID).Int("teams", cfg.TeamCount).Msg("game started")
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) abandonGame(c *gin.Context) {
	stack, err := h.manager.AbandonGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) winners(c *gin.Context) {
	teams, err := h.manager.Winners(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": teams})
}

func (h *Handler) startTurn(c *gin.Context) {
	stack, err := h.manager.StartTurn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) acknowledgeTeam(c *gin.Context) {
	stack, err := h.manager.AcknowledgeTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) selectDifficulty(c *gin.Context) {
	var payload struct {
		Difficulty entity.Difficulty `json:"difficulty"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_difficulty"})
		return
	}
	stack, err := h.manager.SelectDifficulty(c.Request.Context(), c.Param("id"), payload.Difficulty)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) cardGuessed(c *gin.Context) {
	stack, err := h.manager.CardGuessed(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) cardSkipped(c *gin.Context) {
	stack, err := h.manager.CardSkipped(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) closeTurn(c *gin.Context) {
	stack, err := h.manager.CloseTurn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

func (h *Handler) extract(c *gin.Context) {
	if h.extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "extracts_disabled"})
		return
	}
	text, err := h.extractor.Extract(c.Request.Context(), c.Param("article"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"extract": text})
}

// fail maps service errors onto HTTP statuses in the {"error": ...} shape.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrStackNotFound),
		errors.Is(err, stacks.ErrUnknownStack),
		errors.Is(err, games.ErrNoGame):
		status = http.StatusNotFound
	case errors.Is(err, games.ErrInvalidState),
		errors.Is(err, games.ErrNoCardForTier):
		status = http.StatusConflict
	case errors.Is(err, games.ErrTeamNotFound):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
