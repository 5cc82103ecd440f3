package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"memory-service/internal/middleware"
	"memory-service/internal/model"
	"memory-service/internal/service"
	"memory-service/internal/service/game"
	"memory-service/internal/service/leaderboard"
	"memory-service/internal/ws"
	appErr "memory-service/pkg/errors"
	"memory-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	// The leaderboard resource answers with bare arrays.
	board := r.Group("/api/leaderboard")
	{
		board.GET("", handler.ListScores)
		board.POST("", handler.SubmitScore)
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/players", handler.RegisterPlayer)
		v1.GET("/players/me", middleware.PlayerAuthRequired(), handler.GetPlayer)
		v1.GET("/difficulties", handler.ListDifficulties)
		v1.GET("/performance", handler.ClassifyPerformance)
		v1.GET("/leaderboard", handler.GetLeaderboard)

		gameGroup := v1.Group("/games")
		gameGroup.Use(middleware.PlayerAuthRequired())
		{
			gameGroup.POST("", handler.StartGame)
			gameGroup.GET("/history", handler.GameHistory)
			gameGroup.GET("/:id", handler.GetGame)
			gameGroup.POST("/:id/flip", handler.FlipCard)
			gameGroup.POST("/:id/clue", handler.UseClue)
			gameGroup.POST("/:id/restart", handler.RestartGame)
			gameGroup.DELETE("/:id", handler.EndGame)
		}
	}

	r.GET("/ws/games/:id", wsHandler.HandleGameWS)
}

type registerPlayerBody struct {
	Name string `json:"name"`
}

type startGameBody struct {
	Pairs      int    `json:"pairs" binding:"required,min=1"`
	Difficulty string `json:"difficulty" binding:"required"`
}

type flipBody struct {
	Slot *int `json:"slot" binding:"required"`
}

type scoreBody struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Pairs      int    `json:"pairs" binding:"required"`
	Time       int    `json:"time"`
	Moves      int    `json:"moves"`
	Score      int    `json:"score"`
	Difficulty string `json:"difficulty" binding:"required"`
	Date       string `json:"date"`
}

func (h *Handler) ListScores(c *gin.Context) {
	board := h.services.Leaderboard.List(c.Request.Context(), listOptions(c))
	if board.Stale {
		c.Header("X-Leaderboard-Stale", "true")
	}
	c.JSON(http.StatusOK, board.Scores)
}

func (h *Handler) SubmitScore(c *gin.Context) {
	var body scoreBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := h.services.Leaderboard.Submit(c.Request.Context(), model.Score{
		UserID:     body.UserID,
		UserName:   body.UserName,
		Pairs:      body.Pairs,
		Time:       body.Time,
		Moves:      body.Moves,
		Score:      body.Score,
		Difficulty: body.Difficulty,
		Date:       body.Date,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if board.Stale {
		c.Header("X-Leaderboard-Stale", "true")
	}
	c.JSON(http.StatusOK, board.Scores)
}

func (h *Handler) GetLeaderboard(c *gin.Context) {
	response.Success(c, h.services.Leaderboard.List(c.Request.Context(), listOptions(c)))
}

func (h *Handler) RegisterPlayer(c *gin.Context) {
	var body registerPlayerBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.services.Player.Register(c.Request.Context(), body.Name)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, resp)
}

func (h *Handler) GetPlayer(c *gin.Context) {
	playerID, _, ok := getPlayer(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	player, err := h.services.Player.Get(c.Request.Context(), playerID)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, player)
}

func (h *Handler) ListDifficulties(c *gin.Context) {
	response.Success(c, gin.H{
		"difficulties": game.Difficulties(),
		"maxPairs":     game.MaxPairs(),
	})
}

func (h *Handler) ClassifyPerformance(c *gin.Context) {
	pairs, err := parsePositiveIntQuery(c, "pairs", 0)
	if err != nil || pairs == 0 {
		response.Error(c, http.StatusBadRequest, "invalid pairs")
		return
	}
	seconds, err := parseNonNegativeIntQuery(c, "time")
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	moves, err := parseNonNegativeIntQuery(c, "moves")
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	perf := game.ClassifyPerformance(pairs, seconds, moves)
	resp := gin.H{
		"performance": perf,
		"feedback":    game.FeedbackFor(perf),
	}
	if raw := c.Query("difficulty"); raw != "" {
		difficulty, err := game.ParseDifficulty(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		resp["score"] = game.CalculateScore(pairs, seconds, moves, difficulty)
	}
	response.Success(c, resp)
}

func (h *Handler) StartGame(c *gin.Context) {
	var body startGameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	difficulty, err := game.ParseDifficulty(body.Difficulty)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	playerID, playerName, ok := getPlayer(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	rt, err := h.services.Game.StartGame(c.Request.Context(), game.StartParams{
		PlayerID:   playerID,
		PlayerName: playerName,
		Pairs:      body.Pairs,
		Difficulty: difficulty,
	})
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, rt.Snapshot())
}

func (h *Handler) GetGame(c *gin.Context) {
	rt, ok := h.authorize(c)
	if !ok {
		return
	}
	response.Success(c, rt.Snapshot())
}

func (h *Handler) FlipCard(c *gin.Context) {
	var body flipBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	rt, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := rt.Session().FlipCard(*body.Slot); err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, rt.Snapshot())
}

func (h *Handler) UseClue(c *gin.Context) {
	rt, ok := h.authorize(c)
	if !ok {
		return
	}
	slot, err := rt.Session().UseClue()
	if err != nil {
		var clueErr *game.ClueUnavailableError
		if errors.As(err, &clueErr) {
			response.JSON(c, http.StatusConflict, gin.H{"reason": clueErr.Reason}, err.Error())
			return
		}
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, gin.H{
		"highlighted": slot,
		"game":        rt.Snapshot(),
	})
}

func (h *Handler) RestartGame(c *gin.Context) {
	playerID, _, ok := getPlayer(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	rt, err := h.services.Game.Restart(c.Request.Context(), c.Param("id"), playerID)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, rt.Snapshot())
}

func (h *Handler) EndGame(c *gin.Context) {
	playerID, _, ok := getPlayer(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.services.Game.EndGame(c.Request.Context(), c.Param("id"), playerID); err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.SuccessWithMsg(c, gin.H{"status": "ended"}, "")
}

func (h *Handler) GameHistory(c *gin.Context) {
	playerID, _, ok := getPlayer(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, err := parsePositiveIntQuery(c, "limit", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	logs, err := h.services.Game.History(c.Request.Context(), playerID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"games": logs})
}

func (h *Handler) authorize(c *gin.Context) (*game.Runtime, bool) {
	playerID, _, ok := getPlayer(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	rt, err := h.services.Game.Authorize(c.Request.Context(), c.Param("id"), playerID)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return nil, false
	}
	return rt, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, appErr.ErrInvalidConfiguration),
		errors.Is(err, appErr.ErrInvalidDifficulty),
		errors.Is(err, appErr.ErrSlotOutOfRange),
		errors.Is(err, appErr.ErrInvalidScore):
		return http.StatusBadRequest
	case errors.Is(err, appErr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, appErr.ErrSessionAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, appErr.ErrSessionNotFound),
		errors.Is(err, appErr.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, appErr.ErrCheckingInProgress),
		errors.Is(err, appErr.ErrCardMatched),
		errors.Is(err, appErr.ErrCardAlreadyFlipped),
		errors.Is(err, appErr.ErrGameCompleted),
		errors.Is(err, appErr.ErrClueUnavailable):
		return http.StatusConflict
	case errors.Is(err, appErr.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, appErr.ErrLeaderboardBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, appErr.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func listOptions(c *gin.Context) leaderboard.ListOptions {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return leaderboard.ListOptions{
		Sort:       strings.TrimSpace(c.Query("sort")),
		Difficulty: strings.TrimSpace(c.Query("difficulty")),
		Limit:      limit,
	}
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func parseNonNegativeIntQuery(c *gin.Context, key string) (int, error) {
	parsed, err := strconv.Atoi(c.Query(key))
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func getPlayer(c *gin.Context) (string, string, bool) {
	v, ok := c.Get(middleware.ContextPlayerIDKey)
	if !ok {
		return "", "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", "", false
	}
	return id, c.GetString(middleware.ContextPlayerNameKey), true
}
