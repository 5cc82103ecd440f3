package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"memory-service/internal/config"
	"memory-service/internal/model"
	appErr "memory-service/pkg/errors"
	"memory-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	statusPlaying   = "playing"
	statusCompleted = "completed"
	statusAbandoned = "abandoned"

	finishTimeout = 5 * time.Second
)

// ScoreRecorder receives the score of every completed game.
type ScoreRecorder interface {
	Record(ctx context.Context, score model.Score) error
}

type Config struct {
	Timings      Timings
	InitialClues int
	Scheduler    Scheduler
	// NewShuffler seeds each session's deck; defaults to a time-seeded
	// math/rand source.
	NewShuffler func() Shuffler
}

func ConfigFrom(cfg config.GameConfig) Config {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return Config{
		Timings: Timings{
			MatchDelay:        ms(cfg.MatchDelayMs),
			MismatchDelay:     ms(cfg.MismatchDelayMs),
			ClueDuration:      ms(cfg.ClueDurationMs),
			ReshuffleInterval: time.Duration(cfg.ReshuffleIntervalSec) * time.Second,
			ReshuffleRetry:    ms(cfg.ReshuffleRetryMs),
			ShuffleDisplay:    ms(cfg.ShuffleDisplayMs),
			ClockTick:         ms(cfg.ClockTickMs),
		},
		InitialClues: cfg.InitialClues,
	}
}

// Service owns the live sessions; each player has at most one.
type Service struct {
	db     *gorm.DB
	scores ScoreRecorder
	cfg    Config
	tasks  *TaskRegistry

	mu       sync.Mutex
	runtimes map[string]*Runtime // by session id
	byPlayer map[string]string   // player id -> session id

	finishing sync.WaitGroup
}

func NewService(db *gorm.DB, scores ScoreRecorder, cfg Config) *Service {
	if cfg.NewShuffler == nil {
		cfg.NewShuffler = func() Shuffler {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &Service{
		db:       db,
		scores:   scores,
		cfg:      cfg,
		tasks:    NewTaskRegistry(cfg.Scheduler),
		runtimes: make(map[string]*Runtime),
		byPlayer: make(map[string]string),
	}
}

type StartParams struct {
	PlayerID   string
	PlayerName string
	Pairs      int
	Difficulty Difficulty
}

// StartGame creates and starts a session, tearing down the player's previous
// one.
func (s *Service) StartGame(ctx context.Context, p StartParams) (*Runtime, error) {
	if p.PlayerID == "" {
		return nil, appErr.ErrUnauthorized
	}

	rt, err := newRuntime(runtimeParams{
		Options: Options{
			ID:           uuid.NewString(),
			Pairs:        p.Pairs,
			Difficulty:   p.Difficulty,
			Timings:      s.cfg.Timings,
			InitialClues: s.cfg.InitialClues,
			Tasks:        s.tasks,
			Shuffler:     s.cfg.NewShuffler(),
		},
		PlayerID:   p.PlayerID,
		PlayerName: p.PlayerName,
		OnFinish:   s.finishAsync,
	})
	if err != nil {
		return nil, err
	}

	deckJSON, err := json.Marshal(rt.session.Deck())
	if err != nil {
		return nil, err
	}
	record := model.GameLog{
		ID:         rt.ID(),
		PlayerID:   p.PlayerID,
		Pairs:      p.Pairs,
		Difficulty: string(p.Difficulty),
		Status:     statusPlaying,
		DeckJSON:   datatypes.JSON(deckJSON),
		StartedAt:  rt.startedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}

	s.mu.Lock()
	previous := s.detachPlayerLocked(p.PlayerID)
	s.runtimes[rt.ID()] = rt
	s.byPlayer[p.PlayerID] = rt.ID()
	s.mu.Unlock()

	if previous != nil {
		s.abandon(ctx, previous)
	}

	rt.session.Start()
	logger.Log.Info("game started",
		zap.String("sessionID", rt.ID()),
		zap.String("playerID", p.PlayerID),
		zap.Int("pairs", p.Pairs),
		zap.String("difficulty", string(p.Difficulty)),
	)
	return rt, nil
}

func (s *Service) GetRuntime(ctx context.Context, sessionID string) (*Runtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.runtimes[sessionID]
	if !ok {
		return nil, appErr.ErrSessionNotFound
	}
	return rt, nil
}

// Authorize loads the session and checks that playerID owns it.
func (s *Service) Authorize(ctx context.Context, sessionID, playerID string) (*Runtime, error) {
	rt, err := s.GetRuntime(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rt.playerID != playerID {
		return nil, appErr.ErrSessionAccessDenied
	}
	return rt, nil
}

// Restart replaces the session with a fresh one of the same shape.
func (s *Service) Restart(ctx context.Context, sessionID, playerID string) (*Runtime, error) {
	rt, err := s.Authorize(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	snap := rt.Snapshot()
	return s.StartGame(ctx, StartParams{
		PlayerID:   rt.playerID,
		PlayerName: rt.playerName,
		Pairs:      snap.Pairs,
		Difficulty: snap.Difficulty,
	})
}

func (s *Service) EndGame(ctx context.Context, sessionID, playerID string) error {
	rt, err := s.Authorize(ctx, sessionID, playerID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.runtimes, sessionID)
	if s.byPlayer[playerID] == sessionID {
		delete(s.byPlayer, playerID)
	}
	s.mu.Unlock()

	s.abandon(ctx, rt)
	return nil
}

// Shutdown tears down every live session and waits for completed games to
// finish recording.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	live := make([]*Runtime, 0, len(s.runtimes))
	for id, rt := range s.runtimes {
		live = append(live, rt)
		delete(s.runtimes, id)
	}
	s.byPlayer = make(map[string]string)
	s.mu.Unlock()

	for _, rt := range live {
		s.abandon(ctx, rt)
	}
	s.finishing.Wait()
}

// PendingTasks reports the scheduled callbacks still owned by a session.
func (s *Service) PendingTasks(sessionID string) int {
	return s.tasks.Pending(sessionID)
}

func (s *Service) detachPlayerLocked(playerID string) *Runtime {
	prevID, ok := s.byPlayer[playerID]
	if !ok {
		return nil
	}
	prev := s.runtimes[prevID]
	delete(s.runtimes, prevID)
	delete(s.byPlayer, playerID)
	return prev
}

func (s *Service) abandon(ctx context.Context, rt *Runtime) {
	rt.close()

	if rt.session.Result() != nil {
		return
	}
	snap := rt.Snapshot()
	now := time.Now()
	err := s.db.WithContext(ctx).
		Model(&model.GameLog{}).
		Where("id = ? AND status = ?", rt.ID(), statusPlaying).
		Updates(map[string]interface{}{
			"status":   statusAbandoned,
			"moves":    snap.MoveCount,
			"time":     snap.ElapsedSeconds,
			"ended_at": &now,
		}).Error
	if err != nil {
		logger.Log.Warn("failed to mark game abandoned", zap.String("sessionID", rt.ID()), zap.Error(err))
	}
}

// finishAsync is called under the session lock. Closed sessions never
// complete, so no Add happens after Shutdown has closed them all.
func (s *Service) finishAsync(rt *Runtime, res Result) {
	s.finishing.Add(1)
	go func() {
		defer s.finishing.Done()
		s.handleRuntimeFinish(rt, res)
	}()
}

func (s *Service) handleRuntimeFinish(rt *Runtime, res Result) {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	now := time.Now()
	logger.Log.Info("game completed",
		zap.String("sessionID", rt.ID()),
		zap.String("playerID", rt.playerID),
		zap.Int("score", res.Score),
		zap.Int("moves", res.Moves),
		zap.Int("time", res.Seconds),
	)

	updates := map[string]interface{}{
		"status":   statusCompleted,
		"moves":    res.Moves,
		"time":     res.Seconds,
		"score":    res.Score,
		"ended_at": &now,
	}
	if resultJSON, err := json.Marshal(res); err != nil {
		logger.Log.Warn("failed to encode game result", zap.String("sessionID", rt.ID()), zap.Error(err))
	} else {
		updates["result_json"] = datatypes.JSON(resultJSON)
	}
	err := s.db.WithContext(ctx).
		Model(&model.GameLog{}).
		Where("id = ?", rt.ID()).
		Updates(updates).Error
	if err != nil {
		logger.Log.Warn("failed to update game log", zap.String("sessionID", rt.ID()), zap.Error(err))
	}

	if s.scores == nil {
		return
	}
	record := model.Score{
		UserID:     rt.playerID,
		UserName:   rt.playerName,
		Pairs:      res.Pairs,
		Time:       res.Seconds,
		Moves:      res.Moves,
		Score:      res.Score,
		Difficulty: string(res.Difficulty),
		Date:       now.UTC().Format(time.RFC3339),
	}
	if err := s.scores.Record(ctx, record); err != nil {
		logger.Log.Warn("failed to record score", zap.String("sessionID", rt.ID()), zap.Error(err))
	}
}

// History lists a player's most recent games.
func (s *Service) History(ctx context.Context, playerID string, limit int) ([]model.GameLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var logs []model.GameLog
	if err := s.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
