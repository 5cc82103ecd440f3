package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"memory-service/internal/model"
	"memory-service/internal/service/game"
	appErr "memory-service/pkg/errors"
	"memory-service/pkg/logger"

	"go.uber.org/zap"
)

const (
	SortByScore = "score"
	SortByDate  = "date"
)

type ListOptions struct {
	Sort       string
	Difficulty string
	Limit      int
}

// Board is a view of the collection. Stale is set when the store could not
// be reached and the last known-good collection was served instead.
type Board struct {
	Scores []model.Score `json:"scores"`
	Stale  bool          `json:"stale"`
}

type Service struct {
	store    Store
	capacity int

	mu        sync.RWMutex
	lastKnown []model.Score
}

func NewService(store Store, capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Service{
		store:     store,
		capacity:  capacity,
		lastKnown: []model.Score{},
	}
}

// All returns the score-ranked collection, falling back to the cache.
func (s *Service) All(ctx context.Context) *Board {
	scores, err := s.store.Scores(ctx)
	if err != nil {
		logger.Log.Warn("leaderboard read failed, serving cached scores",
			zap.Error(fmt.Errorf("%w: %v", appErr.ErrPersistenceUnavailable, err)),
		)
		return &Board{Scores: s.cached(), Stale: true}
	}
	ranked := Rank(scores)
	s.remember(ranked)
	return &Board{Scores: ranked}
}

func (s *Service) List(ctx context.Context, opts ListOptions) *Board {
	board := s.All(ctx)
	scores := FilterDifficulty(board.Scores, opts.Difficulty)
	if strings.EqualFold(opts.Sort, SortByDate) {
		scores = ByDate(scores)
	}
	if opts.Limit > 0 && len(scores) > opts.Limit {
		scores = scores[:opts.Limit]
	}
	return &Board{Scores: scores, Stale: board.Stale}
}

// Submit validates and stores record. A store outage is not returned: the
// record is merged into the cached collection and the board comes back stale.
// ErrLeaderboardBusy is returned so the caller can resubmit.
func (s *Service) Submit(ctx context.Context, record model.Score) (*Board, error) {
	record, err := normalize(record)
	if err != nil {
		return nil, err
	}

	scores, err := s.store.Save(ctx, record)
	if errors.Is(err, appErr.ErrLeaderboardBusy) {
		logger.Log.Warn("leaderboard write lock contended",
			zap.String("userID", record.UserID),
			zap.Int("score", record.Score),
			zap.Error(err),
		)
		return nil, err
	}
	if err != nil {
		logger.Log.Warn("leaderboard write failed, keeping score in memory",
			zap.String("userID", record.UserID),
			zap.Int("score", record.Score),
			zap.Error(fmt.Errorf("%w: %v", appErr.ErrPersistenceUnavailable, err)),
		)
		s.mu.Lock()
		s.lastKnown = Insert(s.lastKnown, record, s.capacity)
		cached := append([]model.Score{}, s.lastKnown...)
		s.mu.Unlock()
		return &Board{Scores: cached, Stale: true}, nil
	}

	ranked := Rank(scores)
	s.remember(ranked)
	logger.Log.Info("score recorded",
		zap.String("userID", record.UserID),
		zap.Int("score", record.Score),
		zap.String("difficulty", record.Difficulty),
	)
	return &Board{Scores: ranked}, nil
}

// Record satisfies game.ScoreRecorder.
func (s *Service) Record(ctx context.Context, record model.Score) error {
	_, err := s.Submit(ctx, record)
	return err
}

func (s *Service) remember(scores []model.Score) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKnown = append([]model.Score{}, scores...)
}

func (s *Service) cached() []model.Score {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Score{}, s.lastKnown...)
}

func normalize(record model.Score) (model.Score, error) {
	difficulty, err := game.ParseDifficulty(record.Difficulty)
	if err != nil {
		return record, fmt.Errorf("%w: %v", appErr.ErrInvalidScore, err)
	}
	if record.Pairs <= 0 || record.Pairs > game.MaxPairs() {
		return record, fmt.Errorf("%w: pairs out of range", appErr.ErrInvalidScore)
	}
	if record.Time < 0 || record.Moves < 0 || record.Score < 0 {
		return record, fmt.Errorf("%w: negative values", appErr.ErrInvalidScore)
	}

	record.ID = 0
	record.Difficulty = string(difficulty)
	record.UserID = strings.TrimSpace(record.UserID)
	if record.UserID == "" {
		record.UserID = "anonymous"
	}
	record.UserName = strings.TrimSpace(record.UserName)
	if record.UserName == "" {
		record.UserName = "Anonymous"
	}
	if strings.TrimSpace(record.Date) == "" {
		record.Date = time.Now().UTC().Format(time.RFC3339)
	}
	return record, nil
}
