package service

import (
	"context"
	"fmt"
	"strings"

	"memory-service/internal/config"
	"memory-service/internal/service/game"
	"memory-service/internal/service/leaderboard"
	"memory-service/internal/service/player"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Game        *game.Service
	Leaderboard *leaderboard.Service
	Player      *player.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (*Container, error) {
	store, err := newScoreStore(db, rdb, cfg.Leaderboard)
	if err != nil {
		return nil, err
	}
	boards := leaderboard.NewService(store, cfg.Leaderboard.Capacity)

	return &Container{
		Game:        game.NewService(db, boards, game.ConfigFrom(cfg.Game)),
		Leaderboard: boards,
		Player:      player.NewService(db),
	}, nil
}

// newScoreStore picks the one leaderboard backend this deployment uses.
func newScoreStore(db *gorm.DB, rdb *redis.Client, cfg config.LeaderboardConfig) (leaderboard.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "db":
		return leaderboard.NewDBStore(db, cfg.Capacity), nil
	case "file":
		return leaderboard.NewFileStore(cfg.FilePath, cfg.Capacity), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("leaderboard backend redis requires a redis client")
		}
		return leaderboard.NewRedisStore(rdb, cfg.RedisKey, cfg.Capacity), nil
	default:
		return nil, fmt.Errorf("unsupported leaderboard backend %q", cfg.Backend)
	}
}

func (c *Container) Start(ctx context.Context) error {
	// Warm the last known-good collection.
	c.Leaderboard.All(ctx)
	return nil
}

func (c *Container) Stop(ctx context.Context) {
	c.Game.Shutdown(ctx)
}
