package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"memory-service/internal/model"
	appErr "memory-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisLockTTL      = 5 * time.Second
	redisLockWait     = 3 * time.Second
	redisLockBackoff  = 20 * time.Millisecond
	redisLockMaxPause = 200 * time.Millisecond
)

// releaseLock deletes the lock only while it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisStore struct {
	rdb      *redis.Client
	key      string
	capacity int
}

// NewRedisStore keeps the whole collection as one JSON value under key.
// Writers serialise through a SetNX lock on key+":lock".
func NewRedisStore(rdb *redis.Client, key string, capacity int) Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &redisStore{rdb: rdb, key: key, capacity: capacity}
}

func (s *redisStore) lockKey() string {
	return s.key + ":lock"
}

func (s *redisStore) Scores(ctx context.Context) ([]model.Score, error) {
	data, err := s.rdb.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if err := s.rdb.SetNX(ctx, s.key, "[]", 0).Err(); err != nil {
				return nil, err
			}
			return []model.Score{}, nil
		}
		return nil, err
	}
	scores := []model.Score{}
	if err := json.Unmarshal([]byte(data), &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

func (s *redisStore) Save(ctx context.Context, score model.Score) ([]model.Score, error) {
	token, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(context.WithoutCancel(ctx), token)

	scores, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}
	ranked := Insert(scores, score, s.capacity)

	data, err := json.Marshal(ranked)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return nil, err
	}
	return ranked, nil
}

// acquire waits for the write lock with a capped backoff. It gives up with
// ErrLeaderboardBusy after redisLockWait or when ctx ends.
func (s *redisStore) acquire(ctx context.Context) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(redisLockWait)
	pause := redisLockBackoff

	for {
		ok, err := s.rdb.SetNX(ctx, s.lockKey(), token, redisLockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", appErr.ErrLeaderboardBusy, ctx.Err())
			}
			return "", err
		}
		if ok {
			return token, nil
		}
		if time.Now().Add(pause).After(deadline) {
			return "", appErr.ErrLeaderboardBusy
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%w: %v", appErr.ErrLeaderboardBusy, ctx.Err())
		case <-timer.C:
		}
		pause = min(pause*2, redisLockMaxPause)
	}
}

func (s *redisStore) release(ctx context.Context, token string) error {
	return releaseLock.Run(ctx, s.rdb, []string{s.lockKey()}, token).Err()
}
