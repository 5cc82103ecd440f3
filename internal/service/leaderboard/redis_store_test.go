package leaderboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"memory-service/internal/model"
	"memory-service/internal/service/leaderboard"
	appErr "memory-service/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testBoardKey = "lb"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisStoreSeedsEmptyCollection(t *testing.T) {
	mr, rdb := newRedis(t)
	store := leaderboard.NewRedisStore(rdb, testBoardKey, 10)

	scores, err := store.Scores(context.Background())
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected empty collection, got %d", len(scores))
	}
	got, err := mr.Get(testBoardKey)
	if err != nil || got != "[]" {
		t.Fatalf("expected [] stored, got %q (%v)", got, err)
	}
}

func TestRedisStoreSaveRanksAndTruncates(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	store := leaderboard.NewRedisStore(rdb, testBoardKey, 2)

	for _, score := range []int{100, 300, 200} {
		if _, err := store.Save(ctx, model.Score{UserID: "u", Score: score, Difficulty: "easy"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	scores, err := leaderboard.NewRedisStore(rdb, testBoardKey, 2).Scores(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(scores) != 2 || scores[0].Score != 300 || scores[1].Score != 200 {
		t.Fatalf("unexpected stored scores: %+v", scores)
	}
	if mr.Exists(testBoardKey + ":lock") {
		t.Fatalf("write lock left behind")
	}
}

func TestRedisStoreWaitsForLock(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	store := leaderboard.NewRedisStore(rdb, testBoardKey, 10)
	svc := leaderboard.NewService(store, 10)

	if err := mr.Set(testBoardKey+":lock", "other-writer"); err != nil {
		t.Fatalf("seed lock failed: %v", err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		mr.Del(testBoardKey + ":lock")
	}()

	board, err := svc.Submit(ctx, model.Score{UserID: "p1", Pairs: 3, Time: 6, Moves: 6, Score: 3300, Difficulty: "easy"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if board.Stale {
		t.Fatalf("a contended lock must not degrade to the cached board")
	}

	scores, err := store.Scores(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 3300 {
		t.Fatalf("score not persisted: %+v", scores)
	}
}

func TestRedisStoreBusyIsReported(t *testing.T) {
	mr, rdb := newRedis(t)
	store := leaderboard.NewRedisStore(rdb, testBoardKey, 10)
	svc := leaderboard.NewService(store, 10)

	if err := mr.Set(testBoardKey+":lock", "other-writer"); err != nil {
		t.Fatalf("seed lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err := svc.Submit(ctx, model.Score{UserID: "p1", Pairs: 3, Score: 100, Difficulty: "easy"})
	if !errors.Is(err, appErr.ErrLeaderboardBusy) {
		t.Fatalf("expected ErrLeaderboardBusy, got %v", err)
	}

	got, err := mr.Get(testBoardKey + ":lock")
	if err != nil || got != "other-writer" {
		t.Fatalf("another writer's lock must survive, got %q (%v)", got, err)
	}
}

func TestRedisStoreKeepsLockTakenByAnotherWriter(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	store := leaderboard.NewRedisStore(rdb, testBoardKey, 10)

	// Our lock expires mid-write and another writer takes it over.
	hook := &takeoverHook{mr: mr, lockKey: testBoardKey + ":lock"}
	rdb.AddHook(hook)

	if _, err := store.Save(ctx, model.Score{UserID: "p1", Score: 100, Difficulty: "easy"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := mr.Get(testBoardKey + ":lock")
	if err != nil || got != "other-writer" {
		t.Fatalf("expected the other writer's lock to remain, got %q (%v)", got, err)
	}
}

// takeoverHook replaces the lock value right after the collection is written.
type takeoverHook struct {
	mr      *miniredis.Miniredis
	lockKey string
}

func (h *takeoverHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *takeoverHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if cmd.Name() == "set" && len(cmd.Args()) == 3 {
			h.mr.Set(h.lockKey, "other-writer")
		}
		return err
	}
}

func (h *takeoverHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}
