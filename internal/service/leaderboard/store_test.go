package leaderboard_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"memory-service/internal/model"
	"memory-service/internal/service/leaderboard"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Score{}); err != nil {
		t.Fatalf("failed to migrate score model: %v", err)
	}
	return db
}

func TestFileStoreInitialisesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.json")
	store := leaderboard.NewFileStore(path, 10)

	scores, err := store.Scores(context.Background())
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected empty collection, got %d", len(scores))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file was not created: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected [] on disk, got %q", data)
	}
}

func TestFileStoreSaveRanksAndTruncates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.json")
	store := leaderboard.NewFileStore(path, 2)

	for _, score := range []int{100, 300, 200} {
		if _, err := store.Save(ctx, model.Score{UserID: "u", Score: score, Difficulty: "easy"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	reopened := leaderboard.NewFileStore(path, 2)
	scores, err := reopened.Scores(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(scores) != 2 || scores[0].Score != 300 || scores[1].Score != 200 {
		t.Fatalf("unexpected stored scores: %+v", scores)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind")
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := leaderboard.NewFileStore(path, 10).Scores(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDBStoreEvictsBeyondCapacity(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	store := leaderboard.NewDBStore(db, 3)

	for i, score := range []int{400, 100, 300, 200, 500} {
		if _, err := store.Save(ctx, model.Score{UserID: fmt.Sprintf("u%d", i), Score: score, Time: 10}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	var count int64
	if err := db.Model(&model.Score{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows after eviction, got %d", count)
	}

	scores, err := store.Scores(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := []int{500, 400, 300}
	for i, score := range want {
		if scores[i].Score != score {
			t.Fatalf("position %d: expected %d, got %d", i, score, scores[i].Score)
		}
	}
}

func TestDBStoreBreaksTiesByTime(t *testing.T) {
	ctx := context.Background()
	store := leaderboard.NewDBStore(newDB(t), 10)

	if _, err := store.Save(ctx, model.Score{UserName: "slow", Score: 100, Time: 50}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	ranked, err := store.Save(ctx, model.Score{UserName: "fast", Score: 100, Time: 20})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if ranked[0].UserName != "fast" {
		t.Fatalf("expected faster record first, got %+v", ranked)
	}
}
