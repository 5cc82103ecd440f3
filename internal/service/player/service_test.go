package player_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"memory-service/internal/config"
	"memory-service/internal/model"
	"memory-service/internal/service/player"
	pkgAuth "memory-service/pkg/auth"
	appErr "memory-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newPlayerService(t *testing.T) (*gorm.DB, *player.Service) {
	t.Helper()

	config.GlobalConfig = config.Default()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Player{}); err != nil {
		t.Fatalf("failed to migrate player model: %v", err)
	}
	return db, player.NewService(db)
}

func TestRegisterNamedPlayer(t *testing.T) {
	ctx := context.Background()
	_, svc := newPlayerService(t)

	res, err := svc.Register(ctx, "  Ada  ")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if res.Player.Name != "Ada" || res.Player.Anonymous {
		t.Fatalf("unexpected player: %+v", res.Player)
	}
	if len(res.Player.ID) != 7 {
		t.Fatalf("expected 7 character id, got %q", res.Player.ID)
	}

	claims, err := pkgAuth.ParsePlayerToken(res.Token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.SubjectID != res.Player.ID || claims.Name != "Ada" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterBlankNameGetsCharacterName(t *testing.T) {
	ctx := context.Background()
	_, svc := newPlayerService(t)

	res, err := svc.Register(ctx, "   ")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !res.Player.Anonymous {
		t.Fatalf("expected anonymous player")
	}
	if !slices.Contains(player.CharacterNames(), res.Player.Name) {
		t.Fatalf("generated name %q is not a character name", res.Player.Name)
	}
}

func TestRegisterTruncatesLongNames(t *testing.T) {
	ctx := context.Background()
	_, svc := newPlayerService(t)

	res, err := svc.Register(ctx, strings.Repeat("é", 40))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if n := len([]rune(res.Player.Name)); n != 32 {
		t.Fatalf("expected 32 runes, got %d", n)
	}
}

func TestGetPlayer(t *testing.T) {
	ctx := context.Background()
	_, svc := newPlayerService(t)

	res, err := svc.Register(ctx, "Remy")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	got, err := svc.Get(ctx, res.Player.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "Remy" {
		t.Fatalf("unexpected player: %+v", got)
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, appErr.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}
