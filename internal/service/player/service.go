package player

import (
	"context"
	"errors"
	"strings"
	"time"

	"memory-service/internal/model"
	pkgAuth "memory-service/pkg/auth"
	appErr "memory-service/pkg/errors"
	"memory-service/pkg/logger"
	"memory-service/pkg/utils/random"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	idLength      = 7
	maxNameLength = 32
)

type Service struct {
	db *gorm.DB
}

type RegisterResult struct {
	Token    string       `json:"token"`
	ExpireAt time.Time    `json:"expireAt"`
	Player   model.Player `json:"player"`
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register creates a player. A blank name is replaced with a random
// character name.
func (s *Service) Register(ctx context.Context, name string) (*RegisterResult, error) {
	name = strings.TrimSpace(name)
	anonymous := name == ""
	if anonymous {
		name = GenerateName()
	}
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}

	player := model.Player{
		ID:        random.Base36(idLength),
		Name:      name,
		Anonymous: anonymous,
	}
	if err := s.db.WithContext(ctx).Create(&player).Error; err != nil {
		return nil, err
	}

	token, expireAt, err := pkgAuth.GeneratePlayerToken(player.ID, player.Name)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("player registered",
		zap.String("playerID", player.ID),
		zap.Bool("anonymous", anonymous),
	)
	return &RegisterResult{
		Token:    token,
		ExpireAt: expireAt,
		Player:   player,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Player, error) {
	var player model.Player
	if err := s.db.WithContext(ctx).First(&player, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrPlayerNotFound
		}
		return nil, err
	}
	return &player, nil
}

// GenerateName picks a random character name.
func GenerateName() string {
	return random.Pick(characterNames)
}
