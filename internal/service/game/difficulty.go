package game

import (
	"fmt"
	"strings"

	appErr "memory-service/pkg/errors"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyConfig describes a difficulty preset. Pairs are the menu presets;
// any pair count the icon set supports is playable at every difficulty.
type DifficultyConfig struct {
	Difficulty      Difficulty `json:"difficulty"`
	Label           string     `json:"label"`
	Pairs           []int      `json:"pairs"`
	ShuffleCards    bool       `json:"shuffleCards"`
	ScoreMultiplier int        `json:"scoreMultiplier"`
	TimeBonus       int        `json:"timeBonus"`
}

var difficultyConfigs = []DifficultyConfig{
	{Difficulty: DifficultyEasy, Label: "Easy", Pairs: []int{3, 4, 6, 8}, ScoreMultiplier: 1, TimeBonus: 30},
	{Difficulty: DifficultyMedium, Label: "Medium", Pairs: []int{9, 10, 11, 12}, ScoreMultiplier: 2, TimeBonus: 20},
	{Difficulty: DifficultyHard, Label: "Hard", Pairs: []int{13, 14, 15, 16}, ShuffleCards: true, ScoreMultiplier: 3, TimeBonus: 10},
}

// Difficulties returns the presets in menu order.
func Difficulties() []DifficultyConfig {
	out := make([]DifficultyConfig, len(difficultyConfigs))
	for i, cfg := range difficultyConfigs {
		cfg.Pairs = append([]int(nil), cfg.Pairs...)
		out[i] = cfg
	}
	return out
}

func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", appErr.ErrInvalidDifficulty, raw)
	}
	return d, nil
}

func (d Difficulty) Valid() bool {
	_, ok := d.config()
	return ok
}

// Multiplier is 0 for unknown difficulties.
func (d Difficulty) Multiplier() int {
	cfg, _ := d.config()
	return cfg.ScoreMultiplier
}

func (d Difficulty) ShufflesCards() bool {
	cfg, _ := d.config()
	return cfg.ShuffleCards
}

func (d Difficulty) config() (DifficultyConfig, bool) {
	for _, cfg := range difficultyConfigs {
		if cfg.Difficulty == d {
			return cfg, true
		}
	}
	return DifficultyConfig{}, false
}
