package model

import (
	"time"

	"gorm.io/datatypes"
)

type Player struct {
	ID        string    `gorm:"primaryKey;size:16" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Anonymous bool      `json:"anonymous"` // name was generated
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Score is one leaderboard record. The JSON shape is the public leaderboard
// contract; the row id is storage detail.
type Score struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID     string `gorm:"index;size:64" json:"userId"`
	UserName   string `json:"userName"`
	Pairs      int    `json:"pairs"`
	Time       int    `json:"time"` // seconds
	Moves      int    `json:"moves"`
	Score      int    `gorm:"index" json:"score"`
	Difficulty string `gorm:"size:16" json:"difficulty"` // easy/medium/hard
	Date       string `json:"date"`
}

type GameLog struct {
	ID         string `gorm:"primaryKey;size:36"`
	PlayerID   string `gorm:"index;size:16"`
	Pairs      int
	Difficulty string `gorm:"size:16"`
	Status     string `gorm:"default:playing;not null"` // playing/completed/abandoned
	Moves      int
	Time       int
	Score      int
	DeckJSON   datatypes.JSON
	ResultJSON datatypes.JSON
	StartedAt  time.Time
	EndedAt    *time.Time
}
