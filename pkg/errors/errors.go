package errors

import "errors"

// Game configuration
var (
	ErrInvalidConfiguration = errors.New("invalid game configuration")
	ErrInvalidDifficulty    = errors.New("invalid difficulty")
)

// Match engine
var (
	ErrCheckingInProgress = errors.New("match check in progress")
	ErrCardMatched        = errors.New("card already matched")
	ErrCardAlreadyFlipped = errors.New("card already flipped")
	ErrSlotOutOfRange     = errors.New("slot out of range")
	ErrGameCompleted      = errors.New("game already completed")
	ErrSessionClosed      = errors.New("session closed")
	ErrClueUnavailable    = errors.New("clue unavailable")
)

// Sessions & players
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionAccessDenied = errors.New("session access denied")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrUnauthorized        = errors.New("unauthorized")
)

// Leaderboard
var (
	ErrInvalidScore           = errors.New("invalid score record")
	ErrPersistenceUnavailable = errors.New("leaderboard temporarily unavailable")
	ErrLeaderboardBusy        = errors.New("leaderboard is being updated")
)
