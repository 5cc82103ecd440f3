package game

import "math"

// CalculateScore maps a finished game to its leaderboard score.
// Non-positive seconds or moves count as 1, the best that term can be.
func CalculateScore(pairs, seconds, moves int, difficulty Difficulty) int {
	multiplier := difficulty.Multiplier()
	if pairs <= 0 || multiplier == 0 {
		return 0
	}
	if moves <= 0 {
		moves = 1
	}
	if seconds <= 0 {
		seconds = 1
	}

	perfectMoves := float64(pairs * 2)
	expectedTime := perfectMoves * 2

	moveScore := math.Max(0, 1000*perfectMoves/float64(moves))
	timeScore := math.Max(0, 1000*expectedTime/float64(seconds))
	pairBonus := float64(pairs * 100)

	return int(math.Round((moveScore + timeScore + pairBonus) * float64(multiplier)))
}

type Performance string

const (
	PerformanceExcellent  Performance = "excellent"
	PerformanceGreat      Performance = "great"
	PerformanceGood       Performance = "good"
	PerformanceKeepTrying Performance = "keepTrying"
)

// ClassifyPerformance averages moves/perfectMoves and seconds/expectedTime;
// lower is better. It does not affect the stored score.
func ClassifyPerformance(pairs, seconds, moves int) Performance {
	if pairs <= 0 {
		return PerformanceKeepTrying
	}
	perfectMoves := float64(pairs * 2)
	expectedTime := perfectMoves * 2

	ratio := (float64(moves)/perfectMoves + float64(seconds)/expectedTime) / 2
	switch {
	case ratio <= 1.2:
		return PerformanceExcellent
	case ratio <= 1.5:
		return PerformanceGreat
	case ratio <= 2.0:
		return PerformanceGood
	default:
		return PerformanceKeepTrying
	}
}

type Feedback struct {
	Performance Performance `json:"performance"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
}

func FeedbackFor(p Performance) Feedback {
	switch p {
	case PerformanceExcellent:
		return Feedback{Performance: p, Title: "Outstanding!", Message: "Your memory is absolutely incredible!"}
	case PerformanceGreat:
		return Feedback{Performance: p, Title: "Amazing Work!", Message: "You have a fantastic memory!"}
	case PerformanceGood:
		return Feedback{Performance: p, Title: "Well Done!", Message: "You completed the challenge successfully!"}
	default:
		return Feedback{Performance: PerformanceKeepTrying, Title: "Good Effort!", Message: "Practice makes perfect - keep going!"}
	}
}
