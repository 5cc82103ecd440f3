package leaderboard

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"memory-service/internal/model"
)

// DefaultCapacity is how many records survive each insertion.
const DefaultCapacity = 100

// Rank orders by score descending, then time ascending. The sort is stable,
// so ranking an already ranked collection keeps its order.
func Rank(scores []model.Score) []model.Score {
	out := make([]model.Score, len(scores))
	copy(out, scores)
	slices.SortStableFunc(out, compareRank)
	return out
}

func compareRank(a, b model.Score) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.Time, b.Time)
}

// Insert merges record into scores and keeps the top capacity by rank.
func Insert(scores []model.Score, record model.Score, capacity int) []model.Score {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	merged := make([]model.Score, 0, len(scores)+1)
	merged = append(merged, scores...)
	merged = append(merged, record)

	ranked := Rank(merged)
	if len(ranked) > capacity {
		ranked = ranked[:capacity]
	}
	return ranked
}

// ByDate orders most recent first. Records with unparseable dates sink to the
// bottom. Display only; storage is always score-ranked.
func ByDate(scores []model.Score) []model.Score {
	out := make([]model.Score, len(scores))
	copy(out, scores)
	slices.SortStableFunc(out, func(a, b model.Score) int {
		return parseDate(b.Date).Compare(parseDate(a.Date))
	})
	return out
}

// FilterDifficulty keeps the records of one difficulty; "" and "all" keep
// everything.
func FilterDifficulty(scores []model.Score, difficulty string) []model.Score {
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if difficulty == "" || difficulty == "all" {
		return scores
	}
	out := make([]model.Score, 0, len(scores))
	for _, s := range scores {
		if s.Difficulty == difficulty {
			out = append(out, s)
		}
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}
