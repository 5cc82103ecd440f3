package leaderboard

import (
	"context"

	"memory-service/internal/model"

	"gorm.io/gorm"
)

// Store is the persisted score collection. Save merges one record, re-ranks,
// truncates to capacity and returns the updated collection.
type Store interface {
	Scores(ctx context.Context) ([]model.Score, error)
	Save(ctx context.Context, score model.Score) ([]model.Score, error)
}

type dbStore struct {
	db       *gorm.DB
	capacity int
}

// NewDBStore keeps the collection in the scores table.
func NewDBStore(db *gorm.DB, capacity int) Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &dbStore{db: db, capacity: capacity}
}

func (s *dbStore) Scores(ctx context.Context) ([]model.Score, error) {
	var scores []model.Score
	if err := s.db.WithContext(ctx).
		Order("score DESC").
		Order("time ASC").
		Order("id ASC").
		Limit(s.capacity).
		Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (s *dbStore) Save(ctx context.Context, score model.Score) ([]model.Score, error) {
	var ranked []model.Score
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		score.ID = 0
		if err := tx.Create(&score).Error; err != nil {
			return err
		}

		if err := tx.Order("score DESC").
			Order("time ASC").
			Order("id ASC").
			Find(&ranked).Error; err != nil {
			return err
		}
		if len(ranked) <= s.capacity {
			return nil
		}

		evicted := make([]int64, 0, len(ranked)-s.capacity)
		for _, row := range ranked[s.capacity:] {
			evicted = append(evicted, row.ID)
		}
		if err := tx.Where("id IN ?", evicted).Delete(&model.Score{}).Error; err != nil {
			return err
		}
		ranked = ranked[:s.capacity]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ranked, nil
}
