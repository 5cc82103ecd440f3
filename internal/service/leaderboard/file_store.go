package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"memory-service/internal/model"
)

type fileStore struct {
	mu       sync.Mutex
	path     string
	capacity int
}

// NewFileStore keeps the collection as a JSON array at path. The file and its
// directory are created holding "[]" on first access.
func NewFileStore(path string, capacity int) Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &fileStore{path: path, capacity: capacity}
}

func (s *fileStore) Scores(ctx context.Context) ([]model.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *fileStore) Save(ctx context.Context, score model.Score) ([]model.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	ranked := Insert(scores, score, s.capacity)
	if err := s.writeLocked(ranked); err != nil {
		return nil, err
	}
	return ranked, nil
}

func (s *fileStore) readLocked() ([]model.Score, error) {
	if err := s.ensureLocked(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	scores := []model.Score{}
	if len(data) == 0 {
		return scores, nil
	}
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

func (s *fileStore) ensureLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(s.path, []byte("[]"), 0o644)
}

// writeLocked replaces the file atomically via rename.
func (s *fileStore) writeLocked(scores []model.Score) error {
	data, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
