package badger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/finagent-ir/finagent/internal/interfaces"
	"github.com/finagent-ir/finagent/internal/models"
)

// ErrCheckpointNotFound is returned when no checkpoint exists for a thread.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// CheckpointStorage implements the CheckpointStorage interface for Badger
type CheckpointStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCheckpointStorage creates a new CheckpointStorage instance
func NewCheckpointStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CheckpointStorage {
	return &CheckpointStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CheckpointStorage) SaveCheckpoint(cp *models.Checkpoint) error {
	if cp.ThreadID == "" {
		return fmt.Errorf("checkpoint thread ID is required")
	}
	cp.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(cp.ThreadID, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", cp.ThreadID, err)
	}
	return nil
}

func (s *CheckpointStorage) GetCheckpoint(threadID string) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	if err := s.db.Store().Get(threadID, &cp); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to get checkpoint %s: %w", threadID, err)
	}
	return &cp, nil
}

func (s *CheckpointStorage) DeleteCheckpoint(threadID string) error {
	err := s.db.Store().Delete(threadID, &models.Checkpoint{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete checkpoint %s: %w", threadID, err)
	}
	return nil
}
