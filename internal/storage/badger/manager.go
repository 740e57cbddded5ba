package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	asset      interfaces.AssetStorage
	checkpoint interfaces.CheckpointStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		asset:      NewAssetStorage(db, logger),
		checkpoint: NewCheckpointStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// AssetStorage returns the Asset storage interface
func (m *Manager) AssetStorage() interfaces.AssetStorage {
	return m.asset
}

// CheckpointStorage returns the Checkpoint storage interface
func (m *Manager) CheckpointStorage() interfaces.CheckpointStorage {
	return m.checkpoint
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
