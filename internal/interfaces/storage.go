// Package interfaces defines the service contracts shared across packages.
package interfaces

import (
	"github.com/finagent-ir/finagent/internal/models"
)

// AssetStorage persists the per-symbol analysis documents.
type AssetStorage interface {
	// UpsertAsset replaces the whole document for its ID.
	UpsertAsset(doc *models.AssetDocument) error

	// GetAsset returns the document by its canonical key, or
	// ErrAssetNotFound.
	GetAsset(id string) (*models.AssetDocument, error)

	// GetAssetBySymbol returns the most recently analyzed document whose
	// trade symbol matches, or ErrAssetNotFound.
	GetAssetBySymbol(symbol string) (*models.AssetDocument, error)

	// ListAssets returns all stored documents.
	ListAssets() ([]*models.AssetDocument, error)

	// DeleteAsset removes a document by key. Missing keys are not an error.
	DeleteAsset(id string) error
}

// CheckpointStorage persists workflow state snapshots keyed by thread ID.
type CheckpointStorage interface {
	SaveCheckpoint(cp *models.Checkpoint) error
	GetCheckpoint(threadID string) (*models.Checkpoint, error)
	DeleteCheckpoint(threadID string) error
}

// StorageManager aggregates the storage services over one database handle.
type StorageManager interface {
	AssetStorage() AssetStorage
	CheckpointStorage() CheckpointStorage
	Close() error
}
