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

// ErrAssetNotFound is returned when no document exists for the requested key
// or symbol.
var ErrAssetNotFound = errors.New("asset not found")

// AssetStorage implements the AssetStorage interface for Badger
type AssetStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAssetStorage creates a new AssetStorage instance
func NewAssetStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AssetStorage {
	return &AssetStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertAsset replaces the stored document for its ID. The ID is derived from
// trade symbol and asset id when unset.
func (s *AssetStorage) UpsertAsset(doc *models.AssetDocument) error {
	if doc.ID == "" {
		if doc.TradeSymbol == "" || doc.AssetID == "" {
			return fmt.Errorf("asset document requires trade symbol and asset id")
		}
		doc.ID = models.DocumentID(doc.TradeSymbol, doc.AssetID)
	}
	if doc.AnalysisDatetime.IsZero() {
		doc.AnalysisDatetime = time.Now()
	}

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to upsert asset %s: %w", doc.ID, err)
	}

	s.logger.Debug().Str("id", doc.ID).Msg("Asset document upserted")
	return nil
}

func (s *AssetStorage) GetAsset(id string) (*models.AssetDocument, error) {
	var doc models.AssetDocument
	if err := s.db.Store().Get(id, &doc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset %s: %w", id, err)
	}
	return &doc, nil
}

// GetAssetBySymbol returns the newest document matching the trade symbol.
func (s *AssetStorage) GetAssetBySymbol(symbol string) (*models.AssetDocument, error) {
	var docs []models.AssetDocument
	err := s.db.Store().Find(&docs, badgerhold.Where("TradeSymbol").Eq(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to find asset for symbol %s: %w", symbol, err)
	}
	if len(docs) == 0 {
		return nil, ErrAssetNotFound
	}

	latest := &docs[0]
	for i := range docs[1:] {
		if docs[i+1].AnalysisDatetime.After(latest.AnalysisDatetime) {
			latest = &docs[i+1]
		}
	}
	return latest, nil
}

func (s *AssetStorage) ListAssets() ([]*models.AssetDocument, error) {
	var docs []models.AssetDocument
	if err := s.db.Store().Find(&docs, nil); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	result := make([]*models.AssetDocument, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *AssetStorage) DeleteAsset(id string) error {
	err := s.db.Store().Delete(id, &models.AssetDocument{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete asset %s: %w", id, err)
	}
	return nil
}
