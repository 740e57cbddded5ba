package badger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/finagent-ir/finagent/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func TestAssetUpsertReplacesDocument(t *testing.T) {
	db := newTestDB(t)
	storage := NewAssetStorage(db, arbor.NewLogger())

	doc := &models.AssetDocument{
		AssetID:          "12345",
		Symbol:           "فولاد",
		TradeSymbol:      "فولاد",
		Name:             "فولاد مبارکه اصفهان",
		AnalysisDatetime: time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC),
		CurrentPrice:     5400,
		News:             []models.NewsItem{{ID: "n1", Title: "first", Date: "1404/05/29"}},
	}
	require.NoError(t, storage.UpsertAsset(doc))
	assert.Equal(t, "فولاد_12345", doc.ID)

	// Second upsert with the same key replaces the whole document.
	updated := &models.AssetDocument{
		AssetID:          "12345",
		TradeSymbol:      "فولاد",
		AnalysisDatetime: time.Date(2025, 8, 21, 10, 0, 0, 0, time.UTC),
		CurrentPrice:     5600,
	}
	require.NoError(t, storage.UpsertAsset(updated))

	got, err := storage.GetAsset("فولاد_12345")
	require.NoError(t, err)
	assert.Equal(t, 5600, got.CurrentPrice)
	assert.Empty(t, got.News, "replaced document must not retain old fields")
	assert.True(t, got.AnalysisDatetime.After(doc.AnalysisDatetime))
}

func TestAssetGetBySymbolReturnsNewest(t *testing.T) {
	db := newTestDB(t)
	storage := NewAssetStorage(db, arbor.NewLogger())

	older := &models.AssetDocument{
		AssetID: "1", TradeSymbol: "خودرو",
		AnalysisDatetime: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &models.AssetDocument{
		AssetID: "2", TradeSymbol: "خودرو",
		AnalysisDatetime: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, storage.UpsertAsset(older))
	require.NoError(t, storage.UpsertAsset(newer))

	got, err := storage.GetAssetBySymbol("خودرو")
	require.NoError(t, err)
	assert.Equal(t, "خودرو_2", got.ID)
}

func TestAssetNotFound(t *testing.T) {
	db := newTestDB(t)
	storage := NewAssetStorage(db, arbor.NewLogger())

	_, err := storage.GetAsset("missing")
	assert.ErrorIs(t, err, ErrAssetNotFound)

	_, err = storage.GetAssetBySymbol("missing")
	assert.ErrorIs(t, err, ErrAssetNotFound)

	assert.NoError(t, storage.DeleteAsset("missing"))
}

func TestCheckpointRoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewCheckpointStorage(db, arbor.NewLogger())

	cp := &models.Checkpoint{
		ThreadID:  "thread-1",
		State:     []byte(`{"symbol":"فولاد"}`),
		Next:      []string{"data_preparation"},
		Interrupt: "user_input",
		Step:      3,
	}
	require.NoError(t, storage.SaveCheckpoint(cp))

	got, err := storage.GetCheckpoint("thread-1")
	require.NoError(t, err)
	assert.Equal(t, cp.State, got.State)
	assert.Equal(t, cp.Next, got.Next)
	assert.Equal(t, "user_input", got.Interrupt)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, storage.DeleteCheckpoint("thread-1"))
	_, err = storage.GetCheckpoint("thread-1")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}
