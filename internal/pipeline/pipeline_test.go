package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/jalali"
	"github.com/finagent-ir/finagent/internal/models"
	storagebadger "github.com/finagent-ir/finagent/internal/storage/badger"
)

type fakeStore struct {
	docs map[string]*models.AssetDocument
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]*models.AssetDocument{}}
}

func (s *fakeStore) UpsertAsset(doc *models.AssetDocument) error {
	if doc.ID == "" {
		doc.ID = models.DocumentID(doc.TradeSymbol, doc.AssetID)
	}
	clone := *doc
	s.docs[doc.ID] = &clone
	return nil
}

func (s *fakeStore) GetAsset(id string) (*models.AssetDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, storagebadger.ErrAssetNotFound
	}
	return doc, nil
}

func (s *fakeStore) GetAssetBySymbol(symbol string) (*models.AssetDocument, error) {
	var newest *models.AssetDocument
	for _, doc := range s.docs {
		if doc.TradeSymbol != symbol && doc.Symbol != symbol {
			continue
		}
		if newest == nil || doc.AnalysisDatetime.After(newest.AnalysisDatetime) {
			newest = doc
		}
	}
	if newest == nil {
		return nil, storagebadger.ErrAssetNotFound
	}
	return newest, nil
}

func (s *fakeStore) ListAssets() ([]*models.AssetDocument, error) {
	var out []*models.AssetDocument
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (s *fakeStore) DeleteAsset(id string) error {
	delete(s.docs, id)
	return nil
}

type fakeMarket struct {
	bars       []models.OHLCVBar
	detailsErr error
}

func (m *fakeMarket) ResolveSymbol(ctx context.Context, symbol string) (*models.SymbolInfo, error) {
	if symbol == "ناشناس" {
		return nil, errors.New("no equity found")
	}
	return &models.SymbolInfo{AssetID: "1", TradeSymbol: symbol, Name: symbol + " company"}, nil
}

func (m *fakeMarket) GetHistory(ctx context.Context, assetID string, count int) ([]models.OHLCVBar, error) {
	return m.bars, nil
}

func (m *fakeMarket) GetDetails(ctx context.Context, assetID string) (map[string]any, error) {
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}
	return map[string]any{"pe": 6.5}, nil
}

func (m *fakeMarket) GetPivots(ctx context.Context, assetID string) ([]models.PivotLevel, error) {
	return nil, nil
}

func (m *fakeMarket) GetTradeTape(ctx context.Context, assetID string, count int) ([]models.TradeTapeRow, error) {
	return nil, nil
}

func (m *fakeMarket) GetNews(ctx context.Context, assetID string) ([]models.NewsItem, error) {
	return nil, nil
}

func (m *fakeMarket) GetBalanceSheets(ctx context.Context, assetID string) (models.FinancialTable, error) {
	return models.FinancialTable{}, nil
}

func (m *fakeMarket) GetProfitLoss(ctx context.Context, assetID string) (models.FinancialTable, error) {
	return models.FinancialTable{}, nil
}

func (m *fakeMarket) GetCashFlow(ctx context.Context, assetID string) (models.FinancialTable, error) {
	return models.FinancialTable{}, nil
}

func (m *fakeMarket) GetFinancialRatios(ctx context.Context, assetID string) (models.FinancialTable, error) {
	return models.FinancialTable{}, nil
}

type fakeSocial struct{}

func (fakeSocial) GetTradeInfo(ctx context.Context, symbol string) (map[string]any, error) {
	return map[string]any{"group_pe": 7.1, "queue": "buy", "irrelevant": true}, nil
}

func (fakeSocial) GetOverallInfo(ctx context.Context, symbol string) (map[string]any, error) {
	return nil, errors.New("social endpoint down")
}

func (fakeSocial) GetPosts(ctx context.Context, symbol string) ([]models.Tweet, error) {
	return []models.Tweet{{Text: "post", Likes: 3}}, nil
}

func (fakeSocial) GetCodalNotices(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	return nil, nil
}

func testBars(n int) []models.OHLCVBar {
	bars := make([]models.OHLCVBar, n)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 1000 + 40*math.Sin(float64(i)/9) + float64(i)
		date := start.AddDate(0, 0, i)
		bars[i] = models.OHLCVBar{
			Date:   date,
			JDate:  jalali.Format(date),
			Open:   price - 2,
			High:   price + 6,
			Low:    price - 6,
			Close:  price,
			Volume: 1e6 + 1e4*float64(i%10),
		}
	}
	return bars
}

func newTestPipeline(store *fakeStore, now time.Time) *Pipeline {
	return New(&fakeMarket{bars: testBars(120)}, fakeSocial{}, store, common.GetLogger(),
		WithClock(func() time.Time { return now }))
}

func TestShouldRunTruthTable(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		doc    *models.AssetDocument
		expect bool
	}{
		{"absent", nil, true},
		{"no timestamp", &models.AssetDocument{ID: "X_1", TradeSymbol: "X"}, true},
		{"older", &models.AssetDocument{ID: "X_1", TradeSymbol: "X", AnalysisDatetime: now.AddDate(0, 0, -1)}, true},
		{"today", &models.AssetDocument{ID: "X_1", TradeSymbol: "X", AnalysisDatetime: now.Add(-2 * time.Hour)}, false},
		{"future", &models.AssetDocument{ID: "X_1", TradeSymbol: "X", AnalysisDatetime: now.AddDate(0, 0, 2)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			if tc.doc != nil {
				require.NoError(t, store.UpsertAsset(tc.doc))
			}
			p := newTestPipeline(store, now)
			got, reason := p.ShouldRun("X")
			assert.Equal(t, tc.expect, got, reason)
		})
	}
}

func TestPrepareAssemblesDocument(t *testing.T) {
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	p := newTestPipeline(store, now)

	doc, err := p.Prepare(context.Background(), "فولاد")
	require.NoError(t, err)

	assert.Equal(t, "فولاد_1", doc.ID)
	assert.Equal(t, now, doc.AnalysisDatetime)
	assert.NotEmpty(t, doc.TechnicalReport)
	assert.Equal(t, int(doc.History[len(doc.History)-1].Close), doc.CurrentPrice)

	// Social extras merged into details; unrelated keys dropped.
	assert.Equal(t, 7.1, doc.Details["group_pe"])
	assert.Equal(t, "buy", doc.Details["queue"])
	assert.NotContains(t, doc.Details, "irrelevant")

	// Trailing returns present and positive for a rising series.
	for _, key := range []string{"return_7_d", "return_1_m", "return_3_m"} {
		ret, ok := doc.Details[key].(map[string]any)
		require.True(t, ok, key)
		assert.Greater(t, ret["value"].(float64), 0.0, key)
	}

	stored, err := store.GetAssetBySymbol("فولاد")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, stored.ID)
}

func TestPrepareFailsOnShortHistory(t *testing.T) {
	store := newFakeStore()
	p := New(&fakeMarket{bars: testBars(20)}, fakeSocial{}, store, common.GetLogger())
	_, err := p.Prepare(context.Background(), "فولاد")
	assert.Error(t, err)
}

func TestPrepareFailsOnUnknownSymbol(t *testing.T) {
	p := newTestPipeline(newFakeStore(), time.Now())
	_, err := p.Prepare(context.Background(), "ناشناس")
	assert.Error(t, err)
}

func TestUpsertIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	p := newTestPipeline(store, now)

	first, err := p.Prepare(context.Background(), "فولاد")
	require.NoError(t, err)
	second, err := p.Prepare(context.Background(), "فولاد")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	all, err := store.ListAssets()
	require.NoError(t, err)
	assert.Len(t, all, 1, "upsert replaces, never appends")
}
