// Package pipeline orchestrates data preparation for one symbol: resolve the
// asset, fetch market/fundamental/social slices concurrently, run the
// technical kernel, and upsert the assembled document. A freshness gate skips
// the whole run when today's document already exists.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/analytics"
	"github.com/finagent-ir/finagent/internal/interfaces"
	"github.com/finagent-ir/finagent/internal/models"
	storagebadger "github.com/finagent-ir/finagent/internal/storage/badger"
)

const (
	// HistoryBars is how much daily history the kernel works over.
	HistoryBars = 365
	// TapeDays is the real/legal trade-tape window.
	TapeDays = 7
	// TweetWindowDays bounds the external tweet search.
	TweetWindowDays = 90
	// SearchWindowDays bounds the AI web search.
	SearchWindowDays = 30
)

// MarketData is the market-data provider surface the pipeline consumes.
type MarketData interface {
	ResolveSymbol(ctx context.Context, symbol string) (*models.SymbolInfo, error)
	GetHistory(ctx context.Context, assetID string, count int) ([]models.OHLCVBar, error)
	GetDetails(ctx context.Context, assetID string) (map[string]any, error)
	GetPivots(ctx context.Context, assetID string) ([]models.PivotLevel, error)
	GetTradeTape(ctx context.Context, assetID string, count int) ([]models.TradeTapeRow, error)
	GetNews(ctx context.Context, assetID string) ([]models.NewsItem, error)
	GetBalanceSheets(ctx context.Context, assetID string) (models.FinancialTable, error)
	GetProfitLoss(ctx context.Context, assetID string) (models.FinancialTable, error)
	GetCashFlow(ctx context.Context, assetID string) (models.FinancialTable, error)
	GetFinancialRatios(ctx context.Context, assetID string) (models.FinancialTable, error)
}

// SocialData is the social-platform surface.
type SocialData interface {
	GetTradeInfo(ctx context.Context, symbol string) (map[string]any, error)
	GetOverallInfo(ctx context.Context, symbol string) (map[string]any, error)
	GetPosts(ctx context.Context, symbol string) ([]models.Tweet, error)
	GetCodalNotices(ctx context.Context, symbol string) ([]models.NewsItem, error)
}

// TweetSearch is the external tweet-search surface.
type TweetSearch interface {
	SearchTweets(ctx context.Context, query string, since time.Time) ([]models.Tweet, error)
}

// WebSearch is the AI web-search surface.
type WebSearch interface {
	Search(ctx context.Context, query string, days int) ([]models.WebHit, error)
}

// Pipeline prepares and persists asset documents.
type Pipeline struct {
	market MarketData
	social SocialData
	tweets TweetSearch
	web    WebSearch
	store  interfaces.AssetStorage
	logger arbor.ILogger
	now    func() time.Time
}

// Option configures the Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithTweetSearch attaches the external tweet-search client.
func WithTweetSearch(ts TweetSearch) Option {
	return func(p *Pipeline) { p.tweets = ts }
}

// WithWebSearch attaches the AI web-search client.
func WithWebSearch(ws WebSearch) Option {
	return func(p *Pipeline) { p.web = ws }
}

// New creates a Pipeline. Tweet and web search are optional; everything else
// is required.
func New(market MarketData, social SocialData, store interfaces.AssetStorage, logger arbor.ILogger, opts ...Option) *Pipeline {
	p := &Pipeline{
		market: market,
		social: social,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShouldRun reports whether a fresh preparation run is needed for the symbol.
// True when no document exists, the document has no analysis timestamp, or
// the timestamp is older than today. A future timestamp is skipped with a
// warning.
func (p *Pipeline) ShouldRun(symbol string) (bool, string) {
	doc, err := p.store.GetAssetBySymbol(symbol)
	if err != nil {
		if errors.Is(err, storagebadger.ErrAssetNotFound) {
			return true, "no stored document"
		}
		p.logger.Warn().Err(err).Str("symbol", symbol).Msg("Freshness lookup failed, refreshing")
		return true, "lookup failed"
	}
	if doc.AnalysisDatetime.IsZero() {
		return true, "document has no analysis timestamp"
	}

	today := dateOnly(p.now())
	docDay := dateOnly(doc.AnalysisDatetime)
	switch {
	case docDay.Before(today):
		return true, "stored document is stale"
	case docDay.After(today):
		p.logger.Warn().
			Str("symbol", symbol).
			Str("analysis_datetime", doc.AnalysisDatetime.Format(time.RFC3339)).
			Msg("Stored document is dated in the future, skipping refresh")
		return false, "document dated in the future"
	default:
		return false, "document is current"
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Load returns the stored document for the symbol.
func (p *Pipeline) Load(symbol string) (*models.AssetDocument, error) {
	return p.store.GetAssetBySymbol(symbol)
}

// Prepare runs the full preparation for the symbol and persists the result.
// Symbol resolution and an insufficient price history are fatal; every other
// data slice degrades to empty with a warning.
func (p *Pipeline) Prepare(ctx context.Context, symbol string) (*models.AssetDocument, error) {
	info, err := p.market.ResolveSymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve symbol %s: %w", symbol, err)
	}

	doc := &models.AssetDocument{
		AssetID:     info.AssetID,
		Symbol:      symbol,
		TradeSymbol: info.TradeSymbol,
		Name:        info.Name,
		ShortName:   info.ShortName,
	}

	p.fetchMarketSlices(ctx, doc)
	p.fetchSocialSlices(ctx, doc)

	series := analytics.NewSeries(doc.History)
	report, err := analytics.CreateReport(doc.TradeSymbol, series, doc.Pivots, doc.TradeTape)
	if err != nil {
		return nil, fmt.Errorf("technical analysis failed for %s: %w", symbol, err)
	}
	doc.TechnicalReport = report

	if len(doc.History) > 0 {
		doc.CurrentPrice = int(doc.History[len(doc.History)-1].Close)
	}
	mergeReturns(doc)

	doc.AnalysisDatetime = p.now()
	if err := p.store.UpsertAsset(doc); err != nil {
		return nil, fmt.Errorf("failed to persist document for %s: %w", symbol, err)
	}

	p.logger.Info().
		Str("symbol", symbol).
		Str("asset_id", doc.AssetID).
		Int("bars", len(doc.History)).
		Msg("Data preparation complete")
	return doc, nil
}

// fetchMarketSlices runs the market-data fetches concurrently. Each slice
// fails independently; the document keeps whatever succeeded.
func (p *Pipeline) fetchMarketSlices(ctx context.Context, doc *models.AssetDocument) {
	id := doc.AssetID
	var wg sync.WaitGroup

	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				p.logger.Warn().Err(err).Str("slice", name).Str("asset_id", id).Msg("Data slice fetch failed")
			}
		}()
	}

	run("history", func() error {
		bars, err := p.market.GetHistory(ctx, id, HistoryBars)
		if err != nil {
			return err
		}
		doc.History = bars
		return nil
	})
	run("details", func() error {
		details, err := p.market.GetDetails(ctx, id)
		if err != nil {
			return err
		}
		doc.Details = details
		return nil
	})
	run("pivots", func() error {
		pivots, err := p.market.GetPivots(ctx, id)
		if err != nil {
			return err
		}
		doc.Pivots = pivots
		return nil
	})
	run("trade_tape", func() error {
		tape, err := p.market.GetTradeTape(ctx, id, TapeDays)
		if err != nil {
			return err
		}
		doc.TradeTape = tape
		return nil
	})
	run("news", func() error {
		news, err := p.market.GetNews(ctx, id)
		if err != nil {
			return err
		}
		doc.News = news
		return nil
	})
	run("balance_sheets", func() error {
		table, err := p.market.GetBalanceSheets(ctx, id)
		if err != nil {
			return err
		}
		doc.BalanceSheets = table
		return nil
	})
	run("profit_loss", func() error {
		table, err := p.market.GetProfitLoss(ctx, id)
		if err != nil {
			return err
		}
		doc.ProfitLoss = table
		return nil
	})
	run("cash_flow", func() error {
		table, err := p.market.GetCashFlow(ctx, id)
		if err != nil {
			return err
		}
		doc.CashFlow = table
		return nil
	})
	run("financial_ratios", func() error {
		table, err := p.market.GetFinancialRatios(ctx, id)
		if err != nil {
			return err
		}
		doc.FinancialRatios = table
		return nil
	})

	wg.Wait()
}

// fetchSocialSlices runs the social and search fetches concurrently. All of
// them are non-critical: empty on failure.
func (p *Pipeline) fetchSocialSlices(ctx context.Context, doc *models.AssetDocument) {
	symbol := doc.TradeSymbol
	var wg sync.WaitGroup
	var mu sync.Mutex
	extras := map[string]any{}

	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				p.logger.Warn().Err(err).Str("slice", name).Str("symbol", symbol).Msg("Social slice fetch failed")
			}
		}()
	}

	run("trade_info", func() error {
		info, err := p.social.GetTradeInfo(ctx, symbol)
		if err != nil {
			return err
		}
		mu.Lock()
		collectExtras(extras, info)
		mu.Unlock()
		return nil
	})
	run("overall_info", func() error {
		info, err := p.social.GetOverallInfo(ctx, symbol)
		if err != nil {
			return err
		}
		mu.Lock()
		collectExtras(extras, info)
		mu.Unlock()
		return nil
	})
	run("posts", func() error {
		posts, err := p.social.GetPosts(ctx, symbol)
		if err != nil {
			return err
		}
		doc.SocialPosts = posts
		return nil
	})
	run("codal_notices", func() error {
		notices, err := p.social.GetCodalNotices(ctx, symbol)
		if err != nil {
			return err
		}
		doc.CodalNotices = notices
		return nil
	})

	if p.tweets != nil {
		run("tweets", func() error {
			since := p.now().AddDate(0, 0, -TweetWindowDays)
			tweets, err := p.tweets.SearchTweets(ctx, symbol, since)
			if err != nil {
				return err
			}
			doc.Tweets = tweets
			return nil
		})
	}
	if p.web != nil {
		run("web_search", func() error {
			query := fmt.Sprintf("تحلیل بنیادی و تکنیکال و بررسی نماد %s یا %s", symbol, doc.Name)
			hits, err := p.web.Search(ctx, query, SearchWindowDays)
			if err != nil {
				return err
			}
			doc.WebSearch = hits
			return nil
		})
	}

	wg.Wait()

	if len(extras) > 0 {
		if doc.Details == nil {
			doc.Details = map[string]any{}
		}
		for k, v := range extras {
			doc.Details[k] = v
		}
	}
}

// auxiliaryKeys are the social-platform fields merged into the instrument
// details for the fundamental and reporter agents.
var auxiliaryKeys = []string{
	"group_pe",
	"index_affect",
	"liquidity_coefficient",
	"correlation_gold_fund",
	"correlation_main_index",
	"category_name",
	"queue",
	"estimated_eps",
}

func collectExtras(dst map[string]any, src map[string]any) {
	for _, key := range auxiliaryKeys {
		if v, ok := src[key]; ok && v != nil {
			dst[key] = v
		}
	}
}

// returnWindows maps the trailing-return detail keys to their lookback in
// calendar days.
var returnWindows = map[string]int{
	"return_7_d": 6,
	"return_1_m": 30,
	"return_3_m": 90,
}

// mergeReturns computes trailing returns from the price history and merges
// them into the details map.
func mergeReturns(doc *models.AssetDocument) {
	if len(doc.History) == 0 {
		return
	}
	latest := doc.History[len(doc.History)-1]
	if doc.Details == nil {
		doc.Details = map[string]any{}
	}
	for key, days := range returnWindows {
		past, ok := barOnOrBefore(doc.History, latest.Date.AddDate(0, 0, -days))
		if !ok || past.Close == 0 {
			continue
		}
		doc.Details[key] = map[string]any{
			"value":     (latest.Close - past.Close) / past.Close,
			"from_date": past.JDate,
			"to_date":   latest.JDate,
		}
	}
}

// barOnOrBefore returns the newest bar dated at or before the cutoff.
func barOnOrBefore(bars []models.OHLCVBar, cutoff time.Time) (models.OHLCVBar, bool) {
	for i := len(bars) - 1; i >= 0; i-- {
		if !bars[i].Date.After(cutoff) {
			return bars[i], true
		}
	}
	return models.OHLCVBar{}, false
}
