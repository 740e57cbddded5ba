// Package rahavard provides a client for the Rahavard 365 market-data API:
// symbol search, instrument details, price history, pivot indicators, the
// real/legal trade tape, fundamental statements and the news feed.
package rahavard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/jalali"
	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/providers/transport"
)

const (
	// DefaultBaseURL is the base URL for the Rahavard API.
	DefaultBaseURL = "https://rahavard365.com/api/v2"

	// EquityType marks tradable common shares in search results.
	EquityType = "سهام"
)

// Client is a Rahavard API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Rahavard API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: transport.DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return transport.DoJSON(ctx, c.httpClient, c.logger, &transport.Request{
		Method:   http.MethodGet,
		URL:      reqURL,
		Endpoint: path,
	}, result)
}

// SearchResult is one row of the symbol search response.
type SearchResult struct {
	ID          string `json:"id"`
	TradeSymbol string `json:"trade_symbol"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Type        string `json:"type"`
}

type searchResponse struct {
	Data []SearchResult `json:"data"`
}

// SearchAssets searches instruments by keyword.
func (c *Client) SearchAssets(ctx context.Context, keyword string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	var resp searchResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ResolveSymbol searches for the symbol and returns the first equity match.
func (c *Client) ResolveSymbol(ctx context.Context, symbol string) (*models.SymbolInfo, error) {
	results, err := c.SearchAssets(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("symbol search failed: %w", err)
	}
	for _, r := range results {
		if r.Type != EquityType {
			continue
		}
		return &models.SymbolInfo{
			AssetID:     r.ID,
			TradeSymbol: r.TradeSymbol,
			Name:        r.Name,
			ShortName:   r.ShortName,
		}, nil
	}
	return nil, fmt.Errorf("no tradable equity found for symbol %q", symbol)
}

type historyRow struct {
	Date   string  `json:"date"` // Jalali "YYYY/MM/DD"
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type historyResponse struct {
	Data []historyRow `json:"data"`
}

// GetHistory returns up to count daily bars, normalized oldest-first.
func (c *Client) GetHistory(ctx context.Context, assetID string, count int) ([]models.OHLCVBar, error) {
	params := url.Values{}
	params.Set("count", fmt.Sprintf("%d", count))
	var resp historyResponse
	if err := c.get(ctx, "/asset/"+assetID+"/trades", params, &resp); err != nil {
		return nil, err
	}

	bars := make([]models.OHLCVBar, 0, len(resp.Data))
	for _, row := range resp.Data {
		date, err := jalali.Parse(row.Date)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn().Str("date", row.Date).Msg("Skipping history row with invalid date")
			}
			continue
		}
		bars = append(bars, models.OHLCVBar{
			Date:   date,
			JDate:  row.Date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

type detailsResponse struct {
	Data map[string]any `json:"data"`
}

// GetDetails returns the instrument detail block as delivered.
func (c *Client) GetDetails(ctx context.Context, assetID string) (map[string]any, error) {
	var resp detailsResponse
	if err := c.get(ctx, "/asset/"+assetID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type indicatorRow struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type indicatorResponse struct {
	Data []indicatorRow `json:"data"`
}

// GetPivots returns the pivot-point indicator levels for the asset.
func (c *Client) GetPivots(ctx context.Context, assetID string) ([]models.PivotLevel, error) {
	var resp indicatorResponse
	if err := c.get(ctx, "/asset/"+assetID+"/indicators", nil, &resp); err != nil {
		return nil, err
	}
	pivots := make([]models.PivotLevel, 0, len(resp.Data))
	for _, row := range resp.Data {
		pivots = append(pivots, models.PivotLevel{Name: row.Name, Value: row.Value})
	}
	return pivots, nil
}

type tradeDetailRow struct {
	Date               string  `json:"date"`
	RealBuyValue       float64 `json:"individual_buy_value"`
	RealSellValue      float64 `json:"individual_sell_value"`
	RealBuyCount       float64 `json:"individual_buy_count"`
	RealSellCount      float64 `json:"individual_sell_count"`
	LegalBuyValue      float64 `json:"legal_buy_value"`
	LegalSellValue     float64 `json:"legal_sell_value"`
	PersonOwnerChange  float64 `json:"person_owner_change"`
	CompanyOwnerChange float64 `json:"company_owner_change"`
}

type tradeDetailResponse struct {
	Data []tradeDetailRow `json:"data"`
}

// GetTradeTape returns the last count days of the real/legal trade breakdown.
func (c *Client) GetTradeTape(ctx context.Context, assetID string, count int) ([]models.TradeTapeRow, error) {
	params := url.Values{}
	params.Set("count", fmt.Sprintf("%d", count))
	var resp tradeDetailResponse
	if err := c.get(ctx, "/asset/"+assetID+"/tradedetails", params, &resp); err != nil {
		return nil, err
	}
	rows := make([]models.TradeTapeRow, 0, len(resp.Data))
	for _, r := range resp.Data {
		rows = append(rows, models.TradeTapeRow{
			Date:               r.Date,
			RealBuyValue:       r.RealBuyValue,
			RealSellValue:      r.RealSellValue,
			RealBuyCount:       r.RealBuyCount,
			RealSellCount:      r.RealSellCount,
			LegalBuyValue:      r.LegalBuyValue,
			LegalSellValue:     r.LegalSellValue,
			PersonOwnerChange:  r.PersonOwnerChange,
			CompanyOwnerChange: r.CompanyOwnerChange,
		})
	}
	return rows, nil
}

type newsRow struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"summary"`
	Date  string `json:"date"`
	URL   string `json:"url"`
}

type newsResponse struct {
	Data []newsRow `json:"data"`
}

// GetNews returns the asset news feed.
func (c *Client) GetNews(ctx context.Context, assetID string) ([]models.NewsItem, error) {
	var resp newsResponse
	if err := c.get(ctx, "/asset/"+assetID+"/feeds", nil, &resp); err != nil {
		return nil, err
	}
	items := make([]models.NewsItem, 0, len(resp.Data))
	for _, row := range resp.Data {
		items = append(items, models.NewsItem{
			ID:    row.ID,
			Title: row.Title,
			Body:  row.Body,
			Date:  row.Date,
			URL:   row.URL,
		})
	}
	return items, nil
}

// NewsSince filters items to the window of n days ending at ref.
func NewsSince(items []models.NewsItem, ref time.Time, days int) []models.NewsItem {
	var out []models.NewsItem
	for _, item := range items {
		if jalali.WithinDays(item.Date, ref, days) {
			out = append(out, item)
		}
	}
	return out
}
