package models

import (
	"fmt"
	"time"
)

// AssetDocument is the complete per-symbol snapshot persisted after each data
// preparation run. The key is "{trade_symbol}_{asset_id}" and an upsert
// replaces the whole document.
type AssetDocument struct {
	ID          string `json:"id" badgerhold:"key"`
	AssetID     string `json:"asset_id"`
	Symbol      string `json:"symbol"` // trade symbol as entered by the user
	TradeSymbol string `json:"trade_symbol"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`

	// AnalysisDatetime is the freshness watermark; advances monotonically.
	AnalysisDatetime time.Time `json:"analysis_datetime"`

	History   []OHLCVBar     `json:"history"`
	TradeTape []TradeTapeRow `json:"trade_tape"`
	Pivots    []PivotLevel   `json:"pivots"`

	// Details holds the merged instrument details: provider fields plus the
	// auxiliary social-platform fields and trailing returns merged in during
	// preparation.
	Details map[string]any `json:"details"`

	// Fundamental statements as row-label -> date -> value tables.
	BalanceSheets   FinancialTable `json:"balance_sheets"`
	ProfitLoss      FinancialTable `json:"profit_loss"`
	CashFlow        FinancialTable `json:"cash_flow"`
	FinancialRatios FinancialTable `json:"financial_ratios"`

	News         []NewsItem `json:"news"`
	CodalNotices []NewsItem `json:"codal_notices"`
	Tweets       []Tweet    `json:"tweets"`
	SocialPosts  []Tweet    `json:"social_posts"` // sahamyab posts, same cleaned shape
	WebSearch    []WebHit   `json:"web_search"`

	// TechnicalReport is the full kernel output, stored for reuse.
	TechnicalReport map[string]any `json:"technical_report,omitempty"`

	CurrentPrice int `json:"current_price"`
}

// FinancialTable maps a Persian row label to a date-keyed series of values.
// Dates are Jalali "YYYY/MM/DD" strings; iteration order is by sorted key.
type FinancialTable map[string]map[string]float64

// WebHit is a single AI web-search result.
type WebHit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// DocumentID builds the canonical asset document key.
func DocumentID(tradeSymbol, assetID string) string {
	return fmt.Sprintf("%s_%s", tradeSymbol, assetID)
}
