// Package models contains the data types shared across the analysis pipeline:
// market data series, the persisted asset document, and the structured report
// schemas the analysis agents emit.
package models

import "time"

// OHLCVBar is a single daily candle. Bars are stored oldest-first once
// normalized; upstream feeds deliver them newest-first.
type OHLCVBar struct {
	Date   time.Time `json:"date"`
	JDate  string    `json:"jdate"` // Jalali date string "YYYY/MM/DD"
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TradeTapeRow is one day of the real/legal (retail/institutional) trade
// breakdown. Values are in rials, counts are trader counts.
type TradeTapeRow struct {
	Date           string  `json:"date"` // Jalali "YYYY/MM/DD"
	RealBuyValue   float64 `json:"real_buy_value"`
	RealSellValue  float64 `json:"real_sell_value"`
	RealBuyCount   float64 `json:"real_buy_count"`
	RealSellCount  float64 `json:"real_sell_count"`
	LegalBuyValue  float64 `json:"legal_buy_value"`
	LegalSellValue float64 `json:"legal_sell_value"`

	// Net ownership change of the day, in rials. The feed reports these
	// directly; they are not derivable from buy minus sell value.
	PersonOwnerChange  float64 `json:"person_owner_change"`
	CompanyOwnerChange float64 `json:"company_owner_change"`
}

// PivotLevel is a named price level from an upstream pivot-point indicator.
type PivotLevel struct {
	Name  string  `json:"name"` // e.g. "PivotPointClassic(30).S1"
	Value float64 `json:"value"`
}

// NewsItem is a single news or filing headline attached to an asset.
type NewsItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Date  string `json:"date"` // Jalali "YYYY/MM/DD"
	URL   string `json:"url,omitempty"`
}

// Tweet is a cleaned social post kept for sentiment analysis.
type Tweet struct {
	Text      string `json:"text"`
	Likes     int    `json:"likes"`
	Retweets  int    `json:"retweets"`
	Views     int    `json:"views,omitempty"`
	CreatedAt string `json:"created_at"`
}

// SymbolInfo is the resolved identity of a tradable symbol.
type SymbolInfo struct {
	AssetID     string `json:"asset_id"`
	TradeSymbol string `json:"trade_symbol"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
}

// PeriodReturn is a trailing return over a named window.
type PeriodReturn struct {
	Value    float64 `json:"value"`
	FromDate string  `json:"from_date"`
	ToDate   string  `json:"to_date"`
}
