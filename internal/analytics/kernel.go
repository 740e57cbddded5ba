package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/finagent-ir/finagent/internal/models"
)

// ErrInsufficientData is returned when the history is too short to analyze.
var ErrInsufficientData = errors.New("insufficient history for technical analysis")

// visualPeriod is the number of trailing bars rendered in the visual block.
const visualPeriod = 14

// CreateReport runs every analyzer over the series and assembles the full
// technical report consumed by the analysis agents.
func CreateReport(symbol string, s *Series, pivots []models.PivotLevel, tape []models.TradeTapeRow) (map[string]any, error) {
	if s == nil || s.Len() < MinBars {
		got := 0
		if s != nil {
			got = s.Len()
		}
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, got, MinBars)
	}

	report := map[string]any{
		"meta": map[string]any{
			"symbol":    symbol,
			"timestamp": time.Now().Format(time.RFC3339),
			"timeframe": "1D",
			"price": map[string]any{
				"close":         round2(last(s.Close)),
				"current_price": int(last(s.Close)),
			},
		},
		"trend":              AnalyzeTrend(s),
		"oscillators":        AnalyzeOscillators(s),
		"volatility":         AnalyzeVolatility(s),
		"volume":             AnalyzeVolume(s),
		"support_resistance": AnalyzeSupportResistance(s, pivots),
		"smart_money":        AnalyzeSmartMoney(tape),
		"visuals":            buildVisuals(s),
	}
	return report, nil
}

// buildVisuals renders the trailing bars as sparklines and a candle sequence.
// The block is context for the agents, never a signal source on its own.
func buildVisuals(s *Series) map[string]any {
	start := s.Len() - visualPeriod
	if start < 0 {
		start = 0
	}
	closes := s.Close[start:]
	opens := s.Open[start:]
	volumes := s.Volume[start:]

	sequence, dojiRatio := CandleSequence(opens, closes)

	return map[string]any{
		"period_bars":      len(closes),
		"authority":        "context_only",
		"price_sparkline":  Sparkline(closes),
		"sequence":         sequence,
		"doji_ratio":       dojiRatio,
		"volume_sparkline": Sparkline(volumes),
	}
}
