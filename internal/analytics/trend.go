package analytics

import (
	"fmt"
	"math"
)

// emaHorizons maps EMA span to the slope lookback used for its regime.
var emaHorizons = []struct {
	Span    int
	Horizon int
}{
	{10, 5},
	{50, 14},
	{100, 30},
}

// tailValid returns the last n non-NaN values of vals.
func tailValid(vals []float64, n int) []float64 {
	out := make([]float64, 0, n)
	for i := len(vals) - 1; i >= 0 && len(out) < n; i-- {
		if math.IsNaN(vals[i]) {
			continue
		}
		out = append(out, vals[i])
	}
	// reverse back to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func emaRegime(slopeNorm float64) string {
	switch {
	case slopeNorm > 0.5:
		return "surging"
	case slopeNorm > 0.1:
		return "rising"
	case slopeNorm < -0.5:
		return "crashing"
	case slopeNorm < -0.1:
		return "falling"
	default:
		return "flat"
	}
}

func adxRegime(value float64) string {
	switch {
	case value > 50:
		return "strong_trend"
	case value > 25:
		return "trending"
	default:
		return "ranging"
	}
}

// AnalyzeTrend classifies the directional state of the series: moving-average
// slopes, ADX, the Ichimoku cloud, market structure swings and the ATR
// backdrop.
func AnalyzeTrend(s *Series) map[string]any {
	atr := ATR(s.High, s.Low, s.Close, 14)
	atrLast := lastValid(atr)

	emas := map[string]any{}
	for _, eh := range emaHorizons {
		ema := EMA(s.Close, eh.Span)
		slope, r2 := TailLinReg(ema, eh.Horizon)
		slopeNorm := safeDiv(slope, atrLast)
		emas[fmt.Sprintf("ema_%d", eh.Span)] = map[string]any{
			"value":      round2(last(ema)),
			"slope_norm": round4(slopeNorm),
			"r_squared":  round4(r2),
			"strength":   StrengthFromR2(r2),
			"regime":     emaRegime(slopeNorm),
		}
	}

	adx, plusDI, minusDI := ADX(s.High, s.Low, s.Close, 14)
	adxSlope, adxR2 := LinReg(tailValid(adx, 14))
	adxBlock := map[string]any{
		"value":     round2(lastValid(adx)),
		"plus_di":   round2(lastValid(plusDI)),
		"minus_di":  round2(lastValid(minusDI)),
		"slope":     round4(adxSlope),
		"r_squared": round4(adxR2),
		"regime":    adxRegime(lastValid(adx)),
	}

	return map[string]any{
		"emas":     emas,
		"adx":      adxBlock,
		"ichimoku": analyzeIchimoku(s, atrLast),
		"swings":   analyzeSwings(s, atr),
		"atr":      analyzeATRBackdrop(atr),
	}
}

func analyzeIchimoku(s *Series, atrLast float64) map[string]any {
	ich := ComputeIchimoku(s.High, s.Low)
	closeLast := last(s.Close)
	senkouA := lastValid(ich.SenkouA)
	senkouB := lastValid(ich.SenkouB)
	cloudTop := maxF(senkouA, senkouB)
	cloudBottom := minF(senkouA, senkouB)

	position := "inside_cloud"
	switch {
	case closeLast > cloudTop:
		position = "bullish"
	case closeLast < cloudBottom:
		position = "bearish"
	}

	// Cloud midline slope over the displacement window, ATR normalized.
	mid := make([]float64, len(ich.SenkouA))
	for i := range mid {
		if math.IsNaN(ich.SenkouA[i]) || math.IsNaN(ich.SenkouB[i]) {
			mid[i] = math.NaN()
			continue
		}
		mid[i] = (ich.SenkouA[i] + ich.SenkouB[i]) / 2
	}
	cloudSlope, _ := LinReg(tailValid(mid, 26))

	thickness := math.Abs(senkouA - senkouB)
	stability := "transitioning"
	if thickness > atrLast*0.5 {
		stability = "stable"
	}

	return map[string]any{
		"position":           position,
		"tenkan":             round2(lastValid(ich.Tenkan)),
		"kijun":              round2(lastValid(ich.Kijun)),
		"price_vs_cloud_pct": round2(safeDiv(closeLast-cloudTop, cloudTop) * 100),
		"cloud_thickness":    round2(thickness),
		"cloud_slope_norm":   round4(safeDiv(cloudSlope, atrLast)),
		"cloud_stability":    stability,
	}
}

type swingPoint struct {
	index int
	price float64
	high  bool
}

// analyzeSwings detects market-structure pivots with a 5-bar wing, gated so a
// pivot must move at least half an ATR from the previous accepted pivot of
// the same kind.
func analyzeSwings(s *Series, atr []float64) map[string]any {
	const wing = 5
	const atrGate = 0.5

	highIdx, lowIdx := Fractals(s.High, s.Low, wing)

	accept := func(indices []int, prices []float64) []swingPoint {
		var pts []swingPoint
		for _, i := range indices {
			gate := atrGate * atrAt(atr, i)
			if len(pts) > 0 && math.Abs(prices[i]-pts[len(pts)-1].price) < gate {
				continue
			}
			pts = append(pts, swingPoint{index: i, price: prices[i]})
		}
		return pts
	}
	highs := accept(highIdx, s.High)
	lows := accept(lowIdx, s.Low)

	var events []map[string]any
	highEvent, lowEvent := "", ""
	lastPivot := -1

	if len(highs) >= 2 {
		cur, prev := highs[len(highs)-1], highs[len(highs)-2]
		highEvent = "LH"
		if cur.price > prev.price {
			highEvent = "HH"
		}
		events = append(events, map[string]any{
			"event":        highEvent,
			"current":      round2(cur.price),
			"previous":     round2(prev.price),
			"distance_pct": round2(safeDiv(cur.price-prev.price, prev.price) * 100),
		})
		lastPivot = cur.index
	}
	if len(lows) >= 2 {
		cur, prev := lows[len(lows)-1], lows[len(lows)-2]
		lowEvent = "LL"
		if cur.price > prev.price {
			lowEvent = "HL"
		}
		events = append(events, map[string]any{
			"event":        lowEvent,
			"current":      round2(cur.price),
			"previous":     round2(prev.price),
			"distance_pct": round2(safeDiv(cur.price-prev.price, prev.price) * 100),
		})
		if cur.index > lastPivot {
			lastPivot = cur.index
		}
	}

	regime := "consolidation"
	switch {
	case highEvent == "HH" && lowEvent == "HL":
		regime = "uptrend"
	case highEvent == "LH" && lowEvent == "LL":
		regime = "downtrend"
	case highEvent == "HH" && lowEvent == "LL":
		regime = "expanding_volatility"
	}

	barsSince := 0
	if lastPivot >= 0 {
		barsSince = s.Len() - 1 - lastPivot
	}

	return map[string]any{
		"events":           events,
		"regime":           regime,
		"bars_since_pivot": barsSince,
	}
}

func atrAt(atr []float64, i int) float64 {
	if i < len(atr) && !math.IsNaN(atr[i]) {
		return atr[i]
	}
	return lastValid(atr)
}

func analyzeATRBackdrop(atr []float64) map[string]any {
	valid := tailValid(atr, len(atr))
	cur := last(valid)
	slope := 0.0
	if len(valid) >= 15 {
		past := valid[len(valid)-15]
		slope = safeDiv(cur-past, past)
	}
	regime := "normal"
	if cur > mean(valid) {
		regime = "high"
	}
	return map[string]any{
		"value":  round2(cur),
		"slope":  round4(slope),
		"regime": regime,
	}
}
