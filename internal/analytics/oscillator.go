package analytics

// AnalyzeOscillators reads momentum from RSI, ADX and the MACD histogram and
// classifies the joint regime.
func AnalyzeOscillators(s *Series) map[string]any {
	rsi := RSI(s.Close, 14)
	adx, _, _ := ADX(s.High, s.Low, s.Close, 14)
	_, _, hist := MACD(s.Close, 12, 26, 9)

	rsiLast := lastValid(rsi)
	adxLast := lastValid(adx)
	histLast := lastValid(hist)

	rsiSlope, _ := LinReg(tailValid(rsi, 5))
	adxSlope, _ := LinReg(tailValid(adx, 7))
	histSlope, _ := LinReg(tailValid(hist, 4))

	regime, factors := oscillatorRegime(adxLast, rsiLast, histLast)

	return map[string]any{
		"rsi": map[string]any{
			"value": round2(rsiLast),
			"slope": round4(rsiSlope),
			"state": rsiState(rsiLast, rsiSlope),
		},
		"adx": map[string]any{
			"value": round2(adxLast),
			"slope": round4(adxSlope),
		},
		"macd": map[string]any{
			"histogram": round4(histLast),
			"slope":     round4(histSlope),
			"state":     macdState(histLast, histSlope),
		},
		"regime":         regime,
		"regime_factors": factors,
	}
}

// oscillatorRegime applies the joint ADX/MACD/RSI threshold table. Rules are
// evaluated top down; the first match wins.
func oscillatorRegime(adx, rsi, hist float64) (string, []string) {
	factors := []string{
		describeADX(adx),
		describeRSI(rsi),
		describeHist(hist),
	}
	switch {
	case adx < 20 && rsi >= 40 && rsi <= 60:
		return "choppy_noise", factors
	case adx > 40 && hist > 0 && rsi > 75:
		return "bullish_climax", factors
	case adx > 40 && hist < 0 && rsi < 25:
		return "bearish_capitulation", factors
	case adx > 25 && hist > 0 && rsi >= 50 && rsi <= 75:
		return "strong_bull_trend", factors
	case adx > 25 && hist < 0 && rsi >= 25 && rsi <= 50:
		return "strong_bear_trend", factors
	case adx < 25 && hist > 0 && rsi > 60:
		return "weak_bullish", factors
	case adx < 25 && hist < 0 && rsi < 40:
		return "weak_bearish", factors
	default:
		return "indeterminate_transition", factors
	}
}

func rsiState(value, slope float64) string {
	switch {
	case value > 70:
		return "overbought"
	case value < 30:
		return "oversold"
	case slope > 0:
		return "bullish_accelerating"
	default:
		return "bearish_decelerating"
	}
}

func macdState(hist, slope float64) string {
	switch {
	case hist > 0 && slope > 0:
		return "bullish_expanding"
	case hist > 0:
		return "bullish_fading"
	case hist < 0 && slope < 0:
		return "bearish_expanding"
	case hist < 0:
		return "bearish_fading"
	default:
		return "neutral"
	}
}

func describeADX(adx float64) string {
	switch {
	case adx > 40:
		return "adx_extreme"
	case adx > 25:
		return "adx_trending"
	case adx < 20:
		return "adx_flat"
	default:
		return "adx_building"
	}
}

func describeRSI(rsi float64) string {
	switch {
	case rsi > 75:
		return "rsi_stretched_high"
	case rsi < 25:
		return "rsi_stretched_low"
	case rsi >= 50:
		return "rsi_bullish_half"
	default:
		return "rsi_bearish_half"
	}
}

func describeHist(hist float64) string {
	if hist > 0 {
		return "macd_positive"
	}
	if hist < 0 {
		return "macd_negative"
	}
	return "macd_zero"
}
