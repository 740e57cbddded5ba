package analytics

import "math"

// AnalyzeVolatility measures volatility through four lenses (Keltner width,
// Bollinger width, short log-return dispersion, annualized historical
// volatility), classifies each into a regime and synthesizes an overall state
// including the band squeeze.
func AnalyzeVolatility(s *Series) map[string]any {
	kUpper, _, kLower := Keltner(s.High, s.Low, s.Close, 16, 2)
	bUpper, _, bLower := Bollinger(s.Close, 20, 2)

	kWidth := widthSeries(kUpper, kLower)
	bWidth := widthSeries(bUpper, bLower)

	logRet := LogReturns(s.Close)
	shortStd := RollingStd(logRet, 20)
	hv := make([]float64, len(logRet))
	hvStd := RollingStd(logRet, 30)
	for i := range hvStd {
		if math.IsNaN(hvStd[i]) {
			hv[i] = math.NaN()
			continue
		}
		hv[i] = hvStd[i] * math.Sqrt(252)
	}

	kSlope, kR2 := LinReg(tailValid(kWidth, 15))
	bSlope, bR2 := LinReg(tailValid(bWidth, 15))
	stdSlope, _ := LinReg(tailValid(shortStd, 10))
	hvSlope, _ := LinReg(tailValid(hv, 10))

	kBlock := volBlock(lastValid(kWidth), kSlope, kR2, TailPercentileRank(tailValid(kWidth, 120), 120))
	bBlock := volBlock(lastValid(bWidth), bSlope, bR2, TailPercentileRank(tailValid(bWidth, 120), 120))

	squeeze := lastValid(bUpper) < lastValid(kUpper) && lastValid(bLower) > lastValid(kLower)

	mainDriver := "keltner_16"
	driverBlock := kBlock
	if bR2 > kR2 {
		mainDriver = "bollinger_20"
		driverBlock = bBlock
	}

	overall := driverBlock["regime"].(string)
	if squeeze {
		overall = "COMPRESSION"
	}

	return map[string]any{
		"keltner_16":   kBlock,
		"bollinger_20": bBlock,
		"log_return_std_20": map[string]any{
			"value": round4(lastValid(shortStd)),
			"slope": round4(stdSlope),
		},
		"historical_vol_30": map[string]any{
			"value": round4(lastValid(hv)),
			"slope": round4(hvSlope),
		},
		"signal_synthesis": map[string]any{
			"is_squeeze":  squeeze,
			"regime":      overall,
			"main_driver": mainDriver,
		},
	}
}

func widthSeries(upper, lower []float64) []float64 {
	out := nanSlice(len(upper))
	for i := range upper {
		if math.IsNaN(upper[i]) || math.IsNaN(lower[i]) {
			continue
		}
		out[i] = upper[i] - lower[i]
	}
	return out
}

func volBlock(value, slope, r2, percentile float64) map[string]any {
	return map[string]any{
		"value":      round4(value),
		"slope":      round4(slope),
		"r_squared":  round4(r2),
		"percentile": round2(percentile),
		"regime":     volRegime(slope, percentile),
	}
}

// volRegime classifies a width series by its slope and percentile rank.
func volRegime(slope, percentile float64) string {
	switch {
	case slope > 0.05 && percentile > 70:
		return "EXPANSION"
	case slope < -0.05 && percentile < 30:
		return "COMPRESSION"
	case slope > 0:
		return "RISING_VOL"
	case slope < 0:
		return "COOLING_OFF"
	default:
		return "NEUTRAL"
	}
}
