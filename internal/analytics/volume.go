package analytics

import "math"

// AnalyzeVolume measures participation and order flow: moving-average volume
// ratios, relative volume, OBV, the cumulative volume delta, realized
// volatility of returns, MFI, volume-weighted returns and the rolling VWAP.
func AnalyzeVolume(s *Series) map[string]any {
	vma20 := SMA(s.Volume, 20)
	vma50 := SMA(s.Volume, 50)

	vmaRatio := nanSlice(s.Len())
	rvol := nanSlice(s.Len())
	for i := range vmaRatio {
		if !math.IsNaN(vma20[i]) && !math.IsNaN(vma50[i]) {
			vmaRatio[i] = vma20[i] / (vma50[i] + 1e-9)
		}
		if !math.IsNaN(vma20[i]) {
			rvol[i] = s.Volume[i] / (vma20[i] + 1e-9)
		}
	}

	obv := OBV(s.Close, s.Volume)

	// Cumulative volume delta approximated from the candle direction.
	delta := make([]float64, s.Len())
	for i := range delta {
		if s.Close[i] >= s.Open[i] {
			delta[i] = s.Volume[i]
		} else {
			delta[i] = -s.Volume[i]
		}
	}
	cvd := CumSum(delta)

	logRet := LogReturns(s.Close)
	rv30 := annualizedVol(logRet, 30)
	rv90 := annualizedVol(logRet, 90)

	mfi := MFI(s.High, s.Low, s.Close, s.Volume, 14)

	vwr := nanSlice(s.Len())
	for i := range vwr {
		if !math.IsNaN(vma20[i]) {
			vwr[i] = logRet[i] * s.Volume[i] / (vma20[i] + 1e-9)
		}
	}

	vwap := RollingVWAP(s.High, s.Low, s.Close, s.Volume, 20)
	closeLast := last(s.Close)
	vwapLast := lastValid(vwap)

	vmaSlope, _ := LinReg(tailValid(vmaRatio, 15))
	rvolSlope, _ := LinReg(tailValid(rvol, 10))
	obvSlope, _ := LinReg(tailValid(obv, 20))
	cvdSlope, _ := LinReg(tailValid(cvd, 15))
	rv30Slope, _ := LinReg(tailValid(rv30, 20))
	rv90Slope, _ := LinReg(tailValid(rv90, 20))
	mfiSlope, _ := LinReg(tailValid(mfi, 10))
	vwrSlope, _ := LinReg(tailValid(vwr, 14))
	vwapSlope, _ := LinReg(tailValid(vwap, 15))

	return map[string]any{
		"vma_ratio": map[string]any{
			"value":  round4(lastValid(vmaRatio)),
			"slope":  round4(vmaSlope),
			"regime": aboveBelowRegime(lastValid(vmaRatio), 1.0, "expanding_participation", "contracting_participation"),
		},
		"rvol": map[string]any{
			"value":  round4(lastValid(rvol)),
			"slope":  round4(rvolSlope),
			"regime": rvolRegime(lastValid(rvol)),
		},
		"obv": map[string]any{
			"value":  round2(last(obv)),
			"slope":  round4(obvSlope),
			"regime": slopeRegime(obvSlope, "accumulation", "distribution"),
		},
		"cvd": map[string]any{
			"value":  round2(last(cvd)),
			"slope":  round4(cvdSlope),
			"regime": slopeRegime(cvdSlope, "buyer_control", "seller_control"),
		},
		"realized_vol_30": map[string]any{
			"value":  round2(lastValid(rv30)),
			"slope":  round4(rv30Slope),
			"regime": slopeRegime(rv30Slope, "heating_up", "cooling_down"),
		},
		"realized_vol_90": map[string]any{
			"value":  round2(lastValid(rv90)),
			"slope":  round4(rv90Slope),
			"regime": slopeRegime(rv90Slope, "heating_up", "cooling_down"),
		},
		"mfi": map[string]any{
			"value":  round2(lastValid(mfi)),
			"slope":  round4(mfiSlope),
			"regime": mfiRegime(lastValid(mfi)),
		},
		"vol_weighted_return": map[string]any{
			"value":  round4(lastValid(vwr)),
			"slope":  round4(vwrSlope),
			"regime": slopeRegime(vwrSlope, "efficient_advance", "efficient_decline"),
		},
		"vwap_20": map[string]any{
			"distance_percent": round2(safeDiv(closeLast-vwapLast, vwapLast) * 100),
			"slope":            round4(vwapSlope),
			"regime":           aboveBelowRegime(closeLast, vwapLast, "above_vwap", "below_vwap"),
		},
	}
}

func annualizedVol(logRet []float64, n int) []float64 {
	std := RollingStd(logRet, n)
	out := nanSlice(len(std))
	for i := range std {
		if math.IsNaN(std[i]) {
			continue
		}
		out[i] = std[i] * math.Sqrt(252) * 100
	}
	return out
}

func slopeRegime(slope float64, up, down string) string {
	switch {
	case slope > 0:
		return up
	case slope < 0:
		return down
	default:
		return "neutral"
	}
}

func aboveBelowRegime(value, threshold float64, above, below string) string {
	switch {
	case value > threshold:
		return above
	case value < threshold:
		return below
	default:
		return "neutral"
	}
}

func rvolRegime(rvol float64) string {
	switch {
	case rvol > 2.0:
		return "volume_shock"
	case rvol > 1.5:
		return "elevated"
	case rvol < 0.5:
		return "dormant"
	default:
		return "normal"
	}
}

func mfiRegime(mfi float64) string {
	switch {
	case mfi > 80:
		return "overbought_flow"
	case mfi < 20:
		return "oversold_flow"
	case mfi >= 50:
		return "positive_flow"
	default:
		return "negative_flow"
	}
}
