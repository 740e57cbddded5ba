package analytics

import "math"

// TrueRange computes the per-bar true range. The first bar uses high-low.
func TrueRange(high, low, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i == 0 {
			out[i] = high[i] - low[i]
			continue
		}
		out[i] = maxF(high[i]-low[i], maxF(math.Abs(high[i]-closes[i-1]), math.Abs(low[i]-closes[i-1])))
	}
	return out
}

// ATR computes the average true range with Wilder smoothing, seeded by the
// SMA of the first n true ranges.
func ATR(high, low, closes []float64, n int) []float64 {
	tr := TrueRange(high, low, closes)
	out := nanSlice(len(tr))
	if len(tr) < n || n <= 0 {
		return out
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += tr[i]
	}
	out[n-1] = sum / float64(n)
	for i := n; i < len(tr); i++ {
		out[i] = (out[i-1]*float64(n-1) + tr[i]) / float64(n)
	}
	return out
}

// RSI computes the relative strength index with Wilder smoothing.
func RSI(closes []float64, n int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) <= n {
		return out
	}
	var gainSum, lossSum float64
	for i := 1; i <= n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gainSum += d
		} else {
			lossSum -= d
		}
	}
	avgGain := gainSum / float64(n)
	avgLoss := lossSum / float64(n)
	out[n] = rsiFrom(avgGain, avgLoss)
	for i := n + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var gain, loss float64
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(n-1) + gain) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line, signal line and histogram for the given spans.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist
}

// ADX computes the average directional index with Wilder smoothing. It also
// returns the +DI and -DI series.
func ADX(high, low, closes []float64, n int) (adx, plusDI, minusDI []float64) {
	length := len(closes)
	adx = nanSlice(length)
	plusDI = nanSlice(length)
	minusDI = nanSlice(length)
	if length <= 2*n {
		return adx, plusDI, minusDI
	}

	tr := TrueRange(high, low, closes)
	plusDM := make([]float64, length)
	minusDM := make([]float64, length)
	for i := 1; i < length; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder smoothed accumulations
	var trN, plusN, minusN float64
	for i := 1; i <= n; i++ {
		trN += tr[i]
		plusN += plusDM[i]
		minusN += minusDM[i]
	}

	dx := nanSlice(length)
	for i := n + 1; i < length; i++ {
		trN = trN - trN/float64(n) + tr[i]
		plusN = plusN - plusN/float64(n) + plusDM[i]
		minusN = minusN - minusN/float64(n) + minusDM[i]
		if trN == 0 {
			continue
		}
		p := 100 * plusN / trN
		m := 100 * minusN / trN
		plusDI[i] = p
		minusDI[i] = m
		if p+m == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(p-m) / (p + m)
	}

	// ADX is the Wilder average of DX, seeded with the first n DX values.
	var dxSum float64
	count := 0
	for i := n + 1; i < length && count < n; i++ {
		dxSum += dx[i]
		count++
	}
	if count < n {
		return adx, plusDI, minusDI
	}
	start := 2 * n
	adx[start] = dxSum / float64(n)
	for i := start + 1; i < length; i++ {
		adx[i] = (adx[i-1]*float64(n-1) + dx[i]) / float64(n)
	}
	return adx, plusDI, minusDI
}

// Bollinger returns upper/middle/lower bands over n bars with k standard
// deviations.
func Bollinger(closes []float64, n int, k float64) (upper, middle, lower []float64) {
	middle = SMA(closes, n)
	std := RollingStd(closes, n)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(middle[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return upper, middle, lower
}

// Keltner returns upper/middle/lower channel lines: EMA(n) ± k*ATR(n).
func Keltner(high, low, closes []float64, n int, k float64) (upper, middle, lower []float64) {
	middle = EMA(closes, n)
	atr := ATR(high, low, closes, n)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(atr[i]) {
			continue
		}
		upper[i] = middle[i] + k*atr[i]
		lower[i] = middle[i] - k*atr[i]
	}
	return upper, middle, lower
}

// OBV computes on-balance volume.
func OBV(closes, volume []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volume[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volume[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// MFI computes the money flow index over n bars.
func MFI(high, low, closes, volume []float64, n int) []float64 {
	length := len(closes)
	out := nanSlice(length)
	if length <= n {
		return out
	}
	typical := make([]float64, length)
	for i := range closes {
		typical[i] = (high[i] + low[i] + closes[i]) / 3
	}
	for i := n; i < length; i++ {
		var pos, neg float64
		for j := i - n + 1; j <= i; j++ {
			flow := typical[j] * volume[j]
			if typical[j] > typical[j-1] {
				pos += flow
			} else if typical[j] < typical[j-1] {
				neg += flow
			}
		}
		if neg == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+pos/neg)
	}
	return out
}

// RollingVWAP computes a rolling volume-weighted average of the typical price.
func RollingVWAP(high, low, closes, volume []float64, n int) []float64 {
	length := len(closes)
	pv := make([]float64, length)
	for i := range closes {
		pv[i] = (high[i] + low[i] + closes[i]) / 3 * volume[i]
	}
	pvSum := RollingSum(pv, n)
	vSum := RollingSum(volume, n)
	out := nanSlice(length)
	for i := range out {
		if math.IsNaN(pvSum[i]) || math.IsNaN(vSum[i]) || vSum[i] == 0 {
			continue
		}
		out[i] = pvSum[i] / vSum[i]
	}
	return out
}

// SessionVWAP computes the cumulative volume-weighted average price over the
// whole series.
func SessionVWAP(high, low, closes, volume []float64) float64 {
	var pvSum, vSum float64
	for i := range closes {
		typical := (high[i] + low[i] + closes[i]) / 3
		pvSum += typical * volume[i]
		vSum += volume[i]
	}
	if vSum == 0 {
		return math.NaN()
	}
	return pvSum / vSum
}

// rollingMid returns (max+min)/2 of the trailing n bars at each index.
func rollingMid(high, low []float64, n int) []float64 {
	out := nanSlice(len(high))
	for i := n - 1; i < len(high); i++ {
		hi := high[i-n+1]
		lo := low[i-n+1]
		for j := i - n + 2; j <= i; j++ {
			hi = maxF(hi, high[j])
			lo = minF(lo, low[j])
		}
		out[i] = (hi + lo) / 2
	}
	return out
}

// Ichimoku holds the cloud lines. SenkouA/B are forward-shifted by the
// displacement, so the value at index i was computed displacement bars ago.
type Ichimoku struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
}

// ComputeIchimoku builds the standard 9/26/52 system with displacement 26.
func ComputeIchimoku(high, low []float64) *Ichimoku {
	const (
		tenkanN      = 9
		kijunN       = 26
		senkouBN     = 52
		displacement = 26
	)
	length := len(high)
	ich := &Ichimoku{
		Tenkan:  rollingMid(high, low, tenkanN),
		Kijun:   rollingMid(high, low, kijunN),
		SenkouA: nanSlice(length),
		SenkouB: nanSlice(length),
	}
	spanB := rollingMid(high, low, senkouBN)
	for i := 0; i < length; i++ {
		src := i - displacement
		if src < 0 {
			continue
		}
		if !math.IsNaN(ich.Tenkan[src]) && !math.IsNaN(ich.Kijun[src]) {
			ich.SenkouA[i] = (ich.Tenkan[src] + ich.Kijun[src]) / 2
		}
		ich.SenkouB[i] = spanB[src]
	}
	return ich
}

// Fractals finds Williams-style fractal highs and lows: a bar whose extreme
// exceeds the wing bars on both sides.
func Fractals(high, low []float64, wing int) (highs, lows []int) {
	for i := wing; i < len(high)-wing; i++ {
		isHigh, isLow := true, true
		for j := i - wing; j <= i+wing; j++ {
			if j == i {
				continue
			}
			if high[j] >= high[i] {
				isHigh = false
			}
			if low[j] <= low[i] {
				isLow = false
			}
		}
		if isHigh {
			highs = append(highs, i)
		}
		if isLow {
			lows = append(lows, i)
		}
	}
	return highs, lows
}
