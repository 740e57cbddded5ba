// Package analytics implements the pure technical-analysis kernel: indicator
// math, regime classification, level clustering, order-flow scoring and the
// compact visual summaries. Everything here is deterministic and free of I/O.
package analytics

import (
	"math"

	"github.com/finagent-ir/finagent/internal/models"
)

// MinBars is the minimum history length the kernel accepts.
const MinBars = 50

// Series holds an OHLCV history in ascending time order.
type Series struct {
	Dates  []string // Jalali date strings, ascending
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewSeries builds a Series from bars, normalizing to ascending order when the
// feed delivers newest-first.
func NewSeries(bars []models.OHLCVBar) *Series {
	ordered := bars
	if len(bars) > 1 && bars[0].Date.After(bars[len(bars)-1].Date) {
		ordered = make([]models.OHLCVBar, len(bars))
		for i, b := range bars {
			ordered[len(bars)-1-i] = b
		}
	}
	s := &Series{
		Dates:  make([]string, len(ordered)),
		Open:   make([]float64, len(ordered)),
		High:   make([]float64, len(ordered)),
		Low:    make([]float64, len(ordered)),
		Close:  make([]float64, len(ordered)),
		Volume: make([]float64, len(ordered)),
	}
	for i, b := range ordered {
		s.Dates[i] = b.JDate
		s.Open[i] = b.Open
		s.High[i] = b.High
		s.Low[i] = b.Low
		s.Close[i] = b.Close
		s.Volume[i] = b.Volume
	}
	return s
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Close) }

// LinReg fits y against x = 0..n-1 and returns the slope and R².
// Degenerate inputs (fewer than two points, zero variance, NaNs) return 0, 0.
func LinReg(y []float64) (slope, r2 float64) {
	n := len(y)
	if n < 2 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0
		}
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
		sumYY += v * v
	}
	fn := float64(n)
	denomX := fn*sumXX - sumX*sumX
	denomY := fn*sumYY - sumY*sumY
	if denomX == 0 {
		return 0, 0
	}
	slope = (fn*sumXY - sumX*sumY) / denomX
	if denomY == 0 {
		return slope, 0
	}
	r := (fn*sumXY - sumX*sumY) / math.Sqrt(denomX*denomY)
	return slope, r * r
}

// TailLinReg fits the last n values of y.
func TailLinReg(y []float64, n int) (slope, r2 float64) {
	if len(y) < n {
		return LinReg(y)
	}
	return LinReg(y[len(y)-n:])
}

// StrengthFromR2 maps a fit quality to a qualitative label.
func StrengthFromR2(r2 float64) string {
	switch {
	case r2 > 0.8:
		return "very_strong"
	case r2 > 0.5:
		return "strong"
	case r2 > 0.2:
		return "moderate"
	default:
		return "weak"
	}
}

// PercentileRank returns the percentile of value within window, using the
// mean of the strict and weak definitions so ties land mid-rank.
func PercentileRank(window []float64, value float64) float64 {
	if len(window) == 0 {
		return 0
	}
	var below, equal int
	for _, v := range window {
		switch {
		case v < value:
			below++
		case v == value:
			equal++
		}
	}
	n := float64(len(window))
	strict := float64(below) / n * 100
	weak := float64(below+equal) / n * 100
	return (strict + weak) / 2
}

// TailPercentileRank ranks the last value of y within its trailing window.
func TailPercentileRank(y []float64, window int) float64 {
	if len(y) == 0 {
		return 0
	}
	start := len(y) - window
	if start < 0 {
		start = 0
	}
	return PercentileRank(y[start:], y[len(y)-1])
}

// EMA computes an exponential moving average with alpha = 2/(span+1), seeded
// with the first value.
func EMA(vals []float64, span int) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = alpha*vals[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SMA computes a simple moving average; the first n-1 entries are NaN.
func SMA(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 0 || len(vals) < n {
		return out
	}
	var sum float64
	for i, v := range vals {
		sum += v
		if i >= n {
			sum -= vals[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// RollingStd computes a rolling population standard deviation; the first n-1
// entries are NaN.
func RollingStd(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 1 || len(vals) < n {
		return out
	}
	for i := n - 1; i < len(vals); i++ {
		window := vals[i-n+1 : i+1]
		var mean float64
		for _, v := range window {
			mean += v
		}
		mean /= float64(n)
		var ss float64
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n))
	}
	return out
}

// RollingSum computes a rolling sum; the first n-1 entries are NaN.
func RollingSum(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 0 || len(vals) < n {
		return out
	}
	var sum float64
	for i, v := range vals {
		sum += v
		if i >= n {
			sum -= vals[i-n]
		}
		if i >= n-1 {
			out[i] = sum
		}
	}
	return out
}

// LogReturns computes log(c[i]/c[i-1]) with a leading zero so the slice keeps
// the input length. Non-positive prices yield zero.
func LogReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i] > 0 && closes[i-1] > 0 {
			out[i] = math.Log(closes[i] / closes[i-1])
		}
	}
	return out
}

// CumSum computes the running total of vals.
func CumSum(vals []float64) []float64 {
	out := make([]float64, len(vals))
	var sum float64
	for i, v := range vals {
		sum += v
		out[i] = sum
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func last(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return vals[len(vals)-1]
}

// lastValid walks back to the last non-NaN value.
func lastValid(vals []float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) {
			return vals[i]
		}
	}
	return math.NaN()
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	var sum float64
	var n int
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10000) / 10000
}

// safeDiv divides and returns 0 for zero or invalid denominators.
func safeDiv(a, b float64) float64 {
	if b == 0 || math.IsNaN(b) || math.IsInf(b, 0) || math.IsNaN(a) {
		return 0
	}
	return a / b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
