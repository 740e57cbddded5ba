package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/models"
)

func TestLinReg(t *testing.T) {
	slope, r2 := LinReg([]float64{1, 2, 3, 4, 5})
	assert.InDelta(t, 1.0, slope, 1e-9)
	assert.InDelta(t, 1.0, r2, 1e-9)

	slope, r2 = LinReg([]float64{3, 3, 3, 3})
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 0.0, r2)

	slope, r2 = LinReg([]float64{1, math.NaN(), 3})
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 0.0, r2)

	slope, r2 = LinReg([]float64{5})
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 0.0, r2)
}

func TestStrengthFromR2(t *testing.T) {
	assert.Equal(t, "very_strong", StrengthFromR2(0.9))
	assert.Equal(t, "strong", StrengthFromR2(0.6))
	assert.Equal(t, "moderate", StrengthFromR2(0.3))
	assert.Equal(t, "weak", StrengthFromR2(0.1))
	// Boundaries are exclusive.
	assert.Equal(t, "strong", StrengthFromR2(0.8))
	assert.Equal(t, "moderate", StrengthFromR2(0.5))
	assert.Equal(t, "weak", StrengthFromR2(0.2))
}

func TestPercentileRank(t *testing.T) {
	window := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.InDelta(t, 95.0, PercentileRank(window, 10), 1e-9)
	assert.InDelta(t, 5.0, PercentileRank(window, 1), 1e-9)
	assert.InDelta(t, 100.0, PercentileRank(window, 11), 1e-9)
	assert.Equal(t, 0.0, PercentileRank(nil, 5))
}

func TestEMASeedAndConvergence(t *testing.T) {
	vals := []float64{10, 10, 10, 10}
	ema := EMA(vals, 5)
	for _, v := range ema {
		assert.InDelta(t, 10.0, v, 1e-9)
	}

	ema = EMA([]float64{0, 10}, 3)
	assert.InDelta(t, 0.0, ema[0], 1e-9)
	assert.InDelta(t, 5.0, ema[1], 1e-9)
}

func TestLogReturnsKeepsLength(t *testing.T) {
	rets := LogReturns([]float64{100, 110, 99})
	require.Len(t, rets, 3)
	assert.Equal(t, 0.0, rets[0])
	assert.InDelta(t, math.Log(1.1), rets[1], 1e-9)
}

func TestNewSeriesNormalizesNewestFirst(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC) }
	bars := []models.OHLCVBar{
		{Date: day(3), Close: 3},
		{Date: day(2), Close: 2},
		{Date: day(1), Close: 1},
	}
	s := NewSeries(bars)
	assert.Equal(t, []float64{1, 2, 3}, s.Close)
}
