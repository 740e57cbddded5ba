package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/models"
)

func TestZoneInvariants(t *testing.T) {
	s := NewSeries(syntheticBars(120))
	out := AnalyzeSupportResistance(s, []models.PivotLevel{
		{Name: "PivotPointClassic(30).S1", Value: 1200},
		{Name: "PivotPointFibonacci(30).R1", Value: 1650},
	})

	current := out["current_price"].(float64)
	supports, _ := out["supports"].([]map[string]any)
	resistances, _ := out["resistances"].([]map[string]any)
	require.NotEmpty(t, append(append([]map[string]any{}, supports...), resistances...))

	checkZone := func(z map[string]any, zoneType string) {
		assert.Equal(t, zoneType, z["type"])
		pr := z["price_range"].([]float64)
		require.Len(t, pr, 2)
		assert.LessOrEqual(t, pr[0], pr[1])
		avg := z["avg_price"].(float64)
		assert.GreaterOrEqual(t, avg, pr[0])
		assert.LessOrEqual(t, avg, pr[1])
		strength := z["strength_score"].(float64)
		assert.GreaterOrEqual(t, strength, 0.25)
		assert.LessOrEqual(t, strength, 1.0)
		assert.NotEmpty(t, z["contributors"])
	}

	for _, z := range supports {
		checkZone(z, "support")
		assert.Less(t, z["avg_price"].(float64), current)
	}
	for _, z := range resistances {
		checkZone(z, "resistance")
		assert.Greater(t, z["avg_price"].(float64), current)
	}

	// Supports are ordered nearest-first (descending price), resistances
	// nearest-first (ascending price).
	for i := 1; i < len(supports); i++ {
		assert.GreaterOrEqual(t, supports[i-1]["avg_price"].(float64), supports[i]["avg_price"].(float64))
	}
	for i := 1; i < len(resistances); i++ {
		assert.LessOrEqual(t, resistances[i-1]["avg_price"].(float64), resistances[i]["avg_price"].(float64))
	}
}

func TestClusterMergesNearbyLevels(t *testing.T) {
	levels := []srLevel{
		{Price: 1000, Source: "EMA_20"},
		{Price: 1003, Source: "VWAP"},    // within 0.5% of 1000
		{Price: 1100, Source: "FRACTAL"}, // separate zone
	}
	zones := clusterLevels(levels, 1050, 0.005)
	require.Len(t, zones, 2)

	merged := zones[0]
	assert.Equal(t, []string{"EMA_20", "VWAP"}, merged["contributors"])
	assert.InDelta(t, 0.5, merged["strength_score"].(float64), 1e-9)
	assert.Equal(t, "support", merged["type"])
	assert.Equal(t, "resistance", zones[1]["type"])
}

func TestClusterStrengthCapsAtOne(t *testing.T) {
	levels := []srLevel{
		{Price: 1000, Source: "A"},
		{Price: 1001, Source: "B"},
		{Price: 1002, Source: "C"},
		{Price: 1003, Source: "D"},
		{Price: 1004, Source: "E"},
	}
	zones := clusterLevels(levels, 900, 0.005)
	require.Len(t, zones, 1)
	assert.Equal(t, 1.0, zones[0]["strength_score"])
}

func TestPivotSourceNaming(t *testing.T) {
	s := NewSeries(syntheticBars(120))
	out := AnalyzeSupportResistance(s, []models.PivotLevel{
		{Name: "PivotPointClassic(30).P", Value: last(s.Close) * 1.2},
	})
	resistances, _ := out["resistances"].([]map[string]any)
	found := false
	for _, z := range resistances {
		for _, c := range z["contributors"].([]string) {
			if c == "PIVOT" {
				found = true
			}
		}
	}
	assert.True(t, found, "pivot-derived levels are labeled PIVOT")
}

func TestVolumeProfilePOC(t *testing.T) {
	closes := []float64{10, 10.1, 10.2, 20, 20.1}
	volume := []float64{100, 100, 100, 5000, 5000}
	poc := volumeProfilePOC(closes, volume, 30)
	assert.Greater(t, poc, 19.0, "POC lands in the heavy bucket")
}
