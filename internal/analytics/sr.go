package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/finagent-ir/finagent/internal/models"
)

type srLevel struct {
	Price  float64
	Source string
}

// AnalyzeSupportResistance assembles candidate price levels from moving
// averages, the session VWAP, recent fractals, the volume-profile point of
// control and externally provided pivot points, then clusters nearby levels
// into zones.
func AnalyzeSupportResistance(s *Series, pivots []models.PivotLevel) map[string]any {
	currentPrice := last(s.Close)
	var levels []srLevel

	ema20 := EMA(s.Close, 20)
	levels = append(levels, srLevel{Price: last(ema20), Source: "EMA_20"})

	if s.Len() >= 50 {
		sma50 := SMA(s.Close, 50)
		levels = append(levels, srLevel{Price: lastValid(sma50), Source: "SMA_50"})
	}

	if vwap := SessionVWAP(s.High, s.Low, s.Close, s.Volume); !math.IsNaN(vwap) {
		levels = append(levels, srLevel{Price: vwap, Source: "VWAP"})
	}

	// Fractals from the last 50 bars, keeping the 3 most recent of each kind.
	start := s.Len() - 50
	if start < 0 {
		start = 0
	}
	fh, fl := Fractals(s.High[start:], s.Low[start:], 5)
	for _, i := range lastN(fh, 3) {
		levels = append(levels, srLevel{Price: s.High[start+i], Source: "FRACTAL"})
	}
	for _, i := range lastN(fl, 3) {
		levels = append(levels, srLevel{Price: s.Low[start+i], Source: "FRACTAL"})
	}

	if poc := volumeProfilePOC(s.Close, s.Volume, 30); !math.IsNaN(poc) {
		levels = append(levels, srLevel{Price: poc, Source: "VPVR_POC"})
	}

	for _, p := range pivots {
		if p.Value <= 0 || math.IsNaN(p.Value) {
			continue
		}
		source := strings.ToUpper(p.Name)
		if strings.Contains(strings.ToLower(p.Name), "pivot") {
			source = "PIVOT"
		}
		levels = append(levels, srLevel{Price: p.Value, Source: source})
	}

	zones := clusterLevels(levels, currentPrice, 0.005)

	var supports, resistances []map[string]any
	for _, z := range zones {
		if z["type"] == "support" {
			supports = append(supports, z)
		} else {
			resistances = append(resistances, z)
		}
	}
	// Supports nearest-first below price, resistances nearest-first above.
	sort.Slice(supports, func(i, j int) bool {
		return supports[i]["avg_price"].(float64) > supports[j]["avg_price"].(float64)
	})
	sort.Slice(resistances, func(i, j int) bool {
		return resistances[i]["avg_price"].(float64) < resistances[j]["avg_price"].(float64)
	})

	return map[string]any{
		"current_price": round2(currentPrice),
		"supports":      supports,
		"resistances":   resistances,
	}
}

func lastN(indices []int, n int) []int {
	if len(indices) <= n {
		return indices
	}
	return indices[len(indices)-n:]
}

// volumeProfilePOC bins closes into equal price buckets, sums volume per
// bucket and returns the midpoint of the heaviest bucket.
func volumeProfilePOC(closes, volume []float64, bins int) float64 {
	if len(closes) == 0 || bins <= 0 {
		return math.NaN()
	}
	lo, hi := closes[0], closes[0]
	for _, c := range closes {
		lo = minF(lo, c)
		hi = maxF(hi, c)
	}
	if hi == lo {
		return lo
	}
	width := (hi - lo) / float64(bins)
	buckets := make([]float64, bins)
	for i, c := range closes {
		b := int((c - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		buckets[b] += volume[i]
	}
	best := 0
	for i, v := range buckets {
		if v > buckets[best] {
			best = i
		}
	}
	return lo + width*(float64(best)+0.5)
}

// clusterLevels sorts levels by price and merges neighbours whose relative
// gap is within maxGap. Zone strength scales with the number of distinct
// contributing sources.
func clusterLevels(levels []srLevel, currentPrice, maxGap float64) []map[string]any {
	valid := levels[:0]
	for _, l := range levels {
		if !math.IsNaN(l.Price) && l.Price > 0 {
			valid = append(valid, l)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Price < valid[j].Price })

	var zones []map[string]any
	cluster := []srLevel{valid[0]}

	flush := func() {
		lo, hi := cluster[0].Price, cluster[0].Price
		var sum float64
		sources := map[string]bool{}
		for _, l := range cluster {
			lo = minF(lo, l.Price)
			hi = maxF(hi, l.Price)
			sum += l.Price
			sources[l.Source] = true
		}
		avg := sum / float64(len(cluster))
		zoneType := "resistance"
		if avg < currentPrice {
			zoneType = "support"
		}
		contributors := make([]string, 0, len(sources))
		for src := range sources {
			contributors = append(contributors, src)
		}
		sort.Strings(contributors)
		zones = append(zones, map[string]any{
			"type":           zoneType,
			"price_range":    []float64{round2(lo), round2(hi)},
			"avg_price":      round2(avg),
			"strength_score": minF(float64(len(sources))*0.25, 1.0),
			"contributors":   contributors,
		})
	}

	for _, l := range valid[1:] {
		prev := cluster[len(cluster)-1].Price
		if prev > 0 && (l.Price-prev)/prev <= maxGap {
			cluster = append(cluster, l)
			continue
		}
		flush()
		cluster = []srLevel{l}
	}
	flush()
	return zones
}
