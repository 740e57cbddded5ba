package analytics

import (
	"math"
	"strings"
)

var sparkChars = []rune{' ', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as a compact glyph strip. Fewer than two points
// yield an empty string; a flat series renders at mid height.
func Sparkline(values []float64) string {
	if len(values) < 2 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = minF(lo, v)
		hi = maxF(hi, v)
	}
	var b strings.Builder
	if hi == lo {
		for range values {
			b.WriteRune(sparkChars[3])
		}
		return b.String()
	}
	// Interior values truncate toward the lower glyph; only the maximum
	// reaches the top of the alphabet.
	scale := float64(len(sparkChars) - 1)
	for _, v := range values {
		idx := int((v - lo) / (hi - lo) * scale)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// dojiBodyPct is the open-close body size, as a fraction of the open, below
// which a candle counts as a doji.
const dojiBodyPct = 0.0005

// CandleSequence renders each bar as UP, DOWN or DOJI and reports the doji
// share.
func CandleSequence(open, closes []float64) (sequence []string, dojiRatio float64) {
	if len(open) == 0 {
		return nil, 0
	}
	sequence = make([]string, len(open))
	dojis := 0
	for i := range open {
		body := math.Abs(closes[i] - open[i])
		switch {
		case open[i] != 0 && body/open[i] < dojiBodyPct:
			sequence[i] = "DOJI"
			dojis++
		case closes[i] > open[i]:
			sequence[i] = "UP"
		default:
			sequence[i] = "DOWN"
		}
	}
	dojiRatio = round2(float64(dojis) / float64(len(open)))
	return sequence, dojiRatio
}
