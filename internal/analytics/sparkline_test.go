package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparklineAlphabetAndLength(t *testing.T) {
	values := []float64{1, 5, 3, 9, 2, 7, 4}
	line := Sparkline(values)

	runes := []rune(line)
	require.Len(t, runes, len(values))
	for _, r := range runes {
		assert.Contains(t, sparkChars, r)
	}
	// Extremes map to the ends of the alphabet.
	assert.Equal(t, sparkChars[0], runes[0])
	assert.Equal(t, sparkChars[len(sparkChars)-1], runes[3])
}

func TestSparklineTruncatesInteriorLevels(t *testing.T) {
	// The midpoint of the range sits at 3.5 levels and truncates down to
	// glyph 3, not up to 4.
	runes := []rune(Sparkline([]float64{0, 1, 2}))
	require.Len(t, runes, 3)
	assert.Equal(t, sparkChars[0], runes[0])
	assert.Equal(t, sparkChars[3], runes[1])
	assert.Equal(t, sparkChars[7], runes[2])
}

func TestSparklineDegenerateInputs(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "", Sparkline([]float64{5}))

	flat := Sparkline([]float64{4, 4, 4})
	for _, r := range flat {
		assert.Equal(t, sparkChars[3], r)
	}
	assert.Len(t, []rune(flat), 3)
}

func TestCandleSequence(t *testing.T) {
	open := []float64{100, 100, 100, 100}
	closes := []float64{105, 95, 100.01, 100}
	seq, dojiRatio := CandleSequence(open, closes)

	assert.Equal(t, []string{"UP", "DOWN", "DOJI", "DOJI"}, seq)
	assert.InDelta(t, 0.5, dojiRatio, 1e-9)

	seq, dojiRatio = CandleSequence(nil, nil)
	assert.Nil(t, seq)
	assert.Equal(t, 0.0, dojiRatio)
}
