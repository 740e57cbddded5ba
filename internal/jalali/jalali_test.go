package jalali

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	dates := []string{
		"1403/01/01",
		"1403/06/31",
		"1403/12/30", // 1403 is a leap year
		"1402/12/29",
		"1404/07/15",
	}
	for _, d := range dates {
		t.Run(d, func(t *testing.T) {
			parsed, err := Parse(d)
			require.NoError(t, err)
			assert.Equal(t, d, Format(parsed))
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"wrong separator", "1403-01-01"},
		{"two parts", "1403/01"},
		{"non numeric", "1403/ab/01"},
		{"month out of range", "1403/13/01"},
		{"day out of range", "1403/01/32"},
		{"esfand 30 in non-leap year", "1402/12/30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestParseKnownConversion(t *testing.T) {
	// 1403/01/01 is Nowruz, 2024-03-20 Gregorian.
	parsed, err := Parse("1403/01/01")
	require.NoError(t, err)
	assert.Equal(t, 2024, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())
	assert.Equal(t, 20, parsed.Day())
}

func TestWithinDays(t *testing.T) {
	ref, err := Parse("1403/05/15")
	require.NoError(t, err)

	assert.True(t, WithinDays("1403/05/15", ref, 7))
	assert.True(t, WithinDays("1403/05/10", ref, 7))
	assert.False(t, WithinDays("1403/05/01", ref, 7))
	assert.False(t, WithinDays("1403/05/20", ref, 7), "future dates are outside the window")
	assert.False(t, WithinDays("not-a-date", ref, 7))
}
