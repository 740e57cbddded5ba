package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/models"
)

func TestSmartMoneyEntryClassification(t *testing.T) {
	tape := []models.TradeTapeRow{
		{
			Date:               "1404/05/20",
			RealBuyValue:       1_200_000_000,
			RealBuyCount:       1000, // 1.2 M per buyer
			RealSellValue:      100_000_000,
			RealSellCount:      500, // 0.2 M per seller
			PersonOwnerChange:  800_000_000,
			CompanyOwnerChange: -800_000_000,
		},
	}
	out := AnalyzeSmartMoney(tape)
	daily := out["daily"].([]map[string]any)
	require.Len(t, daily, 1)

	day := daily[0]
	assert.Equal(t, "Smart Money Entry", day["status"])
	assert.InDelta(t, 1.2, day["per_capita_buy"].(float64), 1e-6)
	assert.InDelta(t, 0.2, day["per_capita_sell"].(float64), 1e-6)
	assert.InDelta(t, 6.0, day["per_capita_ratio"].(float64), 1e-6)
	assert.InDelta(t, 800.0, day["real_net_flow"].(float64), 1e-6)
	assert.InDelta(t, -800.0, day["legal_net_flow"].(float64), 1e-6)
}

func TestSmartMoneyZeroCounts(t *testing.T) {
	tape := []models.TradeTapeRow{
		{Date: "1404/05/20", RealBuyValue: 10e9, RealSellValue: 5e9},
	}
	out := AnalyzeSmartMoney(tape)
	daily := out["daily"].([]map[string]any)
	require.Len(t, daily, 1)

	day := daily[0]
	assert.Equal(t, 0.0, day["per_capita_buy"])
	assert.Equal(t, 0.0, day["per_capita_sell"])
	assert.Equal(t, 0.0, day["per_capita_ratio"])
	assert.Equal(t, "Normal", day["status"])
}

func TestSmartMoneyZeroBuyersWithSellersStaysNormal(t *testing.T) {
	// Sellers present but no buyers: the ratio is zero, which must not
	// read as a divergence.
	tape := []models.TradeTapeRow{
		{Date: "1404/05/20", RealSellValue: 5e9, RealSellCount: 200, PersonOwnerChange: -1e9},
	}
	out := AnalyzeSmartMoney(tape)
	daily := out["daily"].([]map[string]any)
	require.Len(t, daily, 1)

	day := daily[0]
	assert.Equal(t, 0.0, day["per_capita_buy"])
	assert.Equal(t, "Normal", day["status"])
}

func TestSmartMoneyStatuses(t *testing.T) {
	tests := []struct {
		name    string
		ratio   float64
		realNet float64
		want    string
	}{
		{"entry", 1.5, 100, "Smart Money Entry"},
		{"abnormal divergence", 0.05, 100, "Abnormal Divergence"},
		{"selling pressure", 0.8, -100, "High Selling Pressure"},
		{"retail buying divergence", 0.8, 100, "Divergence (Retail Buying)"},
		{"normal", 1.1, -50, "Normal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, smartMoneyStatus(tt.ratio, tt.realNet))
		})
	}
}

func TestSmartMoneyWindowNewestFirst(t *testing.T) {
	var tape []models.TradeTapeRow
	for _, d := range []string{"1404/05/10", "1404/05/11", "1404/05/12", "1404/05/13", "1404/05/14", "1404/05/15", "1404/05/16", "1404/05/17"} {
		tape = append(tape, models.TradeTapeRow{Date: d, RealBuyValue: 1e9, RealBuyCount: 10, RealSellValue: 1e9, RealSellCount: 10})
	}
	out := AnalyzeSmartMoney(tape)
	daily := out["daily"].([]map[string]any)
	require.Len(t, daily, smartMoneyWindow)
	assert.Equal(t, "1404/05/17", daily[0]["date"])
	assert.Equal(t, "1404/05/11", daily[len(daily)-1]["date"])
}
