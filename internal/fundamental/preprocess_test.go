package fundamental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/models"
)

func fixtureDoc() *models.AssetDocument {
	return &models.AssetDocument{
		BalanceSheets: models.FinancialTable{
			rowTotalAssets:      {"1403/12/29": 5000, "1402/12/29": 4000},
			rowTotalLiabilities: {"1403/12/29": 2000, "1402/12/29": 1800},
			rowCash:             {"1403/12/29": 300},
			rowShortTermInvest:  {"1403/12/29": 200},
		},
		ProfitLoss: models.FinancialTable{
			rowNetIncome: {"1403/12/29": 1000, "1402/12/29": 800},
			rowRevenue:   {"1403/12/29": 7000, "1402/12/29": 6000},
		},
		CashFlow: models.FinancialTable{
			rowOperatingCash: {"1403/12/29": 900},
		},
		FinancialRatios: models.FinancialTable{
			rowCurrentRatio: {"1403/12/29": 1.4, "1402/12/29": 1.2},
		},
		Details: map[string]any{
			"market_cap": 10000.0,
			"pe":         6.5,
		},
	}
}

func TestLatestValueOrdersByDate(t *testing.T) {
	doc := fixtureDoc()
	v, date, ok := latestValue(doc.BalanceSheets, rowTotalAssets)
	require.True(t, ok)
	assert.Equal(t, 5000.0, v)
	assert.Equal(t, "1403/12/29", date)

	_, _, ok = latestValue(doc.BalanceSheets, "missing")
	assert.False(t, ok)
}

func TestPrepareBalanceSheet(t *testing.T) {
	out := PrepareBalanceSheet(fixtureDoc())
	assert.Equal(t, "balance_sheet", out["agent_name"])

	raw := out["raw_metrics"].(map[string]any)
	assets := raw["total_assets"].(map[string]any)
	assert.Equal(t, 5000.0, assets["value"])
	assert.InDelta(t, 25.0, assets["change_pct"].(float64), 1e-9)

	ratios := out["liquidity_and_solvency_ratios"].(map[string]any)
	current := ratios["current_ratio"].(map[string]any)
	assert.Equal(t, 1.4, current["value"])
}

func TestPrepareEarningsQualityCashConversion(t *testing.T) {
	out := PrepareEarningsQuality(fixtureDoc())
	assert.InDelta(t, 0.9, out["cash_conversion_ratio"].(float64), 1e-9)

	// Zero net income must not divide.
	doc := fixtureDoc()
	doc.ProfitLoss[rowNetIncome] = map[string]float64{"1403/12/29": 0}
	out = PrepareEarningsQuality(doc)
	assert.NotContains(t, out, "cash_conversion_ratio")
}

func TestPrepareValuationNetDebt(t *testing.T) {
	out := PrepareValuation(fixtureDoc())
	ev := out["enterprise_value"].(map[string]any)
	assert.Equal(t, 1500.0, ev["net_debt"]) // 2000 - 300 - 200

	market := out["market_context"].(map[string]any)
	assert.Equal(t, 11500.0, market["enterprise_value"])
	assert.Equal(t, 6.5, market["pe"])
}
