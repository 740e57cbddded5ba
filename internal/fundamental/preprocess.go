// Package fundamental prepares the financial-statement inputs for the
// fundamental analysis agents. Statement tables arrive keyed by Persian row
// labels and Jalali statement dates; the preprocessors pick the relevant rows
// and derive the ratio blocks each agent reasons over.
package fundamental

import (
	"sort"

	"github.com/finagent-ir/finagent/internal/models"
)

// Statement row labels as published by the data provider.
const (
	rowTotalAssets      = "جمع کل دارایی‌ها"
	rowTotalLiabilities = "جمع بدهی‌ها"
	rowTotalEquity      = "جمع حقوق صاحبان سهام"
	rowCash             = "موجودی نقد"
	rowShortTermInvest  = "سرمایه‌گذاری‌های کوتاه‌مدت"
	rowRevenue          = "درآمدهای عملیاتی"
	rowGrossProfit      = "سود (زیان) ناخالص"
	rowOperatingIncome  = "سود (زیان) عملیاتی"
	rowNetIncome        = "سود (زیان ویژه پس از کسر مالیات"
	rowOperatingCash    = "جریان خالص ورود (خروج نقد حاصل از فعالیت های عملیاتی"
	rowDividendsPaid    = "سود سهام پرداختی"
	rowCurrentRatio     = "نسبت جاری"
	rowQuickRatio       = "نسبت آنی"
	rowDebtRatio        = "نسبت بدهی"
	rowROE              = "بازده حقوق صاحبان سهام"
)

// sortedDatesDesc returns the row's statement dates, newest first.
func sortedDatesDesc(series map[string]float64) []string {
	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// latestValue returns the newest value of a row.
func latestValue(table models.FinancialTable, row string) (float64, string, bool) {
	series, ok := table[row]
	if !ok || len(series) == 0 {
		return 0, "", false
	}
	dates := sortedDatesDesc(series)
	return series[dates[0]], dates[0], true
}

// currentAndPrev returns the two newest values of a row.
func currentAndPrev(table models.FinancialTable, row string) (cur, prev float64, curDate, prevDate string, ok bool) {
	series, found := table[row]
	if !found || len(series) < 2 {
		return 0, 0, "", "", false
	}
	dates := sortedDatesDesc(series)
	return series[dates[0]], series[dates[1]], dates[0], dates[1], true
}

func changePct(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// metric renders a row as {value, date} plus period change when available.
func metric(table models.FinancialTable, row string) map[string]any {
	out := map[string]any{}
	value, date, ok := latestValue(table, row)
	if !ok {
		return out
	}
	out["value"] = value
	out["date"] = date
	if cur, prev, _, prevDate, ok := currentAndPrev(table, row); ok {
		out["previous"] = prev
		out["previous_date"] = prevDate
		out["change_pct"] = changePct(cur, prev)
	}
	return out
}

// PrepareBalanceSheet extracts the solvency and capital-allocation picture
// for the balance-sheet agent.
func PrepareBalanceSheet(doc *models.AssetDocument) map[string]any {
	bs := doc.BalanceSheets
	ratios := doc.FinancialRatios

	return map[string]any{
		"agent_name": "balance_sheet",
		"raw_metrics": map[string]any{
			"total_assets":      metric(bs, rowTotalAssets),
			"total_liabilities": metric(bs, rowTotalLiabilities),
			"total_equity":      metric(bs, rowTotalEquity),
			"cash":              metric(bs, rowCash),
			"short_term_investments": metric(bs, rowShortTermInvest),
		},
		"liquidity_and_solvency_ratios": map[string]any{
			"current_ratio": metric(ratios, rowCurrentRatio),
			"quick_ratio":   metric(ratios, rowQuickRatio),
			"debt_ratio":    metric(ratios, rowDebtRatio),
		},
		"payout_and_capital_allocation": map[string]any{
			"dividends_paid":   metric(doc.CashFlow, rowDividendsPaid),
			"return_on_equity": metric(ratios, rowROE),
		},
	}
}

// PrepareEarningsQuality extracts profitability and cash-conversion inputs
// for the earnings-quality agent.
func PrepareEarningsQuality(doc *models.AssetDocument) map[string]any {
	pl := doc.ProfitLoss
	cf := doc.CashFlow

	out := map[string]any{
		"agent_name": "earnings_quality",
		"raw_metrics": map[string]any{
			"revenue":          metric(pl, rowRevenue),
			"gross_profit":     metric(pl, rowGrossProfit),
			"operating_income": metric(pl, rowOperatingIncome),
			"net_income":       metric(pl, rowNetIncome),
			"operating_cash_flow": metric(cf, rowOperatingCash),
		},
	}

	// Cash conversion: OCF over net income for the latest period.
	netIncome, _, niOK := latestValue(pl, rowNetIncome)
	ocf, _, cfOK := latestValue(cf, rowOperatingCash)
	if niOK && cfOK && netIncome != 0 {
		out["cash_conversion_ratio"] = ocf / netIncome
	}
	return out
}

// PrepareValuation builds the enterprise-value block for the valuation
// agent, combining statement rows with the market-data details.
func PrepareValuation(doc *models.AssetDocument) map[string]any {
	bs := doc.BalanceSheets

	totalDebt, _, _ := latestValue(bs, rowTotalLiabilities)
	cash, _, _ := latestValue(bs, rowCash)
	stInvest, _, _ := latestValue(bs, rowShortTermInvest)
	netDebt := totalDebt - cash - stInvest

	out := map[string]any{
		"agent_name": "valuation",
		"enterprise_value": map[string]any{
			"net_debt":               netDebt,
			"total_debt":             totalDebt,
			"cash":                   cash,
			"short_term_investments": stInvest,
		},
	}

	details := doc.Details
	if details != nil {
		market := map[string]any{}
		for _, key := range []string{"market_cap", "free_float", "pe", "pb", "group_pe", "estimated_eps"} {
			if v, ok := details[key]; ok {
				market[key] = v
			}
		}
		if mc, ok := toFloat(details["market_cap"]); ok {
			market["enterprise_value"] = mc + netDebt
		}
		out["market_context"] = market
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
