package analytics

import (
	"sort"

	"github.com/finagent-ir/finagent/internal/models"
)

// smartMoneyWindow is the number of most recent tape days analyzed.
const smartMoneyWindow = 7

// AnalyzeSmartMoney scores the retail/institutional trade tape: per-capita
// buy and sell sizes, their ratio and the net money flows, with a daily
// status classification. Rows are emitted newest-first. Values are in
// millions of rials.
func AnalyzeSmartMoney(tape []models.TradeTapeRow) map[string]any {
	rows := make([]models.TradeTapeRow, len(tape))
	copy(rows, tape)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	if len(rows) > smartMoneyWindow {
		rows = rows[:smartMoneyWindow]
	}

	days := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		perCapBuy := 0.0
		if r.RealBuyCount > 0 {
			perCapBuy = r.RealBuyValue / r.RealBuyCount / 1e6
		}
		perCapSell := 0.0
		if r.RealSellCount > 0 {
			perCapSell = r.RealSellValue / r.RealSellCount / 1e6
		}
		ratio := 0.0
		if perCapSell > 0 {
			ratio = perCapBuy / perCapSell
		}
		// Net flows come from the reported ownership change, not buy
		// minus sell value.
		realNet := r.PersonOwnerChange / 1e6
		legalNet := r.CompanyOwnerChange / 1e6

		// A day without retail buyers is quiet, not divergent.
		status := "Normal"
		if r.RealBuyCount > 0 {
			status = smartMoneyStatus(ratio, realNet)
		}

		days = append(days, map[string]any{
			"date":             r.Date,
			"per_capita_buy":   round2(perCapBuy),
			"per_capita_sell":  round2(perCapSell),
			"per_capita_ratio": round2(ratio),
			"real_net_flow":    round2(realNet),
			"legal_net_flow":   round2(legalNet),
			"status":           status,
		})
	}

	return map[string]any{
		"window_days": len(days),
		"daily":       days,
	}
}

// smartMoneyStatus classifies one day of tape. Rules are evaluated top down.
func smartMoneyStatus(ratio, realNet float64) string {
	switch {
	case ratio >= 1.2 && realNet > 0:
		return "Smart Money Entry"
	case ratio < 0.1:
		return "Abnormal Divergence"
	case ratio < 1 && realNet < 0:
		return "High Selling Pressure"
	case ratio < 1 && realNet > 0:
		return "Divergence (Retail Buying)"
	default:
		return "Normal"
	}
}
