package rahavard

import (
	"context"
	"net/url"

	"github.com/finagent-ir/finagent/internal/models"
)

// Statement endpoints. Each returns a row-label keyed table of dated values.
const (
	pathBalanceSheets   = "/fundamental/company-balance-sheets"
	pathProfitLoss      = "/fundamental/company-profit-losses"
	pathCashFlow        = "/fundamental/company-cash-flows"
	pathFinancialRatios = "/fundamental/company-financial-ratios"
)

type statementItem struct {
	Title string  `json:"title"` // Persian row label
	Date  string  `json:"date"`  // Jalali statement date
	Value float64 `json:"value"`
}

type statementResponse struct {
	Data []statementItem `json:"data"`
}

func (c *Client) getStatement(ctx context.Context, path, assetID string) (models.FinancialTable, error) {
	params := url.Values{}
	params.Set("asset_id", assetID)
	params.Set("announcement_type_ids", "1")
	params.Set("financial_view_type_ids", "3")

	var resp statementResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	table := models.FinancialTable{}
	for _, item := range resp.Data {
		if table[item.Title] == nil {
			table[item.Title] = map[string]float64{}
		}
		table[item.Title][item.Date] = item.Value
	}
	return table, nil
}

// GetBalanceSheets returns the balance-sheet table for the asset.
func (c *Client) GetBalanceSheets(ctx context.Context, assetID string) (models.FinancialTable, error) {
	return c.getStatement(ctx, pathBalanceSheets, assetID)
}

// GetProfitLoss returns the income-statement table for the asset.
func (c *Client) GetProfitLoss(ctx context.Context, assetID string) (models.FinancialTable, error) {
	return c.getStatement(ctx, pathProfitLoss, assetID)
}

// GetCashFlow returns the cash-flow table for the asset.
func (c *Client) GetCashFlow(ctx context.Context, assetID string) (models.FinancialTable, error) {
	return c.getStatement(ctx, pathCashFlow, assetID)
}

// GetFinancialRatios returns the financial-ratio table for the asset.
func (c *Client) GetFinancialRatios(ctx context.Context, assetID string) (models.FinancialTable, error) {
	return c.getStatement(ctx, pathFinancialRatios, assetID)
}
