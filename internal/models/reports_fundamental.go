package models

// Structured outputs of the fundamental analysis agents.

// BalanceSheetOutput is the structured report of the balance-sheet agent.
type BalanceSheetOutput struct {
	BalanceSheetSignal string   `json:"balance_sheet_signal" validate:"required,oneof=Robust Stable Strained Distressed"`
	FinancialStability string   `json:"financial_stability" validate:"required"`
	CapitalAllocation  string   `json:"capital_allocation" validate:"required"`
	CoreCauses         []string `json:"core_causes" validate:"required,min=1,max=3,dive,required"`
	RiskFlags          []string `json:"risk_flags"`
}

// EarningsQualityOutput is the structured report of the earnings-quality agent.
type EarningsQualityOutput struct {
	EarningsQualitySignal string   `json:"earnings_quality_signal" validate:"required,oneof=High Moderate Low Suspect"`
	ProfitabilityTrend    string   `json:"profitability_trend" validate:"required"`
	CashConversion        string   `json:"cash_conversion" validate:"required"`
	CoreCauses            []string `json:"core_causes" validate:"required,min=1,max=3,dive,required"`
	RiskFlags             []string `json:"risk_flags"`
}

// ValuationOutput is the structured report of the valuation agent.
type ValuationOutput struct {
	ValuationSignal  string   `json:"valuation_signal" validate:"required,oneof=Undervalued Fair Stretched Overvalued"`
	EVAnalysis       string   `json:"ev_analysis" validate:"required"`
	MultiplesContext string   `json:"multiples_context" validate:"required"`
	CoreCauses       []string `json:"core_causes" validate:"required,min=1,max=3,dive,required"`
	RiskFlags        []string `json:"risk_flags"`
}

// CodalReportSelection is the id subset the codal agent picks for scraping.
type CodalReportSelection struct {
	SelectedIDs []string `json:"selected_ids" validate:"required"`
}

// CodalAnalysisOutput summarizes scraped regulatory filings.
type CodalAnalysisOutput struct {
	KeyFindings []string `json:"key_findings" validate:"required,min=1,dive,required"`
	Summary     string   `json:"summary" validate:"required"`
}

// DefaultCodalAnalysis is returned when no filing could be scraped.
func DefaultCodalAnalysis() *CodalAnalysisOutput {
	return &CodalAnalysisOutput{
		KeyFindings: []string{"No accessible reports found"},
		Summary:     "Unable to analyze codal reports.",
	}
}

// FundamentalAnalysisOutput fuses the four fundamental worker reports.
type FundamentalAnalysisOutput struct {
	FinancialResilience string   `json:"financial_resilience" validate:"required"`
	BusinessQuality     string   `json:"business_quality" validate:"required"`
	ValuationContext    string   `json:"valuation_context" validate:"required"`
	StrategicOutlook    string   `json:"strategic_outlook" validate:"required"`
	InvestmentBias      string   `json:"investment_bias" validate:"required,oneof='Strong Buy' Buy Hold Sell 'Strong Sell'"`
	ConfidenceScore     float64  `json:"confidence_score" validate:"gte=0,lte=1"`
	ExecutiveSummary    string   `json:"executive_summary" validate:"required"`
	KeyDrivers          []string `json:"key_drivers" validate:"required,min=1,max=3,dive,required"`
	ThesisRisks         []string `json:"thesis_risks" validate:"required,min=1,max=3,dive,required"`
}
