package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/models"
)

func sampleTechnical() *models.TechnicalConsensus {
	return &models.TechnicalConsensus{
		SignalBias: "BUY", ConfidenceScore: 0.72,
		ExecutiveSummary: "Constructive picture.", TechnicalNarrative: "Trend intact.",
		ConfluenceFactors:      []string{"trend and volume aligned"},
		InstitutionalAlignment: "aligned", SmartMoneyDivergence: "none",
		KeyLevelsToWatch: []string{"7500"},
		Scenarios: []models.TradeScenario{{
			ScenarioType: "continuation", Probability: 0.6,
			Description: "Grind higher.", InvalidationCondition: "Close below 7000",
		}},
		PrimaryRisk: "Index weakness.",
	}
}

func TestTechnicalSectionSurfacesFields(t *testing.T) {
	out := TechnicalSection(sampleTechnical())
	assert.Contains(t, out, "**Signal:** BUY")
	assert.Contains(t, out, "72%")
	assert.Contains(t, out, "Close below 7000")
	assert.Contains(t, out, "Index weakness.")
}

func TestDecodeFromMap(t *testing.T) {
	value := map[string]any{
		"investment_bias":      "Hold",
		"confidence_score":     0.5,
		"executive_summary":    "Steady.",
		"financial_resilience": "Solid",
		"business_quality":     "Average",
		"valuation_context":    "Fair",
		"strategic_outlook":    "Stable",
		"key_drivers":          []any{"cash"},
		"thesis_risks":         []any{"fx"},
	}
	c, err := Decode[models.FundamentalAnalysisOutput](value)
	require.NoError(t, err)
	assert.Equal(t, "Hold", c.InvestmentBias)

	out := FundamentalSection(c)
	assert.Contains(t, out, "**Bias:** Hold")
	assert.Contains(t, out, "- fx")
}

func TestFullReportConcatenates(t *testing.T) {
	social := &models.NewsSocialFusionOutput{
		InformationBias: "Neutral", ConfidenceScore: 0.5,
		NarrativeAssessment: models.NarrativeAssessment{State: "Aligned", Explanation: "Quiet."},
		KeyDrivers:          []string{"none"},
		ExecutiveSummary:    "Nothing new.",
		Scenarios:           []models.FusionScenario{{ScenarioType: "Primary", Description: "Status quo."}},
		NarrativeKillSwitch: "Material filing.",
	}
	fundamental := &models.FundamentalAnalysisOutput{
		InvestmentBias: "Hold", ConfidenceScore: 0.5, ExecutiveSummary: "Steady.",
		FinancialResilience: "Solid", BusinessQuality: "Average",
		ValuationContext: "Fair", StrategicOutlook: "Stable",
		KeyDrivers: []string{"cash"}, ThesisRisks: []string{"fx"},
	}

	out, err := FullReport("فملی", sampleTechnical(), fundamental, social, "## جمع‌بندی\nپایان.")
	require.NoError(t, err)
	assert.Contains(t, out, "# فملی")
	assert.Contains(t, out, "## Technical Analysis")
	assert.Contains(t, out, "## Fundamental Analysis")
	assert.Contains(t, out, "## News & Social Sentiment")
	assert.Contains(t, out, "## Final Memo")
}
