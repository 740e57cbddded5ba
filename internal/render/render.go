// Package render formats the branch consensus reports and the final memo as
// markdown for the terminal and the HTTP report page. Fields surface verbatim
// from the consensus objects.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finagent-ir/finagent/internal/models"
)

// Decode converts a state value (typed struct or JSON map) into the target
// consensus type.
func Decode[T any](v any) (*T, error) {
	if typed, ok := v.(*T); ok {
		return typed, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode consensus value: %w", err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to decode consensus value: %w", err)
	}
	return out, nil
}

// TechnicalSection renders the technical consensus.
func TechnicalSection(c *models.TechnicalConsensus) string {
	var b strings.Builder
	b.WriteString("## Technical Analysis\n\n")
	fmt.Fprintf(&b, "**Signal:** %s  \n", c.SignalBias)
	fmt.Fprintf(&b, "**Confidence:** %.0f%%\n\n", c.ConfidenceScore*100)
	b.WriteString(c.ExecutiveSummary + "\n\n")
	b.WriteString(c.TechnicalNarrative + "\n")

	writeList(&b, "Confluence Factors", c.ConfluenceFactors)
	if len(c.Conflicts) > 0 {
		b.WriteString("\n### Conflict Alerts\n")
		for _, conflict := range c.Conflicts {
			fmt.Fprintf(&b, "- **%s vs %s** (%s): %s\n",
				conflict.AgentA, conflict.AgentB, conflict.Severity, conflict.Description)
		}
	}

	fmt.Fprintf(&b, "\n**Institutional alignment:** %s  \n", c.InstitutionalAlignment)
	fmt.Fprintf(&b, "**Smart-money divergence:** %s\n", c.SmartMoneyDivergence)
	writeList(&b, "Key Levels", c.KeyLevelsToWatch)

	if len(c.Scenarios) > 0 {
		b.WriteString("\n### Scenarios\n")
		for _, s := range c.Scenarios {
			fmt.Fprintf(&b, "- **%s** (p=%.2f): %s Invalidation: %s\n",
				s.ScenarioType, s.Probability, s.Description, s.InvalidationCondition)
		}
	}
	fmt.Fprintf(&b, "\n**Primary risk:** %s\n", c.PrimaryRisk)
	return b.String()
}

// FundamentalSection renders the fundamental consensus.
func FundamentalSection(c *models.FundamentalAnalysisOutput) string {
	var b strings.Builder
	b.WriteString("## Fundamental Analysis\n\n")
	fmt.Fprintf(&b, "**Bias:** %s  \n", c.InvestmentBias)
	fmt.Fprintf(&b, "**Confidence:** %.0f%%\n\n", c.ConfidenceScore*100)
	b.WriteString(c.ExecutiveSummary + "\n\n")

	fmt.Fprintf(&b, "- **Financial resilience:** %s\n", c.FinancialResilience)
	fmt.Fprintf(&b, "- **Business quality:** %s\n", c.BusinessQuality)
	fmt.Fprintf(&b, "- **Valuation context:** %s\n", c.ValuationContext)
	fmt.Fprintf(&b, "- **Strategic outlook:** %s\n", c.StrategicOutlook)

	writeList(&b, "Key Drivers", c.KeyDrivers)
	writeList(&b, "Thesis Risks", c.ThesisRisks)
	return b.String()
}

// SocialSection renders the news/social fusion.
func SocialSection(c *models.NewsSocialFusionOutput) string {
	var b strings.Builder
	b.WriteString("## News & Social Sentiment\n\n")
	fmt.Fprintf(&b, "**Bias:** %s  \n", c.InformationBias)
	fmt.Fprintf(&b, "**Confidence:** %.0f%%\n\n", c.ConfidenceScore*100)
	b.WriteString(c.ExecutiveSummary + "\n\n")
	fmt.Fprintf(&b, "**Narrative:** %s. %s\n", c.NarrativeAssessment.State, c.NarrativeAssessment.Explanation)

	writeList(&b, "Key Drivers", c.KeyDrivers)
	if len(c.Scenarios) > 0 {
		b.WriteString("\n### Scenarios\n")
		for _, s := range c.Scenarios {
			fmt.Fprintf(&b, "- **%s:** %s\n", s.ScenarioType, s.Description)
		}
	}
	fmt.Fprintf(&b, "\n**Narrative kill switch:** %s\n", c.NarrativeKillSwitch)
	return b.String()
}

// FullReport concatenates the three sections and the final memo into one
// document.
func FullReport(symbol string, technical, fundamental, social any, memo string) (string, error) {
	tc, err := Decode[models.TechnicalConsensus](technical)
	if err != nil {
		return "", err
	}
	fc, err := Decode[models.FundamentalAnalysisOutput](fundamental)
	if err != nil {
		return "", err
	}
	sc, err := Decode[models.NewsSocialFusionOutput](social)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", symbol)
	b.WriteString(TechnicalSection(tc) + "\n---\n\n")
	b.WriteString(FundamentalSection(fc) + "\n---\n\n")
	b.WriteString(SocialSection(sc) + "\n---\n\n")
	b.WriteString("## Final Memo\n\n")
	b.WriteString(strings.TrimSpace(memo) + "\n")
	return b.String(), nil
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
