package nodes

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/llm"
	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/prompts"
	"github.com/finagent-ir/finagent/internal/workflow"
)

// fakeLLM scripts every agent call: the introduction agent keys off the user
// message, structured agents return canned valid reports keyed by system
// prompt, the reporter returns a fixed memo.
type fakeLLM struct {
	mu           sync.Mutex
	calls        int
	garbageFirst bool // make rung 1 of structured calls fail
}

func (f *fakeLLM) GetProviderType() llm.ProviderType { return llm.ProviderClaude }
func (f *fakeLLM) Close() error                      { return nil }

func (f *fakeLLM) GenerateContent(ctx context.Context, req *llm.ContentRequest) (*llm.ContentResponse, error) {
	f.mu.Lock()
	f.calls++
	garbage := f.garbageFirst && len(req.OutputSchema) > 0
	f.mu.Unlock()

	// Introduction agent: tool call when the message names a symbol.
	if req.SystemInstruction == prompts.Introduction {
		message := req.Messages[len(req.Messages)-1].Content
		for _, symbol := range []string{"فملی", "فولاد"} {
			if strings.Contains(message, symbol) {
				input, _ := json.Marshal(map[string]string{"symbol": symbol})
				return &llm.ContentResponse{
					ToolCalls: []llm.ToolCall{{Name: "set_symbol", Input: input}},
				}, nil
			}
		}
		return &llm.ContentResponse{Text: "کدام نماد را تحلیل کنم؟"}, nil
	}

	if req.SystemInstruction == prompts.Reporter {
		return &llm.ContentResponse{Text: "## گزارش نهایی\nجمع‌بندی سه میز تحلیل."}, nil
	}

	if garbage {
		return &llm.ContentResponse{Text: "sorry, here is my analysis in prose"}, nil
	}

	canned, ok := cannedReports[req.SystemInstruction]
	if !ok {
		return nil, errors.New("unscripted agent call")
	}
	data, err := json.Marshal(canned)
	if err != nil {
		return nil, err
	}
	return &llm.ContentResponse{Text: string(data)}, nil
}

var cannedReports = map[string]any{
	prompts.Trend: &models.TrendAgentOutput{
		TrendSummary:  models.TrendSummary{Direction: "bullish", Strength: "strong", Phase: "markup", Confidence: 0.8},
		PrimaryCauses: []string{"EMA stack aligned upward"},
	},
	prompts.Oscillator: &models.OscillatorAgentOutput{
		MomentumSummary: models.MomentumSummary{Regime: "strong_bull_trend", RSIState: "bullish", MACDState: "positive", Confidence: 0.7},
		PrimaryCauses:   []string{"MACD histogram expanding"},
	},
	prompts.Volatility: &models.VolatilityAgentOutput{
		Regime: "EXPANSION", MainDriver: "bollinger_20",
		VolatilityNarrative: "Bands widening with trend.", Confidence: 0.6,
	},
	prompts.Volume: &models.VolumeAgentOutput{
		Participation: "high", FlowBias: "accumulation", Efficiency: "good",
		VolumeNarrative: "Volume confirms the advance.", Confidence: 0.6,
	},
	prompts.SupportResistance: &models.SupportResistanceAgentOutput{
		SRSummary:   models.SRSummary{Status: "between_zones", NearestLevelBias: "support_holding", Confidence: 0.6},
		SRNarrative: "Price sits above a confluent support.",
	},
	prompts.SmartMoney: &models.SmartMoneyAgentOutput{
		FlowSummary:         models.FlowSummary{Bias: "accumulation", Intensity: "moderate", Confidence: 0.6},
		DailyHighlights:     []string{"Smart money entry on the latest session"},
		SmartMoneyNarrative: "Per-capita buy power dominates.",
	},
	prompts.TechnicalConsensus: &models.TechnicalConsensus{
		SignalBias: "BUY", ConfidenceScore: 0.7,
		ExecutiveSummary: "Constructive technical picture.", TechnicalNarrative: "Trend and flow agree.",
		ConfluenceFactors:      []string{"trend and volume aligned"},
		InstitutionalAlignment: "aligned", SmartMoneyDivergence: "none",
		KeyLevelsToWatch: []string{"7500"},
		Scenarios: []models.TradeScenario{{
			ScenarioType: "continuation", Probability: 0.6,
			Description: "Push to the next resistance.", InvalidationCondition: "Close below 7000",
		}},
		PrimaryRisk: "Volatility expansion against the trend.",
	},
	prompts.BalanceSheet: &models.BalanceSheetOutput{
		BalanceSheetSignal: "Stable", FinancialStability: "Adequate liquidity.",
		CapitalAllocation: "Conservative.", CoreCauses: []string{"Current ratio above one"},
	},
	prompts.EarningsQuality: &models.EarningsQualityOutput{
		EarningsQualitySignal: "High", ProfitabilityTrend: "Improving.",
		CashConversion: "OCF covers profit.", CoreCauses: []string{"Cash conversion near one"},
	},
	prompts.Valuation: &models.ValuationOutput{
		ValuationSignal: "Fair", EVAnalysis: "EV near market cap.",
		MultiplesContext: "P/E in line with group.", CoreCauses: []string{"Multiples unremarkable"},
	},
	prompts.CodalAnalysis: &models.CodalAnalysisOutput{
		KeyFindings: []string{"Monthly sales grew"}, Summary: "Filings supportive.",
	},
	prompts.FundamentalConsensus: &models.FundamentalAnalysisOutput{
		FinancialResilience: "Solid", BusinessQuality: "Average", ValuationContext: "Fair",
		StrategicOutlook: "Stable", InvestmentBias: "Hold", ConfidenceScore: 0.6,
		ExecutiveSummary: "Fundamentals are steady.",
		KeyDrivers:       []string{"cash generation"}, ThesisRisks: []string{"currency exposure"},
	},
	prompts.SocialFusion: &models.NewsSocialFusionOutput{
		InformationBias: "Neutral", ConfidenceScore: 0.5,
		NarrativeAssessment: models.NarrativeAssessment{State: "Aligned", Explanation: "Quiet tape."},
		KeyDrivers:          []string{"no dominant narrative"},
		ExecutiveSummary:    "Nothing moves the story.",
		Scenarios:           []models.FusionScenario{{ScenarioType: "Primary", Description: "Status quo."}},
		NarrativeKillSwitch: "A material Codal filing.",
	},
}

// fakePrep serves a prebuilt document and records refresh calls.
type fakePrep struct {
	doc          *models.AssetDocument
	stale        bool
	prepareCalls int
}

func (p *fakePrep) ShouldRun(symbol string) (bool, string) {
	if p.stale {
		return true, "stored document is stale"
	}
	return false, "document is current"
}

func (p *fakePrep) Load(symbol string) (*models.AssetDocument, error) {
	if p.doc == nil {
		return nil, errors.New("no document")
	}
	return p.doc, nil
}

func (p *fakePrep) Prepare(ctx context.Context, symbol string) (*models.AssetDocument, error) {
	p.prepareCalls++
	return p.doc, nil
}

func testDocument() *models.AssetDocument {
	section := func() map[string]any {
		return map[string]any{"signal_synthesis": map[string]any{"regime": "NEUTRAL"}}
	}
	return &models.AssetDocument{
		ID: "فملی_1", AssetID: "1", Symbol: "فملی", TradeSymbol: "فملی",
		TechnicalReport: map[string]any{
			"meta":               map[string]any{"symbol": "فملی"},
			"visuals":            map[string]any{"authority": "context_only"},
			"trend":              section(),
			"oscillators":        section(),
			"volatility":         section(),
			"volume":             section(),
			"support_resistance": section(),
			"smart_money":        section(),
		},
	}
}

func testBuilder(provider llm.Provider, prep Preparer) *Builder {
	return NewBuilder(provider, prep, nil, common.GetLogger())
}

func TestIntroductionToolCallSetsSymbol(t *testing.T) {
	b := testBuilder(&fakeLLM{}, &fakePrep{})
	graph, err := b.IntroGraph()
	require.NoError(t, err)

	state, err := graph.Invoke(context.Background(),
		workflow.Delta{KeyUserMessage: "Analyze فملی please"}, workflow.Config{})
	require.NoError(t, err)
	assert.Equal(t, "فملی", state.GetString(KeySymbol))
}

func TestIntroductionWithoutSymbolInterrupts(t *testing.T) {
	b := testBuilder(&fakeLLM{}, &fakePrep{})
	graph, err := b.IntroGraph()
	require.NoError(t, err)

	_, err = graph.Invoke(context.Background(),
		workflow.Delta{KeyUserMessage: "سلام"}, workflow.Config{ThreadID: "t"})
	var ie *workflow.InterruptError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "user_input", ie.Value)
}

func TestDataPreparationReusesFreshDocument(t *testing.T) {
	prep := &fakePrep{doc: testDocument()}
	b := testBuilder(&fakeLLM{}, prep)

	delta, err := b.DataPreparationNode()(context.Background(),
		workflow.State{KeySymbol: "فملی"})
	require.NoError(t, err)
	assert.NotNil(t, delta[KeyDocument])
	assert.Zero(t, prep.prepareCalls)
}

func TestDataPreparationRefreshesStaleDocument(t *testing.T) {
	prep := &fakePrep{doc: testDocument(), stale: true}
	b := testBuilder(&fakeLLM{}, prep)

	_, err := b.DataPreparationNode()(context.Background(),
		workflow.State{KeySymbol: "فملی"})
	require.NoError(t, err)
	assert.Equal(t, 1, prep.prepareCalls)
}

func TestReporterGateRefusesOnMissingConsensus(t *testing.T) {
	b := testBuilder(&fakeLLM{}, &fakePrep{})
	state := workflow.State{
		KeyTechnicalConsensus:   map[string]any{"signal_bias": "BUY"},
		KeyFundamentalConsensus: map[string]any{"investment_bias": "Hold"},
	}

	delta, err := b.ReporterNode()(context.Background(), state)
	require.NoError(t, err)
	assert.Empty(t, delta)
	assert.NotContains(t, delta, KeyFinalReport)
}

func TestConsensusGateIsIdempotent(t *testing.T) {
	b := testBuilder(&fakeLLM{}, &fakePrep{})
	state := workflow.State{}
	for _, key := range technicalRequired {
		state[key] = map[string]any{"ok": true}
	}
	state[KeyTechnicalConsensus] = map[string]any{"signal_bias": "BUY"}

	delta, err := b.TechnicalConsensusNode()(context.Background(), state)
	require.NoError(t, err)
	assert.Empty(t, delta, "existing consensus must not be recomputed")
}

func TestCodalDefaultsWithoutNotices(t *testing.T) {
	b := testBuilder(&fakeLLM{}, &fakePrep{})
	state := workflow.State{KeyDocument: testDocument()}

	delta, err := b.CodalNode()(context.Background(), state)
	require.NoError(t, err)

	report, ok := delta[KeyCodalReport].(*models.CodalAnalysisOutput)
	require.True(t, ok)
	assert.Equal(t, models.DefaultCodalAnalysis().Summary, report.Summary)
}

func TestEmptySocialInputsShortCircuit(t *testing.T) {
	b := testBuilder(&fakeLLM{}, &fakePrep{})
	state := workflow.State{KeyDocument: testDocument()}

	delta, err := b.TwitterNode()(context.Background(), state)
	require.NoError(t, err)
	report := delta[KeyTwitterReport].(*models.SocialSentimentOutput)
	assert.Equal(t, 1.0, report.SentimentDistribution.Neutral)

	delta, err = b.NewsNode()(context.Background(), state)
	require.NoError(t, err)
	news := delta[KeyNewsReport].(*models.FundamentalNewsAnalysis)
	assert.Empty(t, news.CorporateEvents)
}

func TestWorkerRecoveryMetaSidecar(t *testing.T) {
	b := testBuilder(&fakeLLM{garbageFirst: true}, &fakePrep{})
	state := workflow.State{KeyDocument: testDocument()}

	delta, err := b.TrendNode()(context.Background(), state)
	require.NoError(t, err)
	require.Contains(t, delta, KeyTrendReport)

	meta, ok := delta[KeyTrendReport+MetaSuffix].(*llm.RecoveryMeta)
	require.True(t, ok, "recovery sidecar expected when rung 1 fails")
	assert.Greater(t, meta.Rung, 1)
}

func TestFullRunWithResumeEmitsFinalReport(t *testing.T) {
	prep := &fakePrep{doc: testDocument()}
	b := testBuilder(&fakeLLM{}, prep)

	graph, err := b.AnalysisGraph(workflow.NewMemorySaver())
	require.NoError(t, err)
	cfg := workflow.Config{ThreadID: "scenario-7"}

	// No symbol in the opening message: the introduction interrupts.
	_, err = graph.Invoke(context.Background(), workflow.Delta{KeyUserMessage: "سلام"}, cfg)
	var ie *workflow.InterruptError
	require.True(t, errors.As(err, &ie))

	state, err := graph.Resume(context.Background(), "فملی", cfg)
	require.NoError(t, err)

	assert.Equal(t, "فملی", state.GetString(KeySymbol))
	for _, key := range reporterRequired {
		assert.True(t, state.Has(key), key)
	}
	final := state.GetString(KeyFinalReport)
	assert.Contains(t, final, "گزارش نهایی")
}

func TestFullRunDirectSymbol(t *testing.T) {
	prep := &fakePrep{doc: testDocument()}
	b := testBuilder(&fakeLLM{}, prep)

	graph, err := b.AnalysisGraph(nil)
	require.NoError(t, err)

	state, err := graph.Invoke(context.Background(),
		workflow.Delta{KeyUserMessage: "Analyze فملی please"}, workflow.Config{ThreadID: "scenario-6"})
	require.NoError(t, err)
	assert.NotEmpty(t, state.GetString(KeyFinalReport))
}
