package models

// Structured outputs of the technical analysis agents. JSON field names are
// part of the LLM contract: prompts embed the schema reflected from these
// structs and responses are decoded back into them, so names stay snake_case.

// TrendSummary is the headline block of the trend agent output.
type TrendSummary struct {
	Direction  string  `json:"direction" validate:"required,oneof=bullish bearish sideways"`
	Strength   string  `json:"strength" validate:"required,oneof=very_strong strong moderate weak"`
	Phase      string  `json:"phase" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// TrendAgentOutput is the structured report of the trend agent.
type TrendAgentOutput struct {
	TrendSummary     TrendSummary      `json:"trend_summary" validate:"required"`
	PrimaryCauses    []string          `json:"primary_causes" validate:"required,min=1,max=5,dive,required"`
	TrendHealthFlags []string          `json:"trend_health_flags"`
	KeyMetrics       map[string]string `json:"key_metrics"`
}

// MomentumSummary is the headline block of the oscillator agent output.
type MomentumSummary struct {
	Regime     string  `json:"regime" validate:"required"`
	RSIState   string  `json:"rsi_state" validate:"required"`
	MACDState  string  `json:"macd_state" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// OscillatorAgentOutput is the structured report of the oscillator agent.
type OscillatorAgentOutput struct {
	MomentumSummary MomentumSummary   `json:"momentum_summary" validate:"required"`
	PrimaryCauses   []string          `json:"primary_causes" validate:"required,min=1,max=5,dive,required"`
	WarningFlags    []string          `json:"warning_flags"`
	KeyMetrics      map[string]string `json:"key_metrics"`
}

// VolatilityAgentOutput is the structured report of the volatility agent.
type VolatilityAgentOutput struct {
	Regime              string  `json:"regime" validate:"required,oneof=EXPANSION CONTRACTION COOLING_OFF RISING_VOL MIXED"`
	Squeeze             bool    `json:"squeeze"`
	MainDriver          string  `json:"main_driver" validate:"required"`
	VolatilityNarrative string  `json:"volatility_narrative" validate:"required"`
	Confidence          float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// VolumeAgentOutput is the structured report of the volume agent.
type VolumeAgentOutput struct {
	Participation   string  `json:"participation" validate:"required"`
	FlowBias        string  `json:"flow_bias" validate:"required,oneof=accumulation distribution neutral"`
	Efficiency      string  `json:"efficiency" validate:"required"`
	VolumeNarrative string  `json:"volume_narrative" validate:"required"`
	Confidence      float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// LevelZone is a clustered support or resistance zone.
type LevelZone struct {
	Type         string    `json:"type" validate:"required,oneof=support resistance"`
	PriceRange   []float64 `json:"price_range" validate:"required,len=2"`
	AvgPrice     float64   `json:"avg_price" validate:"required"`
	Strength     float64   `json:"strength" validate:"gte=0,lte=1"`
	Contributors []string  `json:"contributors" validate:"required,min=1"`
}

// SRSummary is the headline block of the support/resistance agent output.
type SRSummary struct {
	Status           string  `json:"status" validate:"required"`
	NearestLevelBias string  `json:"nearest_level_bias" validate:"required"`
	Confidence       float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// SRKeyZones holds the zones the support/resistance agent considers decisive.
type SRKeyZones struct {
	NearestSupport     *LevelZone  `json:"nearest_support"`
	NearestResistance  *LevelZone  `json:"nearest_resistance"`
	TopConfluenceZones []LevelZone `json:"top_confluence_zones"`
}

// SupportResistanceAgentOutput is the structured report of the SR agent.
type SupportResistanceAgentOutput struct {
	SRSummary     SRSummary  `json:"sr_summary" validate:"required"`
	KeyZones      SRKeyZones `json:"key_zones" validate:"required"`
	BreakoutWatch []string   `json:"breakout_watch"`
	SRNarrative   string     `json:"sr_narrative" validate:"required"`
}

// FlowSummary is the headline block of the smart-money agent output.
type FlowSummary struct {
	Bias       string  `json:"bias" validate:"required"`
	Intensity  string  `json:"intensity" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// SmartMoneyAgentOutput is the structured report of the smart-money agent.
type SmartMoneyAgentOutput struct {
	FlowSummary         FlowSummary `json:"flow_summary" validate:"required"`
	DailyHighlights     []string    `json:"daily_highlights" validate:"required,min=1,dive,required"`
	SmartMoneyNarrative string      `json:"smart_money_narrative" validate:"required"`
}

// ConflictAlert records a disagreement between two worker agents.
type ConflictAlert struct {
	AgentA      string `json:"agent_a" validate:"required"`
	AgentB      string `json:"agent_b" validate:"required"`
	Description string `json:"description" validate:"required"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high"`
}

// TradeScenario is one forward path in the technical consensus.
type TradeScenario struct {
	ScenarioType          string  `json:"scenario_type" validate:"required,oneof=continuation reversal breakout range_bound"`
	Probability           float64 `json:"probability" validate:"gte=0,lte=1"`
	Description           string  `json:"description" validate:"required"`
	InvalidationCondition string  `json:"invalidation_condition" validate:"required"`
}

// TechnicalConsensus fuses the six technical worker reports.
type TechnicalConsensus struct {
	SignalBias             string          `json:"signal_bias" validate:"required,oneof=STRONG_BUY BUY NEUTRAL SELL STRONG_SELL"`
	ConfidenceScore        float64         `json:"confidence_score" validate:"gte=0,lte=1"`
	ExecutiveSummary       string          `json:"executive_summary" validate:"required"`
	TechnicalNarrative     string          `json:"technical_narrative" validate:"required"`
	ConfluenceFactors      []string        `json:"confluence_factors" validate:"required,min=1,dive,required"`
	Conflicts              []ConflictAlert `json:"conflicts" validate:"dive"`
	InstitutionalAlignment string          `json:"institutional_alignment" validate:"required"`
	SmartMoneyDivergence   string          `json:"smart_money_divergence" validate:"required"`
	KeyLevelsToWatch       []string        `json:"key_levels_to_watch" validate:"required,min=1,dive,required"`
	Scenarios              []TradeScenario `json:"scenarios" validate:"required,min=1,dive"`
	PrimaryRisk            string          `json:"primary_risk" validate:"required"`
}
