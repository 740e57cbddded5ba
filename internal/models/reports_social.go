package models

// Structured outputs of the news and social sentiment agents.

// SentimentDistribution is a 5-bucket probability vector over
// very_negative .. very_positive. Buckets sum to roughly 1.
type SentimentDistribution struct {
	VeryNegative float64 `json:"very_negative" validate:"gte=0,lte=1"`
	Negative     float64 `json:"negative" validate:"gte=0,lte=1"`
	Neutral      float64 `json:"neutral" validate:"gte=0,lte=1"`
	Positive     float64 `json:"positive" validate:"gte=0,lte=1"`
	VeryPositive float64 `json:"very_positive" validate:"gte=0,lte=1"`
}

// EmotionVector scores the dominant emotions in the social stream.
type EmotionVector struct {
	Fear     float64 `json:"fear" validate:"gte=0,lte=1"`
	Greed    float64 `json:"greed" validate:"gte=0,lte=1"`
	Hope     float64 `json:"hope" validate:"gte=0,lte=1"`
	Anger    float64 `json:"anger" validate:"gte=0,lte=1"`
	Distrust float64 `json:"distrust" validate:"gte=0,lte=1"`
}

// SocialSentimentOutput is the structured report of the twitter agent.
type SocialSentimentOutput struct {
	SentimentDistribution  SentimentDistribution `json:"sentiment_distribution" validate:"required"`
	EmotionVector          EmotionVector         `json:"emotion_vector" validate:"required"`
	WeightedSentimentScore float64               `json:"weighted_sentiment_score" validate:"gte=-1,lte=1"`
	DominantBias           string                `json:"dominant_bias" validate:"required"`
	SocialSummary          string                `json:"social_summary" validate:"required"`
}

// RetailPulseAnalysis is the structured report of the sahamyab agent.
type RetailPulseAnalysis struct {
	RetailSentimentScore  float64  `json:"retail_sentiment_score" validate:"gte=-1,lte=1"`
	MarketStructureSignal string   `json:"market_structure_signal" validate:"required"`
	MacroDrivers          []string `json:"macro_drivers"`
	ActionableInsight     string   `json:"actionable_insight" validate:"required"`
	PanicLevel            string   `json:"panic_level" validate:"required,oneof=Low Medium High Extreme"`
}

// CorporateEvent is one material event extracted from the news stream.
type CorporateEvent struct {
	Category   string `json:"category" validate:"required"`
	Details    string `json:"details" validate:"required"`
	ImpactType string `json:"impact_type" validate:"required,oneof=Monetary Governance"`
	Sentiment  string `json:"sentiment" validate:"required"`
}

// FundamentalNewsAnalysis is the structured report of the news agent.
type FundamentalNewsAnalysis struct {
	NewsSentimentScore float64          `json:"news_sentiment_score" validate:"gte=-1,lte=1"`
	CorporateEvents    []CorporateEvent `json:"corporate_events" validate:"dive"`
	Summary            string           `json:"summary" validate:"required"`
}

// NarrativeAssessment judges the state of the market narrative.
type NarrativeAssessment struct {
	State       string `json:"state" validate:"required,oneof=Aligned Overheated Fragile Panic Conflicted"`
	Explanation string `json:"explanation" validate:"required"`
}

// FusionScenario is one forward path in the news/social fusion.
type FusionScenario struct {
	ScenarioType string `json:"scenario_type" validate:"required,oneof=Primary Alternative"`
	Description  string `json:"description" validate:"required"`
}

// NewsSocialFusionOutput fuses the three news/social worker reports.
type NewsSocialFusionOutput struct {
	InformationBias     string              `json:"information_bias" validate:"required,oneof=Bullish Neutral Bearish"`
	ConfidenceScore     float64             `json:"confidence_score" validate:"gte=0,lte=1"`
	NarrativeAssessment NarrativeAssessment `json:"narrative_assessment" validate:"required"`
	KeyDrivers          []string            `json:"key_drivers" validate:"required,min=1,dive,required"`
	ExecutiveSummary    string              `json:"executive_summary" validate:"required"`
	Scenarios           []FusionScenario    `json:"scenarios" validate:"required,min=1,dive"`
	NarrativeKillSwitch string              `json:"narrative_kill_switch" validate:"required"`
}
