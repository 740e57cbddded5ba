// Package nodes implements the analysis agents as workflow nodes and wires
// them into the introduction, technical, fundamental and news/social graphs.
package nodes

// State keys. Worker nodes contribute exactly their report key (plus a
// "_meta" sidecar when the structured invoker had to recover); gatekeepers
// require their predecessors' keys before running.
const (
	KeyUserMessage       = "user_message"
	KeySymbol            = "symbol"
	KeyAssistantQuestion = "assistant_question"
	KeyDocument          = "asset_document"

	KeyTrendReport        = "trend_report"
	KeyOscillatorReport   = "oscillator_report"
	KeyVolatilityReport   = "volatility_report"
	KeyVolumeReport       = "volume_report"
	KeySRReport           = "sr_report"
	KeySmartMoneyReport   = "smart_money_report"
	KeyTechnicalConsensus = "technical_consensus_report"

	KeyBalanceSheetReport    = "balance_sheet_report"
	KeyEarningsQualityReport = "earnings_quality_report"
	KeyValuationReport       = "valuation_report"
	KeyCodalReport           = "codal_report"
	KeyFundamentalConsensus  = "fundamental_consensus_report"

	KeyTwitterReport   = "twitter_report"
	KeySahamyabReport  = "sahamyab_report"
	KeyNewsReport      = "news_report"
	KeySocialConsensus = "social_news_consensus_report"

	KeyFinalReport = "final_report"

	// MetaSuffix marks the recovery sidecar of a report key.
	MetaSuffix = "_meta"
)

// Node names.
const (
	NodeIntroduction    = "introduction"
	NodeAskUser         = "ask_user"
	NodeDataPreparation = "data_preparation"
	NodeDispatchMaster  = "dispatch_master"
	NodeReporter        = "reporter"

	NodeTechnicalDispatch  = "technical_dispatch"
	NodeTrend              = "trend_agent"
	NodeOscillator         = "oscillator_agent"
	NodeVolatility         = "volatility_agent"
	NodeVolume             = "volume_agent"
	NodeSupportResistance  = "sr_agent"
	NodeSmartMoney         = "smart_money_agent"
	NodeTechnicalConsensus = "technical_consensus"

	NodeFundamentalDispatch  = "fundamental_dispatch"
	NodeBalanceSheet         = "balance_sheet_agent"
	NodeEarningsQuality      = "earnings_quality_agent"
	NodeValuation            = "valuation_agent"
	NodeCodal                = "codal_agent"
	NodeFundamentalConsensus = "fundamental_consensus"

	NodeSocialDispatch = "social_dispatch"
	NodeTwitter        = "twitter_agent"
	NodeSahamyab       = "sahamyab_agent"
	NodeNews           = "news_agent"
	NodeSocialFusion   = "social_news_fusion"

	// Subgraph node names in the master graph.
	NodeTechnicalBranch   = "technical_analysis"
	NodeFundamentalBranch = "fundamental_analysis"
	NodeSocialBranch      = "social_news_analysis"
)

// technicalRequired are the keys the technical gatekeeper waits for.
var technicalRequired = []string{
	KeyTrendReport, KeyOscillatorReport, KeyVolatilityReport,
	KeyVolumeReport, KeySRReport, KeySmartMoneyReport,
}

// fundamentalRequired are the keys the fundamental gatekeeper waits for.
var fundamentalRequired = []string{
	KeyBalanceSheetReport, KeyEarningsQualityReport,
	KeyValuationReport, KeyCodalReport,
}

// socialRequired are the keys the news/social gatekeeper waits for.
var socialRequired = []string{
	KeyTwitterReport, KeySahamyabReport, KeyNewsReport,
}

// reporterRequired are the three branch consensuses the reporter waits for.
var reporterRequired = []string{
	KeyTechnicalConsensus, KeyFundamentalConsensus, KeySocialConsensus,
}
