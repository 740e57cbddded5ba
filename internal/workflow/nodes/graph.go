package nodes

import (
	"github.com/finagent-ir/finagent/internal/workflow"
)

// AnalysisGraph assembles the full analysis workflow:
//
//	introduction -> data_preparation -> dispatch_master
//	  -> {technical, fundamental, social/news} subgraphs -> reporter
//
// The reporter is gated on the three branch consensuses, so a failed branch
// yields a partial run instead of a false memo.
func (b *Builder) AnalysisGraph(saver workflow.Checkpointer) (*workflow.CompiledGraph, error) {
	intro, err := b.IntroGraph()
	if err != nil {
		return nil, err
	}
	technical, err := b.TechnicalGraph()
	if err != nil {
		return nil, err
	}
	fundamental, err := b.FundamentalGraph()
	if err != nil {
		return nil, err
	}
	social, err := b.SocialGraph()
	if err != nil {
		return nil, err
	}

	g := workflow.NewStateGraph()
	g.AddSubgraph(NodeIntroduction, intro)
	g.AddNode(NodeDataPreparation, b.DataPreparationNode())
	g.AddNode(NodeDispatchMaster, dispatch)
	g.AddSubgraph(NodeTechnicalBranch, technical)
	g.AddSubgraph(NodeFundamentalBranch, fundamental)
	g.AddSubgraph(NodeSocialBranch, social)
	g.AddNode(NodeReporter, b.ReporterNode())

	g.SetEntryPoint(NodeIntroduction)
	g.AddEdge(NodeIntroduction, NodeDataPreparation)
	g.AddEdge(NodeDataPreparation, NodeDispatchMaster)
	for _, branch := range []string{NodeTechnicalBranch, NodeFundamentalBranch, NodeSocialBranch} {
		g.AddEdge(NodeDispatchMaster, branch)
		g.AddEdge(branch, NodeReporter)
	}

	opts := []workflow.CompileOption{}
	if saver != nil {
		opts = append(opts, workflow.WithCheckpointer(saver))
	}
	return g.Compile(opts...)
}

// TotalSteps is the number of node completions a full run produces, used for
// progress reporting: data preparation, thirteen workers, three consensuses
// and the reporter.
const TotalSteps = 18

// ProgressKeys are the state keys whose first arrival advances the progress
// counter, one per counted step.
var ProgressKeys = []string{
	KeyDocument,
	KeyTrendReport, KeyOscillatorReport, KeyVolatilityReport,
	KeyVolumeReport, KeySRReport, KeySmartMoneyReport,
	KeyTechnicalConsensus,
	KeyBalanceSheetReport, KeyEarningsQualityReport, KeyValuationReport, KeyCodalReport,
	KeyFundamentalConsensus,
	KeyTwitterReport, KeySahamyabReport, KeyNewsReport,
	KeySocialConsensus,
	KeyFinalReport,
}
