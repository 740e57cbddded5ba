package nodes

import (
	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/prompts"
	"github.com/finagent-ir/finagent/internal/workflow"
)

// techInput builds a worker input closure over one section of the technical
// report.
func techInput(section string) func(workflow.State) (any, error) {
	return func(state workflow.State) (any, error) {
		return reportSlice(state, section)
	}
}

// TrendNode analyzes the EMA/ADX/Ichimoku/geometry block.
func (b *Builder) TrendNode() workflow.NodeFunc {
	return b.structuredNode(KeyTrendReport, prompts.Trend, techInput("trend"),
		func() any { return &models.TrendAgentOutput{} })
}

// OscillatorNode analyzes the RSI/MACD/ADX block.
func (b *Builder) OscillatorNode() workflow.NodeFunc {
	return b.structuredNode(KeyOscillatorReport, prompts.Oscillator, techInput("oscillators"),
		func() any { return &models.OscillatorAgentOutput{} })
}

// VolatilityNode analyzes the Bollinger/Keltner/HV block.
func (b *Builder) VolatilityNode() workflow.NodeFunc {
	return b.structuredNode(KeyVolatilityReport, prompts.Volatility, techInput("volatility"),
		func() any { return &models.VolatilityAgentOutput{} })
}

// VolumeNode analyzes the participation/flow block.
func (b *Builder) VolumeNode() workflow.NodeFunc {
	return b.structuredNode(KeyVolumeReport, prompts.Volume, techInput("volume"),
		func() any { return &models.VolumeAgentOutput{} })
}

// SupportResistanceNode analyzes the clustered level zones.
func (b *Builder) SupportResistanceNode() workflow.NodeFunc {
	return b.structuredNode(KeySRReport, prompts.SupportResistance, techInput("support_resistance"),
		func() any { return &models.SupportResistanceAgentOutput{} })
}

// SmartMoneyNode analyzes the real/legal flow table.
func (b *Builder) SmartMoneyNode() workflow.NodeFunc {
	return b.structuredNode(KeySmartMoneyReport, prompts.SmartMoney, techInput("smart_money"),
		func() any { return &models.SmartMoneyAgentOutput{} })
}

// TechnicalConsensusNode fuses the six worker reports once all are present.
func (b *Builder) TechnicalConsensusNode() workflow.NodeFunc {
	fuse := b.structuredNode(KeyTechnicalConsensus, prompts.TechnicalConsensus,
		func(state workflow.State) (any, error) {
			return collectReports(state, technicalRequired), nil
		},
		func() any { return &models.TechnicalConsensus{} })
	return gatekeeper(KeyTechnicalConsensus, technicalRequired, fuse)
}

// TechnicalGraph builds the technical branch: fan out six workers, gate the
// consensus on all six reports.
func (b *Builder) TechnicalGraph() (*workflow.CompiledGraph, error) {
	g := workflow.NewStateGraph()
	g.AddNode(NodeTechnicalDispatch, dispatch)
	g.AddNode(NodeTrend, b.TrendNode())
	g.AddNode(NodeOscillator, b.OscillatorNode())
	g.AddNode(NodeVolatility, b.VolatilityNode())
	g.AddNode(NodeVolume, b.VolumeNode())
	g.AddNode(NodeSupportResistance, b.SupportResistanceNode())
	g.AddNode(NodeSmartMoney, b.SmartMoneyNode())
	g.AddNode(NodeTechnicalConsensus, b.TechnicalConsensusNode())
	g.SetEntryPoint(NodeTechnicalDispatch)

	workers := []string{
		NodeTrend, NodeOscillator, NodeVolatility,
		NodeVolume, NodeSupportResistance, NodeSmartMoney,
	}
	for _, worker := range workers {
		g.AddEdge(NodeTechnicalDispatch, worker)
		g.AddEdge(worker, NodeTechnicalConsensus)
	}
	return g.Compile()
}
