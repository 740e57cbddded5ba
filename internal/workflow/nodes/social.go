package nodes

import (
	"context"

	"github.com/finagent-ir/finagent/internal/jalali"
	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/prompts"
	"github.com/finagent-ir/finagent/internal/workflow"
)

// newsWindowDays bounds the news slice fed to the news agent, relative to
// the analysis date.
const newsWindowDays = 30

// TwitterNode analyzes the external tweet stream. An empty stream yields a
// neutral report without an LLM call.
func (b *Builder) TwitterNode() workflow.NodeFunc {
	structured := b.structuredNode(KeyTwitterReport, prompts.TwitterSentiment,
		func(state workflow.State) (any, error) {
			doc, err := documentFromState(state)
			if err != nil {
				return nil, err
			}
			return map[string]any{"symbol": doc.TradeSymbol, "tweets": doc.Tweets}, nil
		},
		func() any { return &models.SocialSentimentOutput{} })

	return func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		doc, err := documentFromState(state)
		if err != nil {
			return nil, err
		}
		if len(doc.Tweets) == 0 {
			return workflow.Delta{KeyTwitterReport: emptySentimentReport("No tweets available.")}, nil
		}
		return structured(ctx, state)
	}
}

// SahamyabNode analyzes the Sahamyab board posts. Empty input short-circuits
// like the twitter agent.
func (b *Builder) SahamyabNode() workflow.NodeFunc {
	structured := b.structuredNode(KeySahamyabReport, prompts.SahamyabSentiment,
		func(state workflow.State) (any, error) {
			doc, err := documentFromState(state)
			if err != nil {
				return nil, err
			}
			return map[string]any{"symbol": doc.TradeSymbol, "posts": doc.SocialPosts}, nil
		},
		func() any { return &models.RetailPulseAnalysis{} })

	return func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		doc, err := documentFromState(state)
		if err != nil {
			return nil, err
		}
		if len(doc.SocialPosts) == 0 {
			return workflow.Delta{KeySahamyabReport: &models.RetailPulseAnalysis{
				RetailSentimentScore:  0,
				MarketStructureSignal: "no_data",
				ActionableInsight:     "No board posts available.",
				PanicLevel:            "Low",
			}}, nil
		}
		return structured(ctx, state)
	}
}

// NewsNode analyzes the news feed, filing headlines and web-search snippets.
func (b *Builder) NewsNode() workflow.NodeFunc {
	structured := b.structuredNode(KeyNewsReport, prompts.NewsAnalysis,
		func(state workflow.State) (any, error) {
			doc, err := documentFromState(state)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"symbol":        doc.TradeSymbol,
				"news":          windowedNews(doc),
				"codal_notices": doc.CodalNotices,
				"web_search":    doc.WebSearch,
			}, nil
		},
		func() any { return &models.FundamentalNewsAnalysis{} })

	return func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		doc, err := documentFromState(state)
		if err != nil {
			return nil, err
		}
		if len(doc.News) == 0 && len(doc.CodalNotices) == 0 && len(doc.WebSearch) == 0 {
			return workflow.Delta{KeyNewsReport: &models.FundamentalNewsAnalysis{
				NewsSentimentScore: 0,
				CorporateEvents:    []models.CorporateEvent{},
				Summary:            "No news available.",
			}}, nil
		}
		return structured(ctx, state)
	}
}

// windowedNews keeps news items within the reporting window of the analysis
// date. Items without a parseable date pass through.
func windowedNews(doc *models.AssetDocument) []models.NewsItem {
	ref := doc.AnalysisDatetime
	if ref.IsZero() {
		return doc.News
	}
	var out []models.NewsItem
	for _, item := range doc.News {
		if item.Date == "" || jalali.WithinDays(item.Date, ref, newsWindowDays) {
			out = append(out, item)
		}
	}
	return out
}

// SocialFusionNode fuses the three worker reports once all are present.
func (b *Builder) SocialFusionNode() workflow.NodeFunc {
	fuse := b.structuredNode(KeySocialConsensus, prompts.SocialFusion,
		func(state workflow.State) (any, error) {
			return collectReports(state, socialRequired), nil
		},
		func() any { return &models.NewsSocialFusionOutput{} })
	return gatekeeper(KeySocialConsensus, socialRequired, fuse)
}

// SocialGraph builds the news/social branch: three workers gated by the
// fusion node.
func (b *Builder) SocialGraph() (*workflow.CompiledGraph, error) {
	g := workflow.NewStateGraph()
	g.AddNode(NodeSocialDispatch, dispatch)
	g.AddNode(NodeTwitter, b.TwitterNode())
	g.AddNode(NodeSahamyab, b.SahamyabNode())
	g.AddNode(NodeNews, b.NewsNode())
	g.AddNode(NodeSocialFusion, b.SocialFusionNode())
	g.SetEntryPoint(NodeSocialDispatch)

	for _, worker := range []string{NodeTwitter, NodeSahamyab, NodeNews} {
		g.AddEdge(NodeSocialDispatch, worker)
		g.AddEdge(worker, NodeSocialFusion)
	}
	return g.Compile()
}

func emptySentimentReport(summary string) *models.SocialSentimentOutput {
	return &models.SocialSentimentOutput{
		SentimentDistribution:  models.SentimentDistribution{Neutral: 1},
		EmotionVector:          models.EmotionVector{},
		WeightedSentimentScore: 0,
		DominantBias:           "neutral",
		SocialSummary:          summary,
	}
}
