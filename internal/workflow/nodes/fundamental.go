package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finagent-ir/finagent/internal/fundamental"
	"github.com/finagent-ir/finagent/internal/jalali"
	"github.com/finagent-ir/finagent/internal/llm"
	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/prompts"
	"github.com/finagent-ir/finagent/internal/workflow"
)

// BalanceSheetNode analyzes solvency and capital allocation.
func (b *Builder) BalanceSheetNode() workflow.NodeFunc {
	return b.structuredNode(KeyBalanceSheetReport, prompts.BalanceSheet,
		func(state workflow.State) (any, error) {
			doc, err := documentFromState(state)
			if err != nil {
				return nil, err
			}
			return fundamental.PrepareBalanceSheet(doc), nil
		},
		func() any { return &models.BalanceSheetOutput{} })
}

// EarningsQualityNode analyzes profitability and cash conversion.
func (b *Builder) EarningsQualityNode() workflow.NodeFunc {
	return b.structuredNode(KeyEarningsQualityReport, prompts.EarningsQuality,
		func(state workflow.State) (any, error) {
			doc, err := documentFromState(state)
			if err != nil {
				return nil, err
			}
			return fundamental.PrepareEarningsQuality(doc), nil
		},
		func() any { return &models.EarningsQualityOutput{} })
}

// ValuationNode analyzes enterprise value and market multiples.
func (b *Builder) ValuationNode() workflow.NodeFunc {
	return b.structuredNode(KeyValuationReport, prompts.Valuation,
		func(state workflow.State) (any, error) {
			doc, err := documentFromState(state)
			if err != nil {
				return nil, err
			}
			return fundamental.PrepareValuation(doc), nil
		},
		func() any { return &models.ValuationOutput{} })
}

// CodalNode selects recent filings via an LLM call, scrapes the selected
// pages and analyzes the extracted text. Any dead end degrades to the
// default analysis instead of failing the branch.
func (b *Builder) CodalNode() workflow.NodeFunc {
	return func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		doc, err := documentFromState(state)
		if err != nil {
			return nil, err
		}

		notices := filterNotices(doc.CodalNotices, b.now(), b.codalWindowDays, b.codalMaxItems)
		if len(notices) == 0 || b.filings == nil {
			return workflow.Delta{KeyCodalReport: models.DefaultCodalAnalysis()}, nil
		}

		selected := b.selectFilings(ctx, notices)
		texts := b.scrapeFilings(ctx, notices, selected)
		if len(texts) == 0 {
			return workflow.Delta{KeyCodalReport: models.DefaultCodalAnalysis()}, nil
		}

		out := &models.CodalAnalysisOutput{}
		req := &llm.ContentRequest{
			Model:             b.model,
			SystemInstruction: prompts.CodalAnalysis,
			Temperature:       b.temperature,
			MaxTokens:         b.maxTokens,
			Messages:          []llm.Message{{Role: "user", Content: renderFilings(texts)}},
		}
		callCtx, cancel := b.callContext(ctx)
		defer cancel()
		meta, err := llm.InvokeStructured(callCtx, b.llm, req, out)
		if err != nil {
			return nil, fmt.Errorf("codal analysis failed: %w", err)
		}

		delta := workflow.Delta{KeyCodalReport: out}
		if meta.Recovered() {
			delta[KeyCodalReport+MetaSuffix] = meta
		}
		return delta, nil
	}
}

// selectFilings asks the model which filing ids are worth reading. On any
// failure it keeps the newest five.
func (b *Builder) selectFilings(ctx context.Context, notices []models.NewsItem) []string {
	type listing struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Date  string `json:"date"`
	}
	list := make([]listing, len(notices))
	for i, n := range notices {
		list[i] = listing{ID: n.ID, Title: n.Title, Date: n.Date}
	}

	var selection models.CodalReportSelection
	req := &llm.ContentRequest{
		Model:             b.model,
		SystemInstruction: prompts.CodalSelection,
		Temperature:       b.temperature,
		MaxTokens:         b.maxTokens,
		Messages:          []llm.Message{{Role: "user", Content: "INPUT JSON:\n" + mustJSON(list)}},
	}
	callCtx, cancel := b.callContext(ctx)
	defer cancel()
	if _, err := llm.InvokeStructured(callCtx, b.llm, req, &selection); err != nil {
		b.logger.Warn().Err(err).Msg("Filing selection failed, keeping newest filings")
		fallback := notices
		if len(fallback) > 5 {
			fallback = fallback[:5]
		}
		ids := make([]string, len(fallback))
		for i, n := range fallback {
			ids[i] = n.ID
		}
		return ids
	}
	return selection.SelectedIDs
}

// scrapeFilings fetches the selected filing pages. Failed or empty pages are
// skipped with a warning.
func (b *Builder) scrapeFilings(ctx context.Context, notices []models.NewsItem, selected []string) map[string]string {
	byID := map[string]models.NewsItem{}
	for _, n := range notices {
		byID[n.ID] = n
	}

	texts := map[string]string{}
	for _, id := range selected {
		notice, ok := byID[id]
		if !ok || notice.URL == "" {
			continue
		}
		text, err := b.filings.FetchFiling(ctx, notice.URL)
		if err != nil {
			b.logger.Warn().Err(err).Str("filing_id", id).Msg("Filing scrape failed")
			continue
		}
		if text != "" {
			texts[notice.Title] = text
		}
	}
	return texts
}

func renderFilings(texts map[string]string) string {
	return "FILING EXCERPTS JSON:\n" + mustJSON(texts)
}

// filterNotices keeps notices within the window, newest-capped.
func filterNotices(notices []models.NewsItem, ref time.Time, windowDays, maxItems int) []models.NewsItem {
	var out []models.NewsItem
	for _, n := range notices {
		if n.Date == "" || jalali.WithinDays(n.Date, ref, windowDays) {
			out = append(out, n)
		}
		if len(out) == maxItems {
			break
		}
	}
	return out
}

// FundamentalConsensusNode fuses the four worker reports once all are present.
func (b *Builder) FundamentalConsensusNode() workflow.NodeFunc {
	fuse := b.structuredNode(KeyFundamentalConsensus, prompts.FundamentalConsensus,
		func(state workflow.State) (any, error) {
			return collectReports(state, fundamentalRequired), nil
		},
		func() any { return &models.FundamentalAnalysisOutput{} })
	return gatekeeper(KeyFundamentalConsensus, fundamentalRequired, fuse)
}

// FundamentalGraph builds the fundamental branch: four workers gated by the
// consensus.
func (b *Builder) FundamentalGraph() (*workflow.CompiledGraph, error) {
	g := workflow.NewStateGraph()
	g.AddNode(NodeFundamentalDispatch, dispatch)
	g.AddNode(NodeBalanceSheet, b.BalanceSheetNode())
	g.AddNode(NodeEarningsQuality, b.EarningsQualityNode())
	g.AddNode(NodeValuation, b.ValuationNode())
	g.AddNode(NodeCodal, b.CodalNode())
	g.AddNode(NodeFundamentalConsensus, b.FundamentalConsensusNode())
	g.SetEntryPoint(NodeFundamentalDispatch)

	workers := []string{NodeBalanceSheet, NodeEarningsQuality, NodeValuation, NodeCodal}
	for _, worker := range workers {
		g.AddEdge(NodeFundamentalDispatch, worker)
		g.AddEdge(worker, NodeFundamentalConsensus)
	}
	return g.Compile()
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
