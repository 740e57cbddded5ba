package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finagent-ir/finagent/internal/llm"
	"github.com/finagent-ir/finagent/internal/prompts"
	"github.com/finagent-ir/finagent/internal/workflow"
)

// setSymbolTool is the single tool the introduction agent may call.
var setSymbolTool = llm.ToolDef{
	Name:        "set_symbol",
	Description: "Record the Tehran Stock Exchange ticker the user wants analyzed.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol": map[string]any{
				"type":        "string",
				"description": "The trade symbol exactly as the user wrote it, e.g. فولاد",
			},
		},
		"required": []string{"symbol"},
	},
}

// IntroductionNode extracts the symbol from the user message via a tool call,
// or produces a clarifying question for the interrupt loop.
func (b *Builder) IntroductionNode() workflow.NodeFunc {
	return func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		userMessage := state.GetString(KeyUserMessage)

		callCtx, cancel := b.callContext(ctx)
		defer cancel()
		resp, err := b.llm.GenerateContent(callCtx, &llm.ContentRequest{
			Model:             b.model,
			SystemInstruction: prompts.Introduction,
			Temperature:       b.temperature,
			MaxTokens:         b.maxTokens,
			Messages:          []llm.Message{{Role: "user", Content: userMessage}},
			Tools:             []llm.ToolDef{setSymbolTool},
		})
		if err != nil {
			return nil, fmt.Errorf("introduction agent failed: %w", err)
		}

		for _, call := range resp.ToolCalls {
			if call.Name != setSymbolTool.Name {
				continue
			}
			var args struct {
				Symbol string `json:"symbol"`
			}
			if err := json.Unmarshal(call.Input, &args); err != nil {
				return nil, fmt.Errorf("bad set_symbol arguments: %w", err)
			}
			symbol := strings.TrimSpace(args.Symbol)
			if symbol == "" {
				break
			}
			b.logger.Info().Str("symbol", symbol).Msg("Symbol extracted from user message")
			return workflow.Delta{KeySymbol: symbol, KeyAssistantQuestion: nil}, nil
		}

		question := strings.TrimSpace(resp.Text)
		if question == "" {
			question = "لطفاً نماد مورد نظر خود را وارد کنید."
		}
		return workflow.Delta{KeyAssistantQuestion: question}, nil
	}
}

// AskUserNode suspends the run until the user answers, then feeds the answer
// back to the introduction agent.
func AskUserNode(ctx context.Context, state workflow.State) (workflow.Delta, error) {
	answer, err := workflow.Interrupt(ctx, "user_input")
	if err != nil {
		return nil, err
	}
	return workflow.Delta{KeyUserMessage: answer, KeyAssistantQuestion: nil}, nil
}

// IntroGraph builds the introduction subgraph: agent -> (done | ask_user ->
// agent) until a symbol is set.
func (b *Builder) IntroGraph() (*workflow.CompiledGraph, error) {
	g := workflow.NewStateGraph()
	g.AddNode(NodeIntroduction, b.IntroductionNode())
	g.AddNode(NodeAskUser, AskUserNode)
	g.SetEntryPoint(NodeIntroduction)
	g.AddConditionalEdges(NodeIntroduction, func(state workflow.State) []string {
		if state.GetString(KeySymbol) != "" {
			return []string{workflow.End}
		}
		return []string{NodeAskUser}
	})
	g.AddEdge(NodeAskUser, NodeIntroduction)
	return g.Compile()
}
