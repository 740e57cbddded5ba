package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/finagent-ir/finagent/internal/llm"
	"github.com/finagent-ir/finagent/internal/prompts"
	"github.com/finagent-ir/finagent/internal/workflow"
)

// ReporterNode writes the final markdown memo from the three branch
// consensuses via a plain (non-structured) LLM call. Until all three are
// present it contributes nothing.
func (b *Builder) ReporterNode() workflow.NodeFunc {
	run := func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		var input strings.Builder
		input.WriteString("SYMBOL: " + state.GetString(KeySymbol) + "\n\n")
		for _, key := range reporterRequired {
			input.WriteString(strings.ToUpper(key) + ":\n")
			input.WriteString(mustJSON(state[key]))
			input.WriteString("\n\n")
		}

		callCtx, cancel := b.callContext(ctx)
		defer cancel()
		resp, err := b.llm.GenerateContent(callCtx, &llm.ContentRequest{
			Model:             b.model,
			SystemInstruction: prompts.Reporter,
			Temperature:       b.temperature,
			MaxTokens:         b.maxTokens,
			Messages:          []llm.Message{{Role: "user", Content: input.String()}},
		})
		if err != nil {
			return nil, fmt.Errorf("reporter failed: %w", err)
		}
		if strings.TrimSpace(resp.Text) == "" {
			return nil, fmt.Errorf("reporter returned an empty memo")
		}
		return workflow.Delta{KeyFinalReport: resp.Text}, nil
	}
	return gatekeeper(KeyFinalReport, reporterRequired, run)
}
