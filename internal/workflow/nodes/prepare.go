package nodes

import (
	"context"
	"fmt"

	"github.com/finagent-ir/finagent/internal/workflow"
)

// DataPreparationNode loads or refreshes the asset document for the resolved
// symbol. A stored document dated today is reused without fetching.
func (b *Builder) DataPreparationNode() workflow.NodeFunc {
	return func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		symbol := state.GetString(KeySymbol)
		if symbol == "" {
			return nil, fmt.Errorf("no symbol in state")
		}

		run, reason := b.prep.ShouldRun(symbol)
		if !run {
			b.logger.Info().Str("symbol", symbol).Str("reason", reason).Msg("Reusing stored asset document")
			doc, err := b.prep.Load(symbol)
			if err != nil {
				return nil, fmt.Errorf("failed to load stored document for %s: %w", symbol, err)
			}
			return workflow.Delta{KeyDocument: doc}, nil
		}

		b.logger.Info().Str("symbol", symbol).Str("reason", reason).Msg("Preparing fresh asset document")
		doc, err := b.prep.Prepare(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("data preparation failed for %s: %w", symbol, err)
		}
		return workflow.Delta{KeyDocument: doc}, nil
	}
}
