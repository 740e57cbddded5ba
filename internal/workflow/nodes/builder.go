package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/llm"
	"github.com/finagent-ir/finagent/internal/models"
	"github.com/finagent-ir/finagent/internal/workflow"
)

// Preparer is the data-preparation surface the nodes consume.
type Preparer interface {
	ShouldRun(symbol string) (bool, string)
	Load(symbol string) (*models.AssetDocument, error)
	Prepare(ctx context.Context, symbol string) (*models.AssetDocument, error)
}

// FilingFetcher fetches a regulatory filing page as markdown text.
type FilingFetcher interface {
	FetchFiling(ctx context.Context, pageURL string) (string, error)
}

// Builder constructs the analysis nodes and graphs over shared dependencies.
type Builder struct {
	llm     llm.Provider
	prep    Preparer
	filings FilingFetcher
	logger  arbor.ILogger

	model       string
	temperature float32
	maxTokens   int
	callTimeout time.Duration

	// Codal selection window and cap. Defaults, not contracts.
	codalWindowDays int
	codalMaxItems   int

	now func() time.Time
}

// Option configures the Builder.
type Option func(*Builder)

// WithModel sets the model string passed to the provider.
func WithModel(model string) Option {
	return func(b *Builder) { b.model = model }
}

// WithTemperature sets the sampling temperature for agent calls.
func WithTemperature(t float32) Option {
	return func(b *Builder) { b.temperature = t }
}

// WithMaxTokens caps the response length of agent calls.
func WithMaxTokens(n int) Option {
	return func(b *Builder) { b.maxTokens = n }
}

// WithCallTimeout bounds each LLM call. Zero means no per-call deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(b *Builder) { b.callTimeout = d }
}

// WithCodalWindow overrides the filing selection window and item cap.
func WithCodalWindow(days, maxItems int) Option {
	return func(b *Builder) {
		b.codalWindowDays = days
		b.codalMaxItems = maxItems
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder. The filing fetcher may be nil; the codal
// agent then falls back to its default analysis.
func NewBuilder(provider llm.Provider, prep Preparer, filings FilingFetcher, logger arbor.ILogger, opts ...Option) *Builder {
	b := &Builder{
		llm:             provider,
		prep:            prep,
		filings:         filings,
		logger:          logger,
		temperature:     0.2,
		codalWindowDays: 60,
		codalMaxItems:   20,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// structuredNode builds a worker node: format the input slice as JSON, run
// the structured invoker, contribute {reportKey: report} and the recovery
// sidecar when a fallback rung fired.
func (b *Builder) structuredNode(reportKey, system string, input func(workflow.State) (any, error), newOut func() any) workflow.NodeFunc {
	return func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		payload, err := input(state)
		if err != nil {
			return nil, err
		}
		body, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode agent input: %w", err)
		}

		out := newOut()
		req := &llm.ContentRequest{
			Model:             b.model,
			SystemInstruction: system,
			Temperature:       b.temperature,
			MaxTokens:         b.maxTokens,
			Messages: []llm.Message{
				{Role: "user", Content: "INPUT JSON:\n" + string(body)},
			},
		}

		callCtx, cancel := b.callContext(ctx)
		defer cancel()
		meta, err := llm.InvokeStructured(callCtx, b.llm, req, out)
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w", reportKey, err)
		}

		delta := workflow.Delta{reportKey: out}
		if meta.Recovered() {
			b.logger.Warn().
				Str("report", reportKey).
				Int("rung", meta.Rung).
				Msg("Structured output needed recovery")
			delta[reportKey+MetaSuffix] = meta
		}
		return delta, nil
	}
}

// callContext derives the context for a single LLM call.
func (b *Builder) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.callTimeout)
}

// gatekeeper wraps a fan-in node: until every required key is present the
// node contributes nothing, and once its output key exists re-invocations
// stay empty.
func gatekeeper(outputKey string, required []string, run workflow.NodeFunc) workflow.NodeFunc {
	return func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		if state.Has(outputKey) || !state.Has(required...) {
			return workflow.Delta{}, nil
		}
		return run(ctx, state)
	}
}

// dispatch is a no-op fan-out anchor.
func dispatch(ctx context.Context, state workflow.State) (workflow.Delta, error) {
	return workflow.Delta{}, nil
}

// documentFromState decodes the prepared asset document out of the state.
// The document may be the typed struct (same process) or a JSON map (after a
// state clone or checkpoint reload); both decode through JSON.
func documentFromState(state workflow.State) (*models.AssetDocument, error) {
	raw, ok := state[KeyDocument]
	if !ok || raw == nil {
		return nil, fmt.Errorf("state has no prepared asset document")
	}
	if doc, ok := raw.(*models.AssetDocument); ok {
		return doc, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode asset document: %w", err)
	}
	var doc models.AssetDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode asset document: %w", err)
	}
	return &doc, nil
}

// reportSlice picks named sections of the stored technical report plus the
// shared meta and visuals context.
func reportSlice(state workflow.State, sections ...string) (map[string]any, error) {
	doc, err := documentFromState(state)
	if err != nil {
		return nil, err
	}
	if doc.TechnicalReport == nil {
		return nil, fmt.Errorf("asset document has no technical report")
	}
	out := map[string]any{
		"meta":    doc.TechnicalReport["meta"],
		"visuals": doc.TechnicalReport["visuals"],
	}
	for _, name := range sections {
		section, ok := doc.TechnicalReport[name]
		if !ok {
			return nil, fmt.Errorf("technical report has no %q section", name)
		}
		out[name] = section
	}
	return out, nil
}

// collectReports gathers sibling reports (and their recovery sidecars) into
// one consensus input document.
func collectReports(state workflow.State, keys []string) map[string]any {
	out := map[string]any{}
	for _, key := range keys {
		out[key] = state[key]
		if meta, ok := state[key+MetaSuffix]; ok && meta != nil {
			out[key+MetaSuffix] = meta
		}
	}
	return out
}
