package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/common"
)

var llmConfigFixture = common.LLMConfig{DefaultProvider: "claude"}

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []string
	errs      []error
	requests  []*ContentRequest
}

func (p *scriptedProvider) GenerateContent(_ context.Context, req *ContentRequest) (*ContentResponse, error) {
	i := len(p.requests)
	p.requests = append(p.requests, req)
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return &ContentResponse{Text: p.responses[i], Provider: ProviderClaude}, nil
}

func (p *scriptedProvider) GetProviderType() ProviderType { return ProviderClaude }
func (p *scriptedProvider) Close() error                  { return nil }

type testOutput struct {
	Direction  string  `json:"direction" validate:"required,oneof=bullish bearish"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

func TestInvokeStructuredFirstTry(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`{"direction":"bullish","confidence":0.8}`}}

	var out testOutput
	meta, err := InvokeStructured(context.Background(), provider, &ContentRequest{
		Messages: []Message{{Role: "user", Content: "analyze"}},
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, 1, meta.Rung)
	assert.False(t, meta.Recovered())
	assert.Equal(t, "bullish", out.Direction)

	// Rung 1 passes the schema natively and leaves the prompt untouched.
	require.Len(t, provider.requests, 1)
	assert.NotEmpty(t, provider.requests[0].OutputSchema)
	assert.Len(t, provider.requests[0].Messages, 1)
}

func TestInvokeStructuredRecoversFromFencedOutput(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"I think the trend is up.", // rung 1: prose, no JSON
		"```json\n{\"direction\":\"bearish\",\"confidence\":0.4}\n```", // rung 2
	}}

	var out testOutput
	meta, err := InvokeStructured(context.Background(), provider, &ContentRequest{
		Messages: []Message{{Role: "user", Content: "analyze"}},
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, meta.Rung)
	assert.True(t, meta.Recovered())
	assert.Equal(t, "bearish", out.Direction)

	// Rung 2 drops the native schema and appends the schema instruction.
	require.Len(t, provider.requests, 2)
	assert.Nil(t, provider.requests[1].OutputSchema)
	last := provider.requests[1].Messages[len(provider.requests[1].Messages)-1]
	assert.Contains(t, last.Content, "Return ONLY JSON matching this schema")
}

func TestInvokeStructuredValidationEscalates(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"direction":"sideways","confidence":0.5}`, // fails oneof
		`{"direction":"bullish","confidence":2.0}`,  // fails lte
		`{"direction":"bullish","confidence":0.9}`,
	}}

	var out testOutput
	meta, err := InvokeStructured(context.Background(), provider, &ContentRequest{}, &out)
	require.NoError(t, err)

	assert.Equal(t, 3, meta.Rung)
	assert.Equal(t, 3, meta.Attempts)
	assert.Equal(t, 0.9, out.Confidence)
}

func TestInvokeStructuredExhaustsLadder(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"no json here"}}

	var out testOutput
	meta, err := InvokeStructured(context.Background(), provider, &ContentRequest{}, &out)
	require.Error(t, err)
	assert.Equal(t, 3, meta.Attempts)
	assert.Equal(t, 0, meta.Rung)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", `Here is the result: {"a":{"b":2}} done`, `{"a":{"b":2}}`},
		{"array", `[1,2,3]`, `[1,2,3]`},
		{"braces in strings", `{"a":"}{"}`, `{"a":"}{"}`},
		{"no json", "nothing here", ""},
		{"unbalanced", `{"a":1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestReflectSchema(t *testing.T) {
	schema, err := ReflectSchema(&testOutput{})
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "direction")
	assert.Contains(t, props, "confidence")
	assert.NotContains(t, schema, "$schema")
}

func TestDetectProvider(t *testing.T) {
	factory := &ProviderFactory{llmConfig: &llmConfigFixture}

	assert.Equal(t, ProviderClaude, factory.DetectProvider("claude-sonnet-4-20250514"))
	assert.Equal(t, ProviderClaude, factory.DetectProvider("anthropic/claude-3"))
	assert.Equal(t, ProviderGemini, factory.DetectProvider("gemini-2.5-flash"))
	assert.Equal(t, ProviderGemini, factory.DetectProvider("google/gemini-2.5-pro"))
	assert.Equal(t, ProviderClaude, factory.DetectProvider(""), "falls back to configured default")

	assert.Equal(t, "claude-3", factory.NormalizeModel("anthropic/claude-3"))
	assert.Equal(t, "gemini-2.5-flash", factory.NormalizeModel("gemini-2.5-flash"))
}
