package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared across invocations; the validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// RecoveryMeta records how a structured invocation succeeded. Rung 1 is the
// provider-native schema mode; higher rungs are prompt-level fallbacks.
type RecoveryMeta struct {
	Rung     int      `json:"rung"`
	Attempts int      `json:"attempts"`
	Notes    []string `json:"notes,omitempty"`
}

// Recovered reports whether any fallback beyond the native mode was needed.
func (m *RecoveryMeta) Recovered() bool {
	return m != nil && m.Rung > 1
}

// InvokeStructured runs the request against the provider and decodes the
// response into out, climbing a recovery ladder until the decoded value
// passes schema validation:
//
//	rung 1: provider-native structured output (response schema / forced tool)
//	rung 2: plain call with "Return ONLY JSON matching this schema" appended
//	rung 3: rung 2 with a stricter instruction prefix
//
// The returned meta records the rung that succeeded.
func InvokeStructured(ctx context.Context, provider Provider, request *ContentRequest, out any) (*RecoveryMeta, error) {
	schema, err := ReflectSchema(out)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect output schema: %w", err)
	}
	schemaText, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render output schema: %w", err)
	}

	meta := &RecoveryMeta{}
	var lastErr error

	for rung := 1; rung <= 3; rung++ {
		meta.Attempts++
		req := buildRungRequest(request, rung, schema, string(schemaText))

		resp, err := provider.GenerateContent(ctx, req)
		if err != nil {
			lastErr = err
			meta.Notes = append(meta.Notes, fmt.Sprintf("rung %d: %v", rung, err))
			continue
		}

		if err := decodeInto(resp.Text, out); err != nil {
			lastErr = err
			meta.Notes = append(meta.Notes, fmt.Sprintf("rung %d: %v", rung, err))
			continue
		}

		if err := validate.Struct(out); err != nil {
			lastErr = fmt.Errorf("schema validation failed: %w", err)
			meta.Notes = append(meta.Notes, fmt.Sprintf("rung %d: %v", rung, lastErr))
			continue
		}

		meta.Rung = rung
		return meta, nil
	}

	return meta, fmt.Errorf("structured invocation failed after %d attempts: %w", meta.Attempts, lastErr)
}

func buildRungRequest(request *ContentRequest, rung int, schema map[string]any, schemaText string) *ContentRequest {
	req := *request
	req.Messages = append([]Message{}, request.Messages...)

	switch rung {
	case 1:
		req.OutputSchema = schema
	case 2:
		req.OutputSchema = nil
		req.Messages = append(req.Messages, Message{
			Role:    "user",
			Content: "Return ONLY JSON matching this schema:\n" + schemaText,
		})
	default:
		req.OutputSchema = nil
		req.Messages = append(req.Messages, Message{
			Role: "user",
			Content: "Your previous output could not be parsed. Respond with a single raw JSON object and nothing else. " +
				"No markdown, no code fences, no commentary.\nThe JSON must match this schema:\n" + schemaText,
		})
	}
	return &req
}

// decodeInto extracts the JSON payload from model text and unmarshals it.
func decodeInto(text string, out any) error {
	payload := ExtractJSON(text)
	if payload == "" {
		return fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to decode response JSON: %w", err)
	}
	return nil
}

// ExtractJSON pulls the first complete JSON object or array out of model
// text, tolerating markdown fences and leading prose.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip a fenced block if present.
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		} else {
			text = strings.TrimSpace(rest)
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}

	open := text[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
