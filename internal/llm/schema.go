package llm

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ReflectSchema derives a JSON schema from a Go struct, inlined (no $ref)
// so it can be embedded in prompts and provider schema fields.
func ReflectSchema(v any) (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reflected schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode reflected schema: %w", err)
	}

	// Provider schema fields do not accept the meta keys.
	delete(out, "$schema")
	delete(out, "$id")
	return out, nil
}

// SchemaJSON renders the reflected schema as indented JSON for prompt
// embedding.
func SchemaJSON(v any) (string, error) {
	schema, err := ReflectSchema(v)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
