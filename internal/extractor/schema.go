package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildCandidateJSONSchema returns a JSON-Schema (draft 2020-12 subset) for
// one extracted candidate object, as a generic map. Everything except "name"
// is nullable; structural validation only, the placeholder-name policy lives
// in the pipeline.
func BuildCandidateJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []any{"string", "null"}}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"name":       map[string]any{"type": "string"},
			"email":      nullableString,
			"phone":      nullableString,
			"title":      nullableString,
			"sector":     nullableString,
			"experience": nullableString,
			"education":  nullableString,
			"summary":    nullableString,
			"skills": map[string]any{
				"type":  []any{"array", "null"},
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"name"},
	}
}

// ValidateCandidateJSON validates raw candidate JSON against the candidate
// schema. Used on extractor output before a record is accepted.
func ValidateCandidateJSON(data []byte) error {
	b, err := json.Marshal(BuildCandidateJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("candidate.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("candidate.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal candidate: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("candidate does not match schema: %w", err)
	}
	return nil
}
