package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema accepts the loose shapes models produce; coercion into the
// strict ai.Result happens after validation.
func resultSchema() map[string]any {
	optionalText := map[string]any{"type": []string{"string", "null"}}
	list := map[string]any{
		"type":  []string{"array", "string", "null"},
		"items": map[string]any{"type": []string{"string", "number", "null"}},
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"conclusion", "score"},
		"properties": map[string]any{
			"conclusion":             map[string]any{"type": "string", "pattern": `\S`},
			"score":                  map[string]any{"type": []string{"number", "string"}},
			"total_experience_years": map[string]any{"type": []string{"number", "string", "null"}},
			"brief_content":          optionalText,
			"structured_data": map[string]any{
				"type": []string{"object", "null"},
				"properties": map[string]any{
					"name":             optionalText,
					"formal_education": optionalText,
					"hard_skills":      list,
					"soft_skills":      list,
				},
			},
		},
	}
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}

	schema, err := compiler.Compile("result.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
