package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		expect map[string]any
	}{
		{
			name:   "fenced with prose",
			raw:    "Here is the result: ```json\n{\"score\": 7}\n``` Thanks!",
			expect: map[string]any{"score": 7.0},
		},
		{
			name:   "trailing commas",
			raw:    `{"a": 1, "b": [1,2,],}`,
			expect: map[string]any{"a": 1.0, "b": []any{1.0, 2.0}},
		},
		{
			name: "nested braces",
			raw:  `Result -> {"score": 8.2, "structured_data": {"name": "Ana Silva", "hard_skills": ["Go"]}} end`,
			expect: map[string]any{
				"score": 8.2,
				"structured_data": map[string]any{
					"name":        "Ana Silva",
					"hard_skills": []any{"Go"},
				},
			},
		},
		{
			name:   "braces inside strings",
			raw:    `{"conclusion": "uses {curly} and } braces", "score": 5}`,
			expect: map[string]any{"conclusion": "uses {curly} and } braces", "score": 5.0},
		},
		{
			name:   "first object invalid second valid",
			raw:    `{not json} and then {"score": 3}`,
			expect: map[string]any{"score": 3.0},
		},
		{
			name:   "no object",
			raw:    "I cannot help with that.",
			expect: map[string]any{},
		},
		{
			name:   "empty",
			raw:    "   ",
			expect: map[string]any{},
		},
		{
			name:   "unbalanced",
			raw:    `{"score": 7`,
			expect: map[string]any{},
		},
		{
			name:   "comma inside string kept",
			raw:    `{"conclusion": "a, ]", "list": ["x",],}`,
			expect: map[string]any{"conclusion": "a, ]", "list": []any{"x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractObject(tt.raw)
			assert.NotNil(t, got)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestBalancedObjects(t *testing.T) {
	spans := BalancedObjects(`x {"a": {"b": 1}} y {"c": "}"} z }`)
	assert.Equal(t, []string{`{"a": {"b": 1}}`, `{"c": "}"}`}, spans)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, "plain", StripFences("plain"))
}
