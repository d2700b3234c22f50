// Package jsonx recovers a JSON object from free-form model completions that
// may wrap it in markdown fences, prose or slightly malformed syntax.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceMarkers = regexp.MustCompile("```(?:[a-zA-Z]+)?")
	widestObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractObject returns the first JSON object found in raw. It never fails:
// when nothing can be recovered the result is an empty, non-nil map.
func ExtractObject(raw string) map[string]any {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return map[string]any{}
	}

	candidates := BalancedObjects(cleaned)
	if widest := widestObject.FindString(cleaned); widest != "" {
		candidates = append(candidates, widest)
	}

	for _, candidate := range candidates {
		if obj, ok := decode(candidate); ok {
			return obj
		}
	}

	for _, candidate := range candidates {
		if obj, ok := decode(RemoveTrailingCommas(candidate)); ok {
			return obj
		}
	}

	return map[string]any{}
}

// StripFences removes markdown code fence markers.
func StripFences(raw string) string {
	return strings.TrimSpace(fenceMarkers.ReplaceAllString(raw, ""))
}

// BalancedObjects returns every top-level {...} span of s in order. Braces
// inside JSON strings do not count towards the depth.
func BalancedObjects(s string) []string {
	var (
		spans    []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, s[start:i+1])
				start = -1
			}
		}
	}

	return spans
}

// RemoveTrailingCommas drops commas that directly precede a closing bracket
// or brace, ignoring string contents.
func RemoveTrailingCommas(s string) string {
	var (
		b        strings.Builder
		inString bool
		escaped  bool
	)
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			b.WriteByte(ch)
			continue
		}

		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}

		b.WriteByte(ch)
	}

	return b.String()
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func decode(candidate string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
