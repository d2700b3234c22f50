package recruiting

import (
	"reflect"
	"strings"
)

// splitListHook accepts "a, b; c" where a list of strings is expected.
func splitListHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}
	return SplitList(data.(string)), nil
}

// SplitList splits a comma, semicolon or newline separated list.
func SplitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	return cleanList(parts)
}
