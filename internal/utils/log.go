package utils

import "strings"

// ShortHashLength is how many leading hex digits of a content hash are kept
// in log fields and report file names.
const ShortHashLength = 12

// Preview collapses whitespace runs in s and cuts the result to limit runes,
// so prompts and completions stay on one log line.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func ShortHash(hash string) string {
	if len(hash) > ShortHashLength {
		return hash[:ShortHashLength]
	}
	return hash
}
