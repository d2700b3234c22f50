// Package textnorm canonicalizes document text before it is hashed into prompts
// or compared across documents.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that NFD does not decompose into a base letter plus a combining mark.
var folds = strings.NewReplacer(
	"ç", "c", "Ç", "C",
	"ß", "ss",
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
	"ı", "i",
)

// Normalize strips diacritics, folds locale specific letters to their base
// Latin letter, collapses whitespace runs into single spaces and trims the result.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	// transform chains keep state, so a new one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	out = folds.Replace(out)
	return strings.Join(strings.Fields(out), " ")
}

// NormalizeList normalizes every entry and drops the ones left empty.
func NormalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if n := Normalize(item); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// WordCount returns the number of whitespace separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Truncate caps s at limit runes. A non-positive limit disables the cap.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
