package openings

import (
	"path"
	"regexp"
	"strings"
)

const addInfosSuffix = "_add_infos.txt"

var fileNamePattern = regexp.MustCompile(`^(\d+)_?(.*)$`)

// IsMainFile reports whether name is an opening description rather than a
// companion file.
func IsMainFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, addInfosSuffix) {
		return false
	}
	return strings.HasSuffix(lower, ".pdf") || strings.HasSuffix(lower, ".txt")
}

// AddInfosName is the companion file of a main file: "12_backend.pdf" pairs
// with "12_add_infos.txt".
func AddInfosName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	return prefix + addInfosSuffix
}

// ParseFileName reads "<digits>_<title>.<ext>" into an id and a title with
// underscores turned into spaces.
func ParseFileName(name string) (id, title string, ok bool) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	title = strings.TrimSuffix(m[2], path.Ext(m[2]))
	title = strings.Join(strings.Fields(strings.ReplaceAll(title, "_", " ")), " ")
	return m[1], title, true
}
