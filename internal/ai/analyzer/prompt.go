package analyzer

import (
	"embed"
	"fmt"
	"strings"
)

// Version selects the prompt template and with it the scoring rubric the
// model is asked to apply. Parsing and validation are shared by all versions.
type Version string

const (
	// VersionFixedBase starts every candidate from a fixed base score. Deprecated.
	VersionFixedBase Version = "v1"
	// VersionWeighted sums weighted criteria. Deprecated.
	VersionWeighted Version = "v2"
	// VersionSeniority bands the final score by experience against required seniority.
	VersionSeniority Version = "v3"

	DefaultVersion = VersionSeniority
)

//go:embed prompts/*.md
var promptFS embed.FS

// ParseVersion accepts a version name; empty selects DefaultVersion.
func ParseVersion(s string) (Version, error) {
	switch v := Version(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return DefaultVersion, nil
	case VersionFixedBase, VersionWeighted, VersionSeniority:
		return v, nil
	default:
		return "", fmt.Errorf("unknown prompt version %q (expected v1, v2 or v3)", s)
	}
}

// Deprecated reports whether the version is kept only for comparison with old runs.
func (v Version) Deprecated() bool {
	return v != VersionSeniority
}

// BuildPrompt fills the template of version v.
func BuildPrompt(v Version, resume, opening string) (string, error) {
	template, err := promptFS.ReadFile("prompts/" + string(v) + ".md")
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", v, err)
	}

	// One pass, so placeholders inside the resume or the opening stay literal.
	return strings.NewReplacer("{{RESUME}}", resume, "{{OPENING}}", opening).Replace(string(template)), nil
}
