package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/recruiting"
	"github.com/spigell/cv-screener/internal/utils"
)

var unsafeNameChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "")

// writeMarkdown stores a human readable report at
// <dir>/<folder>/<candidate>-<short hash>.md and returns its path.
func writeMarkdown(dir string, opening recruiting.Opening, analysis recruiting.Analysis, result *ai.Result) (string, error) {
	folder := filepath.Join(dir, safeName(opening.Folder, "openings"))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create report folder: %w", err)
	}

	file := filepath.Join(folder, reportName(analysis))
	if err := os.WriteFile(file, []byte(renderMarkdown(opening, analysis, result)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return file, nil
}

// reportName keeps reports of different documents for the same candidate apart.
func reportName(analysis recruiting.Analysis) string {
	hash := utils.ShortHash(analysis.ContentHash)
	name := safeName(analysis.Title, "candidate")
	if hash == "" {
		return name + ".md"
	}
	return name + "-" + hash + ".md"
}

func renderMarkdown(opening recruiting.Opening, analysis recruiting.Analysis, result *ai.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", analysis.Title)
	fmt.Fprintf(&b, "- Opening: %s (%s)\n", opening.Title, opening.ID)
	fmt.Fprintf(&b, "- Score: %.1f\n", result.Score)
	fmt.Fprintf(&b, "- Experience: %.1f years\n", result.TotalExperienceYears)
	if analysis.FormalEducation != "" {
		fmt.Fprintf(&b, "- Education: %s\n", analysis.FormalEducation)
	}
	if len(analysis.HardSkills) > 0 {
		fmt.Fprintf(&b, "- Hard skills: %s\n", strings.Join(analysis.HardSkills, ", "))
	}
	if len(analysis.SoftSkills) > 0 {
		fmt.Fprintf(&b, "- Soft skills: %s\n", strings.Join(analysis.SoftSkills, ", "))
	}
	if result.BriefContent != "" {
		fmt.Fprintf(&b, "\n## Summary\n\n%s\n", result.BriefContent)
	}
	fmt.Fprintf(&b, "\n## Conclusion\n\n%s\n", result.Conclusion)
	return b.String()
}

func safeName(name, fallback string) string {
	name = strings.TrimSpace(unsafeNameChars.Replace(name))
	if name == "" || name == "." || name == ".." {
		return fallback
	}
	return name
}
