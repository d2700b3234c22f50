package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/recruiting"
	"github.com/spigell/cv-screener/internal/textnorm"
)

const (
	MinScore = 0.0
	MaxScore = 10.0
)

var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// ParseScore reads a number from a model value. Strings such as "9,5" or
// "8.5/10" are accepted; ok is false when no number can be found.
func ParseScore(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		match := numberPattern.FindString(val)
		if match == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NormalizeScore returns the score clamped into [MinScore, MaxScore],
// defaulting to MinScore for values that are not numbers.
func NormalizeScore(v any) float64 {
	f, ok := ParseScore(v)
	if !ok {
		return MinScore
	}
	return Clamp(f, MinScore, MaxScore)
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

var errScoreNotNumeric = errors.New("score is not numeric")

// toResult converts a schema-valid object into a total ai.Result.
func toResult(obj map[string]any) (*ai.Result, error) {
	score, ok := ParseScore(obj["score"])
	if !ok {
		return nil, fmt.Errorf("%w: %v", errScoreNotNumeric, obj["score"])
	}

	years, _ := ParseScore(obj["total_experience_years"])

	result := &ai.Result{
		Conclusion:           coerceString(obj["conclusion"]),
		Score:                Clamp(score, MinScore, MaxScore),
		TotalExperienceYears: math.Max(0, years),
		BriefContent:         coerceString(obj["brief_content"]),
		StructuredData: ai.StructuredData{
			HardSkills: []string{},
			SoftSkills: []string{},
		},
	}

	if structured, ok := obj["structured_data"].(map[string]any); ok {
		result.StructuredData = ai.StructuredData{
			Name:            strings.Join(strings.Fields(coerceString(structured["name"])), " "),
			FormalEducation: coerceString(structured["formal_education"]),
			HardSkills:      textnorm.NormalizeList(coerceList(structured["hard_skills"])),
			SoftSkills:      textnorm.NormalizeList(coerceList(structured["soft_skills"])),
		}
	}

	return result, nil
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceList(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, coerceString(item))
		}
		return out
	case []string:
		return val
	case string:
		return recruiting.SplitList(val)
	default:
		return nil
	}
}
