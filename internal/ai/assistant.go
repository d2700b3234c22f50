package ai

import (
	"context"
	"errors"
	"fmt"
)

// Service is the raw text-generation backend: prompt in, completion out.
// Errors are transient from the caller's point of view.
type Service interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Generator is the resilient side of Service. An empty string means the
// completion is unavailable after all retries.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

var (
	// ErrUnavailable reports that the generator produced no completion.
	ErrUnavailable = errors.New("generation unavailable")
	// ErrInvalid reports a completion that does not satisfy the result schema.
	ErrInvalid = errors.New("invalid generation result")
)

// StructuredData is the candidate profile extracted from a resume.
type StructuredData struct {
	Name            string   `json:"name"`
	FormalEducation string   `json:"formal_education"`
	HardSkills      []string `json:"hard_skills"`
	SoftSkills      []string `json:"soft_skills"`
}

// Result is one validated and normalized resume analysis. Slices are never nil.
type Result struct {
	Conclusion           string         `json:"conclusion"`
	Score                float64        `json:"score"`
	TotalExperienceYears float64        `json:"total_experience_years"`
	BriefContent         string         `json:"brief_content,omitempty"`
	StructuredData       StructuredData `json:"structured_data"`
	Raw                  string         `json:"-"`
}

// StatusError carries the HTTP status of a failed service call.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }
