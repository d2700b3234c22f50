package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/generation"
)

type fakeModels struct {
	mu      sync.Mutex
	resp    *genai.GenerateContentResponse
	err     error
	model   string
	prompts []string
	config  *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
	f.config = config
	for _, content := range contents {
		for _, part := range content.Parts {
			f.prompts = append(f.prompts, part.Text)
		}
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestClientJoinsTextParts(t *testing.T) {
	models := &fakeModels{resp: textResponse(" {\"score\": ", "", "7} ")}
	client := newClient(models, "")

	output, err := client.GenerateContent(context.Background(), "  analyse this  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output != "{\"score\":\n7}" {
		t.Fatalf("unexpected output: %q", output)
	}
	if models.model != defaultModel {
		t.Fatalf("expected default model, got %q", models.model)
	}
	if len(models.prompts) != 1 || models.prompts[0] != "analyse this" {
		t.Fatalf("unexpected prompts: %#v", models.prompts)
	}
	if models.config == nil || models.config.Temperature == nil || *models.config.Temperature != defaultTemperature {
		t.Fatalf("expected low temperature config")
	}
}

func TestClientEmptyResponse(t *testing.T) {
	client := newClient(&fakeModels{resp: &genai.GenerateContentResponse{}}, "gemini-pro")

	if _, err := client.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty response")
	}
	if client.Model() != "gemini-pro" {
		t.Fatalf("unexpected model: %s", client.Model())
	}
}

func TestClientConvertsAPIErrors(t *testing.T) {
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted",
	}
	client := newClient(&fakeModels{err: quotaErr}, "gemini-pro")

	_, err := client.GenerateContent(context.Background(), "prompt")

	var statusErr *ai.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %T: %v", err, err)
	}
	if statusErr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected code: %d", statusErr.Code)
	}
	if reason := generation.Classify(err); reason != generation.ReasonRateLimit {
		t.Fatalf("expected rate limit classification, got %s", reason)
	}
}

func TestClientRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{resp: textResponse("x")}
	client := newClient(models, "")

	if _, err := client.GenerateContent(context.Background(), " \n "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if len(models.prompts) != 0 {
		t.Fatalf("expected no request, got %#v", models.prompts)
	}

	var nilClient *Client
	if _, err := nilClient.GenerateContent(context.Background(), "x"); err == nil {
		t.Fatal("expected error for nil client")
	}
}
