package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/cv-screener/internal/ai"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultTemperature = 0.1
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is the Gemini backed text-generation service.
type Client struct {
	models    contentModels
	modelName string
	config    *genai.GenerateContentConfig
}

var _ ai.Service = (*Client)(nil)

// NewClient creates a new Client configured for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(client.Models, model), nil
}

func newClient(models contentModels, model string) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Client{
		models:    models,
		modelName: model,
		config: &genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](defaultTemperature),
		},
	}
}

// GenerateContent sends the prompt to Gemini and returns the joined text parts
// of every candidate. API errors are converted to *ai.StatusError.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.models == nil {
		return "", errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := c.models.GenerateContent(ctx, c.modelName, genai.Text(prompt), c.config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &ai.StatusError{Code: apiErr.Code, Err: fmt.Errorf("generate content: %w", err)}
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}
