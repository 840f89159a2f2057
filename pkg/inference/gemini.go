package inference

import (
	"context"

	"google.golang.org/genai"

	"cinebrew/pkg/utils"
)

// Gemini adapts the Gemini API to the Generator interface.
type Gemini struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGemini creates a new adapter using the Gemini client.
func NewGemini(apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Gemini{
		client: client,
		apiKey: apiKey,
		model:  model,
	}, nil
}

func (g *Gemini) Model() string { return g.model }

// Generate sends the prompt as plain text content. JSONOnly switches the
// response MIME type so the completion stays machine-parseable.
func (g *Gemini) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(ClampTemperature(opts.Temperature))),
		MaxOutputTokens: int32(maxTokens),
	}
	if opts.JSONOnly {
		config.ResponseMIMEType = "application/json"
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", newError(KindTransport, err, "content generation request failed")
	}

	text := result.Text()
	if text == "" {
		return "", newError(KindEmptyResponse, nil, "empty completion content")
	}
	return utils.NormalizeNewlines(text), nil
}
