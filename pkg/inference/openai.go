package inference

import (
	"cmp"
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"cinebrew/pkg/schema"
	"cinebrew/pkg/utils"
)

// OpenAI adapts any OpenAI-compatible chat completion endpoint (a hosted
// API or a local /v1-style server) to the Generator interface.
type OpenAI struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewOpenAI creates a new adapter using the OpenAI client.
func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		client: &client,
		apiKey: apiKey,
		model:  model,
	}
}

func (o *OpenAI) ChangeBaseURL(baseURL string) {
	client := openai.NewClient(
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(baseURL),
	)
	o.client = &client
}

func (o *OpenAI) SetModel(model string) { o.model = model }

func (o *OpenAI) Model() string { return o.model }

// Generate sends the prompt as a single user message. Retry and failure
// classification beyond what the SDK provides is owned by the Ollama
// backend; this adapter reports call failures as transport errors.
func (o *OpenAI) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Role: "user",
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.Opt[string]{Value: prompt},
					},
				},
			},
		},
		MaxCompletionTokens: openai.Int(int64(cmp.Or(opts.MaxOutputTokens, 4096))),
		Temperature:         openai.Float(ClampTemperature(opts.Temperature)),
		TopP:                openai.Float(1.0),
	}
	if opts.JSONOnly {
		params.ResponseFormat = schema.AnalysisResponseFormat()
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", newError(KindTransport, err, "chat completion request failed")
	}
	if len(resp.Choices) == 0 {
		return "", newError(KindBadResponse, nil, "no choices returned")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", newError(KindEmptyResponse, nil, "empty completion content")
	}

	return utils.NormalizeNewlines(content), nil
}
