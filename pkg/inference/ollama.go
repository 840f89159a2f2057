package inference

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"cinebrew/pkg/utils"
)

const (
	defaultBaseURL    = "http://localhost:11434"
	defaultModel      = "granite4:micro"
	defaultNumPredict = 2500
	defaultTimeout    = 120 * time.Second

	maxRetryPause = time.Second
)

// Ollama talks to a local Ollama server through its non-streaming
// generate endpoint. The client holds only configuration, so one instance
// is safe to share across pipeline runs.
type Ollama struct {
	baseURL    string
	model      string
	numPredict int
	client     *http.Client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// NewOllama builds a client. An empty baseURL falls back to the
// OLLAMA_BASE_URL environment variable and then to the local default; a
// trailing slash is stripped either way. Zero timeout and numPredict take
// the package defaults.
func NewOllama(baseURL, model string, timeout time.Duration, numPredict int) *Ollama {
	base := cmp.Or(strings.TrimSpace(baseURL), strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")), defaultBaseURL)
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if numPredict <= 0 {
		numPredict = defaultNumPredict
	}
	return &Ollama{
		baseURL:    strings.TrimRight(base, "/"),
		model:      model,
		numPredict: numPredict,
		client:     &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) BaseURL() string { return o.baseURL }

func (o *Ollama) Model() string { return o.model }

func (o *Ollama) endpoint() string { return o.baseURL + "/api/generate" }

// Generate sends one prompt and returns the completion with line endings
// normalized to "\n". Only server-side (5xx) failures are retried, up to
// opts.Retries additional attempts; everything else fails fast.
func (o *Ollama) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	payload := generateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: ClampTemperature(opts.Temperature),
			// The output token budget is pinned to the configured
			// num_predict; opts.MaxOutputTokens is accepted for interface
			// compatibility with the hosted backends.
			NumPredict: o.numPredict,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", newError(KindTransport, err, "encoding generate request failed")
	}

	attempts := max(0, opts.Retries) + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && opts.TimeoutHint > 0 {
			if err := pause(ctx, min(opts.TimeoutHint, maxRetryPause)); err != nil {
				return "", err
			}
		}

		text, err := o.generateOnce(ctx, body)
		if err == nil {
			return text, nil
		}

		var ge *Error
		if errors.As(err, &ge) && ge.Retryable() && attempt+1 < attempts {
			lastErr = err
			continue
		}
		return "", err
	}
	return "", lastErr
}

func (o *Ollama) generateOnce(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", newError(KindTransport, err, "building generate request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", o.classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindBadResponse, err, "reading response from %s failed", o.baseURL)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := extractErrorMessage(raw)
		if o.isModelNotFound(msg) {
			return "", newError(KindModelNotFound, nil, "model %q not found; run: ollama pull %s", o.model, o.model)
		}
		if resp.StatusCode >= 500 {
			return "", newError(KindServer, nil, "server error %d: %s", resp.StatusCode, msg)
		}
		return "", newError(KindClient, nil, "request rejected with status %d: %s", resp.StatusCode, msg)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", newError(KindBadResponse, err, "invalid response from %s", o.baseURL)
	}
	if msg := strings.TrimSpace(out.Error); msg != "" {
		if o.isModelNotFound(msg) {
			return "", newError(KindModelNotFound, nil, "model %q not found; run: ollama pull %s", o.model, o.model)
		}
		return "", newError(KindClient, nil, "generation failed: %s", msg)
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", newError(KindEmptyResponse, nil, "empty response from %s", o.baseURL)
	}
	return utils.NormalizeNewlines(text), nil
}

func (o *Ollama) classifyTransport(err error) *Error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return newError(KindTimeout, err, "request timed out after %s", o.client.Timeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, err, "request timed out after %s", o.client.Timeout)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newError(KindUnreachable, err, "service unreachable at %s; start the model server and check the address", o.baseURL)
	}
	return newError(KindTransport, err, "generate request failed")
}

// isModelNotFound matches the endpoint's free-text signal for an absent
// model, regardless of which status carried it.
func (o *Ollama) isModelNotFound(msg string) bool {
	lower := strings.ToLower(msg)
	if !strings.Contains(lower, "not found") {
		return false
	}
	return strings.Contains(lower, "model") || strings.Contains(lower, strings.ToLower(o.model))
}

func extractErrorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return "unknown error"
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return newError(KindTimeout, ctx.Err(), "cancelled while pacing retry")
	case <-t.C:
		return nil
	}
}
