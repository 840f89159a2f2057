package inference

import (
	"context"
	"math"
	"time"
)

// DefaultTemperature is substituted when a caller passes a non-numeric
// sampling temperature.
const DefaultTemperature = 0.7

// Options tunes a single generation call.
type Options struct {
	// Temperature is clamped to [0,1] before transmission; NaN falls back
	// to DefaultTemperature.
	Temperature float64
	// MaxOutputTokens is the output token budget.
	MaxOutputTokens int
	// Retries is the number of additional attempts after the first,
	// consumed only by retryable failures.
	Retries int
	// TimeoutHint paces the gap between retry attempts. It never alters
	// the transport timeout.
	TimeoutHint time.Duration
	// JSONOnly asks backends with structured-output support to constrain
	// the completion to the classification schema. The Ollama backend
	// relies on the prompt contract instead and ignores it.
	JSONOnly bool
}

// Generator runs one prompt against a text model and returns the raw
// completion. Implementations classify failures as *Error and keep no
// per-call state, so a single instance may be shared across runs.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// ClampTemperature forces a sampling temperature into [0,1]. NaN becomes
// DefaultTemperature.
func ClampTemperature(v float64) float64 {
	if math.IsNaN(v) {
		v = DefaultTemperature
	}
	return math.Max(0, math.Min(1, v))
}
