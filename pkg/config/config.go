package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process-wide configuration, built once in main and passed
// to the client, pipeline, and server at construction. Nothing reads it
// as ambient global state afterwards.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	// Local model server (the default backend).
	OllamaBaseURL string        `envconfig:"OLLAMA_BASE_URL"`
	Model         string        `envconfig:"CINEBREW_MODEL" default:"granite4:micro"`
	Timeout       time.Duration `envconfig:"CINEBREW_TIMEOUT" default:"120s"`
	NumPredict    int           `envconfig:"CINEBREW_NUM_PREDICT" default:"2500"`

	// Pipeline defaults, overridable per request.
	Temperature   float64 `envconfig:"CINEBREW_TEMPERATURE" default:"0.7"`
	MinStoryChars int     `envconfig:"CINEBREW_MIN_STORY_CHARS" default:"120"`
	Retries       int     `envconfig:"CINEBREW_RETRIES" default:"2"`

	// Alternate hosted backends, enabled by their key being present.
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL"`

	ResultsPath string `envconfig:"CINEBREW_RESULTS_PATH" default:"Results.json"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	cfg.OllamaBaseURL = strings.TrimSpace(cfg.OllamaBaseURL)
	return &cfg, nil
}
