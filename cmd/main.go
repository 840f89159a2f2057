package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/gommon/log"

	"cinebrew/pkg/config"
	"cinebrew/pkg/inference"
	"cinebrew/pkg/pipeline"
	"cinebrew/pkg/server"
	"cinebrew/pkg/utils"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ollama := inference.NewOllama(cfg.OllamaBaseURL, cfg.Model, cfg.Timeout, cfg.NumPredict)
	var gen inference.Generator = ollama
	model := ollama.Model()
	log.Infof("Using local model %s at %s", model, ollama.BaseURL())

	if cfg.OpenAIAPIKey != "" {
		openAI := inference.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		gen, model = openAI, openAI.Model()
		log.Infof("Using OpenAI-compatible backend with model %s", model)
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := inference.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal(err)
		}
		gen, model = gemini, gemini.Model()
		log.Infof("Using Gemini backend with model %s", model)
	}

	p := pipeline.New(gen, model)
	defaults := pipeline.Request{
		Temperature:   cfg.Temperature,
		MinStoryChars: cfg.MinStoryChars,
		Retries:       cfg.Retries,
	}

	srv := server.NewServer(ctx, p, defaults)
	srv.Echo.Logger.SetLevel(log.INFO)
	srv.ResultsPath = cfg.ResultsPath

	results, err := utils.Load[map[string]pipeline.Result](cfg.ResultsPath)
	if err == nil && results != nil {
		for id, res := range results {
			srv.Results.Store(id, res)
		}
		log.Infof("Loaded %d stored results", len(results))
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Failed to load %s: %v", cfg.ResultsPath, err)
	}

	addr := ":" + cfg.Port

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
	}
	<-finishedShutDown
}
