package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"cinebrew/pkg/pipeline"
	"cinebrew/pkg/utils"
)

// Server is the thin HTTP surface over the generation pipeline. It treats
// every pipeline text field as opaque plain text.
type Server struct {
	Echo     *echo.Echo
	Pipeline *pipeline.Pipeline
	Ctx      context.Context

	// Results stores finished runs by id, persisted across restarts.
	Results     *utils.SyncMap[map[string]pipeline.Result, string, pipeline.Result]
	ResultsPath string

	// Defaults seed each request; callers may override temperature, mode,
	// and the minimum idea length per call.
	Defaults pipeline.Request
}

func NewServer(ctx context.Context, p *pipeline.Pipeline, defaults pipeline.Request) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:        e,
		Pipeline:    p,
		Ctx:         ctx,
		Results:     utils.NewSyncMap[map[string]pipeline.Result](),
		ResultsPath: "Results.json",
		Defaults:    defaults,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.POST("/generate", s.handlePostGenerate) // run the pipeline -> pipeline.Result
	api.GET("/results/:id", s.handleGetResult)  // fetch a stored result
}

func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	saveErr := utils.Save(s.ResultsPath, s.Results.Map())
	if err := s.Echo.Shutdown(ctx); err != nil {
		return err
	}
	return saveErr
}
