package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"cinebrew/pkg/pipeline"
	"cinebrew/pkg/utils"
)

type generateReq struct {
	StoryIdea   string   `json:"story_idea"`
	Temperature *float64 `json:"temperature,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	MinChars    int      `json:"min_chars,omitempty"`
}

type generateResp struct {
	ID     string          `json:"id"`
	Result pipeline.Result `json:"result"`
}

// POST /api/generate
func (s *Server) handlePostGenerate(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		log.Error("invalid JSON in /api/generate", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	run := s.Defaults
	if req.Temperature != nil {
		run.Temperature = *req.Temperature
	}
	if req.MinChars > 0 {
		run.MinStoryChars = req.MinChars
	}

	id := ksuid.New().String()
	mode := strings.TrimSpace(req.Mode)
	log.Info("starting generation", "id", id, "mode", mode, "chars", len(req.StoryIdea))

	ctx := c.Request().Context()
	var res pipeline.Result
	switch mode {
	case "", "multi", pipeline.ModeMultiCall:
		res = s.Pipeline.Run(ctx, req.StoryIdea, run)
	case "single", pipeline.ModeSingleCall:
		res = s.Pipeline.RunSingleCall(ctx, req.StoryIdea, run)
	default:
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("unknown mode: "+mode))
	}

	s.Results.Store(id, res)
	if res.OK {
		log.Info("generation finished", "id", id)
	} else {
		log.Warn("generation finished with errors", "id", id, "errors", len(res.Errors))
	}

	return c.JSON(http.StatusOK, generateResp{ID: id, Result: res})
}

// GET /api/results/:id
func (s *Server) handleGetResult(c echo.Context) error {
	id := c.Param("id")
	res, ok := s.Results.Load(id)
	if !ok {
		return c.JSON(http.StatusNotFound, utils.ErrJSON("no result with id "+utils.LimitStr(id, 64)))
	}
	return c.JSON(http.StatusOK, res)
}
