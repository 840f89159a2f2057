// Package pipeline sequences the generation stages that turn one story
// idea into a themed set of creative-writing artifacts.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"cinebrew/pkg/inference"
	"cinebrew/pkg/parse"
	"cinebrew/pkg/schema"
	"cinebrew/pkg/utils"
)

// Execution modes reported in result metadata.
const (
	ModeMultiCall  = "multi_call"
	ModeSingleCall = "single_call"
)

const (
	DefaultMinStoryChars = 120
	DefaultRetries       = 2

	// Classification runs cold so later prompts get stable context.
	classifyTemperature = 0.2

	classifyMaxTokens   = 512
	screenplayMaxTokens = 8192
	profileMaxTokens    = 4096
	soundMaxTokens      = 4096
	combinedMaxTokens   = 8192
)

// Request carries the per-run generation settings. Normalize once at the
// start of a run; the copy is never mutated afterwards.
type Request struct {
	Temperature   float64
	MinStoryChars int
	Retries       int
	TimeoutHint   time.Duration
}

func (r Request) normalized() Request {
	r.Temperature = inference.ClampTemperature(r.Temperature)
	if r.MinStoryChars <= 0 {
		r.MinStoryChars = DefaultMinStoryChars
	}
	if r.Retries < 0 {
		r.Retries = 0
	}
	return r
}

// Result is the single record handed to downstream consumers (web layer,
// exporters). Text fields are opaque plain text; failed stages leave
// their field empty and add one message to Errors.
type Result struct {
	OK            bool            `json:"ok"`
	GenreAnalysis schema.Analysis `json:"genre_analysis"`
	Screenplay    string          `json:"screenplay"`
	Characters    string          `json:"characters"`
	SoundDesign   string          `json:"sound_design"`
	Errors        []string        `json:"errors"`
	Meta          Meta            `json:"meta"`
}

// Meta records the settings a result was produced with.
type Meta struct {
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature"`
	MinStoryChars int     `json:"min_story_chars"`
	Mode          string  `json:"mode"`
}

// Pipeline drives the generation stages against a Generator. It holds no
// per-run state; concurrent runs share nothing but the generator.
type Pipeline struct {
	gen   inference.Generator
	model string
}

// New builds a pipeline around gen. model is only reported in result
// metadata; the generator owns the actual model selection.
func New(gen inference.Generator, model string) *Pipeline {
	return &Pipeline{gen: gen, model: model}
}

// Run executes the four stages sequentially: classification first (its
// output feeds the later prompts), then screenplay, character profiles,
// and the sound design plan. Stages are isolated; a failure records one
// error and never prevents the remaining stages from running. Validation
// failure is the only condition that returns before any generation call.
func (p *Pipeline) Run(ctx context.Context, idea string, req Request) Result {
	req = req.normalized()
	res := Result{
		Errors: []string{},
		Meta: Meta{
			Model:         p.model,
			Temperature:   req.Temperature,
			MinStoryChars: req.MinStoryChars,
			Mode:          ModeMultiCall,
		},
	}

	cleaned, err := ValidateStoryIdea(idea, req.MinStoryChars)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	var analysis *schema.Analysis
	if a, err := p.DetectGenreAndTone(ctx, cleaned, req); err != nil {
		log.Warn("genre detection failed", "error", err)
		res.Errors = append(res.Errors, "genre detection failed: "+err.Error())
	} else {
		analysis = a
		res.GenreAnalysis = *a
	}

	if text, err := p.Screenplay(ctx, cleaned, analysis, req); err != nil {
		log.Warn("screenplay generation failed", "error", err)
		res.Errors = append(res.Errors, "screenplay generation failed: "+err.Error())
	} else {
		res.Screenplay = text
	}

	if text, err := p.CharacterProfiles(ctx, cleaned, analysis, req); err != nil {
		log.Warn("character generation failed", "error", err)
		res.Errors = append(res.Errors, "character generation failed: "+err.Error())
	} else {
		res.Characters = text
	}

	if text, err := p.SoundDesignPlan(ctx, cleaned, analysis, req); err != nil {
		log.Warn("sound design generation failed", "error", err)
		res.Errors = append(res.Errors, "sound design generation failed: "+err.Error())
	} else {
		res.SoundDesign = text
	}

	res.OK = len(res.Errors) == 0
	return res
}

// RunSingleCall produces every artifact from one combined completion,
// split by literal markers. There is no stage isolation here: a missing
// marker set invalidates all three body sections at once, though each
// omission is still reported individually.
func (p *Pipeline) RunSingleCall(ctx context.Context, idea string, req Request) Result {
	req = req.normalized()
	res := Result{
		Errors: []string{},
		Meta: Meta{
			Model:         p.model,
			Temperature:   req.Temperature,
			MinStoryChars: req.MinStoryChars,
			Mode:          ModeSingleCall,
		},
	}

	cleaned, err := ValidateStoryIdea(idea, req.MinStoryChars)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	prompt := CombinedPrompt(cleaned)
	p.logPromptSize("combined", prompt)
	raw, err := p.gen.Generate(ctx, prompt, inference.Options{
		Temperature:     req.Temperature,
		MaxOutputTokens: combinedMaxTokens,
		Retries:         req.Retries,
		TimeoutHint:     req.TimeoutHint,
	})
	if err != nil {
		log.Warn("combined generation failed", "error", err)
		res.Errors = append(res.Errors, "combined generation failed: "+err.Error())
		return res
	}

	sections, problems := parse.SplitSections(raw)
	res.Errors = append(res.Errors, problems...)
	res.GenreAnalysis = schema.Analysis{
		Genre:   sections.Genre,
		Tone:    sections.Tone,
		Setting: sections.Setting,
	}
	res.Screenplay = sections.Screenplay
	res.Characters = sections.Characters
	res.SoundDesign = sections.SoundDesign

	res.OK = len(res.Errors) == 0
	return res
}

// DetectGenreAndTone runs the classification stage and parses its JSON
// output. idea must already be validated.
func (p *Pipeline) DetectGenreAndTone(ctx context.Context, idea string, req Request) (*schema.Analysis, error) {
	prompt := GenreDetectionPrompt(idea)
	p.logPromptSize("classification", prompt)
	raw, err := p.gen.Generate(ctx, prompt, inference.Options{
		Temperature:     classifyTemperature,
		MaxOutputTokens: classifyMaxTokens,
		Retries:         req.Retries,
		TimeoutHint:     req.TimeoutHint,
		JSONOnly:        true,
	})
	if err != nil {
		return nil, err
	}

	obj, err := parse.ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	a := schema.Analysis{
		Genre:   parse.CleanScalar(obj["genre"]),
		Tone:    parse.CleanScalar(obj["tone"]),
		Setting: parse.CleanScalar(obj["setting"]),
	}
	if !a.Complete() {
		return nil, errors.New("incomplete classification: need genre, tone, and setting")
	}
	return &a, nil
}

// Screenplay runs the screenplay stage. analysis may be nil when
// classification was unavailable.
func (p *Pipeline) Screenplay(ctx context.Context, idea string, analysis *schema.Analysis, req Request) (string, error) {
	return p.textStage(ctx, "screenplay", ScreenplayPrompt(idea, analysis), screenplayMaxTokens, req)
}

// CharacterProfiles runs the character profile stage.
func (p *Pipeline) CharacterProfiles(ctx context.Context, idea string, analysis *schema.Analysis, req Request) (string, error) {
	return p.textStage(ctx, "characters", CharacterProfilesPrompt(idea, analysis), profileMaxTokens, req)
}

// SoundDesignPlan runs the sound design stage.
func (p *Pipeline) SoundDesignPlan(ctx context.Context, idea string, analysis *schema.Analysis, req Request) (string, error) {
	return p.textStage(ctx, "sound_design", SoundDesignPrompt(idea, analysis), soundMaxTokens, req)
}

func (p *Pipeline) textStage(ctx context.Context, stage, prompt string, maxTokens int, req Request) (string, error) {
	p.logPromptSize(stage, prompt)
	raw, err := p.gen.Generate(ctx, prompt, inference.Options{
		Temperature:     req.Temperature,
		MaxOutputTokens: maxTokens,
		Retries:         req.Retries,
		TimeoutHint:     req.TimeoutHint,
	})
	if err != nil {
		return "", err
	}
	return parse.StripCodeFences(raw), nil
}

func (p *Pipeline) logPromptSize(stage, prompt string) {
	n, err := utils.EstimateTokens(prompt)
	if err != nil {
		return
	}
	log.Debug("composed prompt", "stage", stage, "chars", len(prompt), "tokens", n)
}
