package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

// Analysis is the immutable genre/tone/setting triple produced by the
// classification stage and consumed read-only by later prompt builders.
// The zero value represents "classification unavailable".
type Analysis struct {
	Genre   string `json:"genre" jsonschema_description:"Likely genre of the story idea (1-6 words)"`
	Tone    string `json:"tone" jsonschema_description:"Overall tone of the story (1-6 words)"`
	Setting string `json:"setting" jsonschema_description:"Primary setting of the story (1-10 words)"`
}

// Complete reports whether all three fields carry a value.
func (a Analysis) Complete() bool {
	return a.Genre != "" && a.Tone != "" && a.Setting != ""
}

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

var AnalysisSchema = generateSchema[Analysis]()

// AnalysisResponseFormat constrains OpenAI-compatible backends to emit
// the classification triple as strict JSON.
func AnalysisResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "genre_analysis",
		Description: openai.String("Genre, tone, and setting inferred from a story idea"),
		Schema:      AnalysisSchema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}
