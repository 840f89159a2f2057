// Package parse recovers structured data from model output. Models drift
// from the requested format, so both parsers tolerate code fences,
// leading chatter, and trailing commentary.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cinebrew/pkg/utils"
)

// Section markers for single-call output. The splitter locates content
// purely by these literal strings, so prompt builders must emit them
// verbatim.
const (
	MarkerScreenplay  = "===SCREENPLAY==="
	MarkerCharacters  = "===CHARACTERS==="
	MarkerSoundDesign = "===SOUND_DESIGN==="
)

var (
	fenceOpenRX  = regexp.MustCompile("^```[a-zA-Z0-9_-]*\n?")
	fenceCloseRX = regexp.MustCompile("\n?```$")
)

// StripCodeFences removes a markdown fence wrapper, any language tag
// included, when the whole text is wrapped in one.
func StripCodeFences(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") && strings.HasSuffix(t, "```") {
		t = fenceOpenRX.ReplaceAllString(t, "")
		t = fenceCloseRX.ReplaceAllString(t, "")
	}
	return strings.TrimSpace(t)
}

// ExtractJSONObject decodes a JSON object from model output. The model is
// told to emit JSON only, but extraction stays defensive: when the whole
// trimmed text does not parse as an object, the first complete JSON value
// starting at the first '{' is decoded and trailing commentary ignored.
// Do not tighten this to whole-string parsing; real model output leaks
// prose around the object.
func ExtractJSONObject(text string) (map[string]any, error) {
	raw := StripCodeFences(utils.NormalizeNewlines(text))

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj, nil
	}

	start := strings.Index(raw, "{")
	if start < 0 {
		return nil, errors.New("no JSON object found in output")
	}

	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON in output: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("JSON in output is not an object")
	}
	return obj, nil
}

// CleanScalar coerces a decoded JSON field to a trimmed string. Nested
// structures count as empty.
func CleanScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case map[string]any, []any:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// Sections holds the six values extracted from a single-call completion.
type Sections struct {
	Genre       string
	Tone        string
	Setting     string
	Screenplay  string
	Characters  string
	SoundDesign string
}

var (
	genreRX   = regexp.MustCompile(`(?m)^GENRE[ \t]*:[ \t]*(.+?)[ \t]*$`)
	toneRX    = regexp.MustCompile(`(?m)^TONE[ \t]*:[ \t]*(.+?)[ \t]*$`)
	settingRX = regexp.MustCompile(`(?m)^SETTING[ \t]*:[ \t]*(.+?)[ \t]*$`)
)

// SplitSections extracts the three single-line fields and three marker
// delimited sections from a combined completion. Field labels and section
// markers are located independently: missing or out-of-order markers
// empty all three sections and record one aggregate problem, while label
// extraction still proceeds. Every value still empty afterwards
// contributes its own named problem; omissions accumulate instead of
// short-circuiting.
func SplitSections(text string) (Sections, []string) {
	raw := StripCodeFences(utils.NormalizeNewlines(text))

	var s Sections
	var problems []string

	s.Genre = firstMatch(genreRX, raw)
	s.Tone = firstMatch(toneRX, raw)
	s.Setting = firstMatch(settingRX, raw)

	sIdx := strings.Index(raw, MarkerScreenplay)
	cIdx := strings.Index(raw, MarkerCharacters)
	dIdx := strings.Index(raw, MarkerSoundDesign)

	if sIdx < 0 || cIdx < 0 || dIdx < 0 || sIdx >= cIdx || cIdx >= dIdx {
		problems = append(problems, "single-call output missing one or more required markers")
	} else {
		s.Screenplay = strings.Trim(raw[sIdx+len(MarkerScreenplay):cIdx], "\n ")
		s.Characters = strings.Trim(raw[cIdx+len(MarkerCharacters):dIdx], "\n ")
		s.SoundDesign = strings.Trim(raw[dIdx+len(MarkerSoundDesign):], "\n ")
	}

	for _, field := range []struct{ name, value string }{
		{"GENRE", s.Genre},
		{"TONE", s.Tone},
		{"SETTING", s.Setting},
		{"SCREENPLAY content", s.Screenplay},
		{"CHARACTERS content", s.Characters},
		{"SOUND_DESIGN content", s.SoundDesign},
	} {
		if field.value == "" {
			problems = append(problems, "single-call output missing "+field.name)
		}
	}
	return s, problems
}

func firstMatch(rx *regexp.Regexp, text string) string {
	m := rx.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
