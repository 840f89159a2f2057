package pipeline

import (
	"fmt"
	"strings"

	"cinebrew/pkg/parse"
	"cinebrew/pkg/schema"
)

// Prompt builders are pure string composition: a role framing, a strict
// plain-text output contract, the optional analysis context, and the
// story idea verbatim. Malformed ideas are rejected by validation before
// any builder runs; builders themselves never fail.

const genrePrompt = `You are a film development analyst.
Task: Identify the likely GENRE, TONE, and SETTING of the story idea.
Strict rules:
- Output MUST be valid JSON only (no markdown, no commentary, no code fences).
- JSON keys must be exactly: genre, tone, setting
- Values must be short strings (1-6 words each).

Return JSON now for this story idea:
`

const screenplayPrompt = `You are a professional screenwriter.
Write an industry-formatted SCREENPLAY based on the story idea.

STRICT FORMAT RULES (MUST FOLLOW):
1) NO MARKDOWN. Output plain text only.
2) Scene headings MUST be in ALL CAPS and start with INT. or EXT.
   Example: INT. ABANDONED THEATRE - NIGHT
3) Use standard screenplay blocks: ACTION, CHARACTER, DIALOGUE, PARENTHETICAL, TRANSITIONS.
4) CHARACTER NAMES MUST BE UPPERCASE and centered using indentation: 20 leading spaces.
5) Dialogue lines should be indented 12 spaces.
6) Parentheticals should be indented 10 spaces and wrapped in parentheses.
7) Keep spacing readable and consistent. Preserve line breaks.
8) Do not include any explanations, outlines, or bullet lists. Only the screenplay.
`

const characterPrompt = `You are a character development specialist for film/TV.
Generate DETAILED CHARACTER PROFILES derived from the story idea.

STRICT OUTPUT RULES:
- NO MARKDOWN. Plain text only.
- Create 3 to 6 main characters (no extras list).
- Each character must be separated by a clear divider line exactly: '---'
- For each character, output these fields EXACTLY with labels:
  Name:
  Age:
  Background:
  Psychological Depth:
  Motivation:
  Internal Conflict:
  Character Arc:
  Relationships:
- Keep each field substantial but concise (2-6 sentences each).
- Do not add any other fields. Do not add commentary.
`

const soundDesignPrompt = `You are a film sound designer and re-recording mixer.
Create a SCENE-BASED SOUND DESIGN PLAN for the story idea.

STRICT OUTPUT RULES:
- NO MARKDOWN. Plain text only.
- Provide 3 to 6 scenes.
- For each scene, start with a heading exactly like: 'SCENE 1: <short name>'
- Under each scene, include these sections EXACTLY with labels in ALL CAPS:
  MUSIC GENRE:
  AMBIENT SOUND:
  FOLEY EFFECTS:
  MIXING NOTES:
  EMOTIONAL ALIGNMENT:
- Each section must be 1-4 sentences (or compact lists in a single line).
- Ensure recommendations match the scene mood and overall tone.
- Do not add any other sections or commentary.
`

// GenreDetectionPrompt asks for the classification triple as strict JSON.
func GenreDetectionPrompt(idea string) string {
	return genrePrompt + idea + "\n"
}

// ScreenplayPrompt composes the screenplay request. A nil analysis drops
// the context block entirely.
func ScreenplayPrompt(idea string, analysis *schema.Analysis) string {
	var b strings.Builder
	b.WriteString(screenplayPrompt)
	b.WriteString("\nCONTEXT (use as guidance, not as extra output):\n")
	b.WriteString(analysisBlock(analysis))
	b.WriteString("\nSTORY IDEA:\n")
	b.WriteString(idea)
	b.WriteString("\n\nDeliver a complete short screenplay (approximately 3-6 scenes).\n")
	return b.String()
}

// CharacterProfilesPrompt composes the character profile request.
func CharacterProfilesPrompt(idea string, analysis *schema.Analysis) string {
	var b strings.Builder
	b.WriteString(characterPrompt)
	b.WriteString("\nCONTEXT:\n")
	b.WriteString(analysisBlock(analysis))
	b.WriteString("\nSTORY IDEA:\n")
	b.WriteString(idea)
	b.WriteString("\n")
	return b.String()
}

// SoundDesignPrompt composes the sound design request.
func SoundDesignPrompt(idea string, analysis *schema.Analysis) string {
	var b strings.Builder
	b.WriteString(soundDesignPrompt)
	b.WriteString("\nCONTEXT:\n")
	b.WriteString(analysisBlock(analysis))
	b.WriteString("\nSTORY IDEA:\n")
	b.WriteString(idea)
	b.WriteString("\n")
	return b.String()
}

// CombinedPrompt asks for every artifact in one completion, delimited by
// the exact literal markers the splitter searches for.
func CombinedPrompt(idea string) string {
	var b strings.Builder
	b.WriteString("You are a professional screenwriter and film development team.\n")
	b.WriteString("Generate ALL outputs in ONE response using the exact markers below.\n")
	b.WriteString("STRICT RULES:\n")
	b.WriteString("- NO markdown. Plain text only.\n")
	b.WriteString("- Use the markers EXACTLY as shown (each marker on its own line).\n")
	b.WriteString("- Do not add extra sections, headers, or commentary.\n\n")
	b.WriteString("First output 3 single-line fields:\n")
	b.WriteString("GENRE: <1-6 words>\n")
	b.WriteString("TONE: <1-6 words>\n")
	b.WriteString("SETTING: <1-10 words>\n\n")
	b.WriteString("Then output the content blocks with these markers:\n")
	b.WriteString(parse.MarkerScreenplay + "\n")
	b.WriteString("(industry-formatted screenplay, 3-6 scenes, strict screenplay formatting, no bullets)\n")
	b.WriteString(parse.MarkerCharacters + "\n")
	b.WriteString("(3-6 characters, plain text, separate each character with a divider line exactly: '---')\n")
	b.WriteString(parse.MarkerSoundDesign + "\n")
	b.WriteString("(3-6 scenes, each scene heading 'SCENE N: <name>' and sections: MUSIC GENRE, AMBIENT SOUND, FOLEY EFFECTS, MIXING NOTES, EMOTIONAL ALIGNMENT)\n\n")
	b.WriteString("STORY IDEA:\n")
	b.WriteString(idea)
	b.WriteString("\n")
	return b.String()
}

func analysisBlock(a *schema.Analysis) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("Genre: %s\nTone: %s\nSetting: %s\n", a.Genre, a.Tone, a.Setting)
}
