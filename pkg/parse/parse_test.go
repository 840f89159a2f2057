package parse_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebrew/pkg/parse"
	"cinebrew/pkg/schema"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "just text", "just text"},
		{"bare fences", "```\nhello\n```", "hello"},
		{"language tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```text\nbody\n```  ", "body"},
		{"unclosed fence left alone", "```json\n{\"a\":1}", "```json\n{\"a\":1}"},
		{"fences inside text kept", "before ``` middle ``` after", "before ``` middle ``` after"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parse.StripCodeFences(tc.in))
		})
	}
}

func TestExtractJSONObjectRoundTrip(t *testing.T) {
	in := schema.Analysis{Genre: "Drama", Tone: "Somber", Setting: "Rural"}
	bin, err := json.Marshal(in)
	require.NoError(t, err)

	obj, err := parse.ExtractJSONObject(string(bin))
	require.NoError(t, err)

	assert.Equal(t, "Drama", parse.CleanScalar(obj["genre"]))
	assert.Equal(t, "Somber", parse.CleanScalar(obj["tone"]))
	assert.Equal(t, "Rural", parse.CleanScalar(obj["setting"]))
}

func TestExtractJSONObjectTolerance(t *testing.T) {
	t.Run("trailing commentary ignored", func(t *testing.T) {
		obj, err := parse.ExtractJSONObject(`{"genre":"Drama","tone":"Somber","setting":"Rural"} -- end of analysis`)
		require.NoError(t, err)
		assert.Equal(t, "Drama", obj["genre"])
		assert.Equal(t, "Rural", obj["setting"])
	})

	t.Run("leading chatter skipped", func(t *testing.T) {
		obj, err := parse.ExtractJSONObject("Sure! Here is the JSON:\n{\"genre\":\"Horror\",\"tone\":\"Tense\",\"setting\":\"Arctic\"}")
		require.NoError(t, err)
		assert.Equal(t, "Horror", obj["genre"])
	})

	t.Run("fenced object", func(t *testing.T) {
		obj, err := parse.ExtractJSONObject("```json\n{\"genre\":\"Noir\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "Noir", obj["genre"])
	})

	t.Run("no object at all", func(t *testing.T) {
		_, err := parse.ExtractJSONObject("the model refused to answer")
		assert.Error(t, err)
	})

	t.Run("array is not an object", func(t *testing.T) {
		_, err := parse.ExtractJSONObject(`["Drama","Somber"]`)
		assert.Error(t, err)
	})

	t.Run("broken object", func(t *testing.T) {
		_, err := parse.ExtractJSONObject(`{"genre": "Drama",`)
		assert.Error(t, err)
	})
}

func TestCleanScalar(t *testing.T) {
	assert.Equal(t, "", parse.CleanScalar(nil))
	assert.Equal(t, "Drama", parse.CleanScalar("  Drama  "))
	assert.Equal(t, "", parse.CleanScalar(map[string]any{"nested": 1}))
	assert.Equal(t, "", parse.CleanScalar([]any{"a", "b"}))
	assert.Equal(t, "3.5", parse.CleanScalar(3.5))
	assert.Equal(t, "42", parse.CleanScalar(float64(42)))
	assert.Equal(t, "true", parse.CleanScalar(true))
}

func combinedOutput() string {
	return strings.Join([]string{
		"GENRE: Psychological Thriller",
		"TONE: Unsettling",
		"SETTING: Remote lighthouse",
		"",
		parse.MarkerScreenplay,
		"INT. LIGHTHOUSE - NIGHT",
		"The lamp sweeps the fog.",
		"",
		parse.MarkerCharacters,
		"Name: Mara",
		"Age: 34",
		"---",
		"Name: Elias",
		"Age: 61",
		"",
		parse.MarkerSoundDesign,
		"SCENE 1: Arrival",
		"MUSIC GENRE: Sparse strings",
	}, "\n")
}

func TestSplitSectionsComplete(t *testing.T) {
	s, problems := parse.SplitSections(combinedOutput())

	assert.Empty(t, problems)
	assert.Equal(t, "Psychological Thriller", s.Genre)
	assert.Equal(t, "Unsettling", s.Tone)
	assert.Equal(t, "Remote lighthouse", s.Setting)
	assert.Contains(t, s.Screenplay, "INT. LIGHTHOUSE - NIGHT")
	assert.Contains(t, s.Characters, "Name: Elias")
	assert.Contains(t, s.SoundDesign, "SCENE 1: Arrival")

	// Sections are strictly between markers, not overlapping.
	assert.NotContains(t, s.Screenplay, parse.MarkerCharacters)
	assert.NotContains(t, s.Characters, parse.MarkerSoundDesign)
}

func TestSplitSectionsMissingMarker(t *testing.T) {
	in := strings.ReplaceAll(combinedOutput(), parse.MarkerCharacters+"\n", "")
	s, problems := parse.SplitSections(in)

	// All three body sections collapse together; labels still parse.
	assert.Empty(t, s.Screenplay)
	assert.Empty(t, s.Characters)
	assert.Empty(t, s.SoundDesign)
	assert.Equal(t, "Psychological Thriller", s.Genre)
	assert.Equal(t, "Unsettling", s.Tone)

	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0], "markers")
	// One aggregate marker problem plus one per empty section.
	assert.Len(t, problems, 4)
}

func TestSplitSectionsOutOfOrderMarkers(t *testing.T) {
	in := strings.Join([]string{
		"GENRE: Drama",
		"TONE: Quiet",
		"SETTING: Harbor town",
		parse.MarkerCharacters,
		"Name: Ada",
		parse.MarkerScreenplay,
		"INT. PIER - DAWN",
		parse.MarkerSoundDesign,
		"SCENE 1: Tide",
	}, "\n")

	s, problems := parse.SplitSections(in)
	assert.Empty(t, s.Screenplay)
	assert.Empty(t, s.Characters)
	assert.Empty(t, s.SoundDesign)
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0], "markers")
}

func TestSplitSectionsAccumulatesFieldOmissions(t *testing.T) {
	in := strings.Join([]string{
		parse.MarkerScreenplay,
		"INT. SOMEWHERE - DAY",
		parse.MarkerCharacters,
		"Name: Solo",
		parse.MarkerSoundDesign,
		"SCENE 1: Quiet",
	}, "\n")

	s, problems := parse.SplitSections(in)
	assert.NotEmpty(t, s.Screenplay)
	assert.Len(t, problems, 3)
	joined := strings.Join(problems, "; ")
	assert.Contains(t, joined, "GENRE")
	assert.Contains(t, joined, "TONE")
	assert.Contains(t, joined, "SETTING")
}

func TestSplitSectionsFencedAndCRLF(t *testing.T) {
	in := "```\n" + strings.ReplaceAll(combinedOutput(), "\n", "\r\n") + "\n```"
	s, problems := parse.SplitSections(in)
	assert.Empty(t, problems)
	assert.Equal(t, "Psychological Thriller", s.Genre)
	assert.Contains(t, s.SoundDesign, "Sparse strings")
}
