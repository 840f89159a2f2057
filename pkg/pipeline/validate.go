package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"cinebrew/pkg/utils"
)

var spaceRX = regexp.MustCompile(`\s+`)

// ValidateStoryIdea normalizes and checks the user's story idea. It
// returns the newline-normalized, trimmed text unchanged in content.
// minChars is the minimum number of non-whitespace characters; counting
// ignores whitespace entirely so padded input cannot sneak past.
func ValidateStoryIdea(idea string, minChars int) (string, error) {
	cleaned := strings.TrimSpace(utils.NormalizeNewlines(idea))

	compact := strings.TrimSpace(spaceRX.ReplaceAllString(cleaned, " "))
	if compact == "" {
		return "", errors.New("story idea cannot be empty")
	}

	nonWS := utf8.RuneCountInString(spaceRX.ReplaceAllString(cleaned, ""))
	if nonWS < minChars {
		return "", fmt.Errorf("story idea is too short: provide at least %d non-whitespace characters", minChars)
	}

	return cleaned, nil
}
