package utils

import (
	"github.com/pkoukk/tiktoken-go"
)

// EstimateTokens approximates the token count of a prompt. The cl100k
// encoding is close enough for budget logging regardless of the local
// model actually serving the request.
func EstimateTokens(text string) (int, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
