package cleaner

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is the encoding used by the GPT-4 family and most
// OpenAI-compatible providers.
const tokenEncoding = "cl100k_base"

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// CountTokens counts tokens with the cl100k_base encoding. The encoding
// is loaded on first use; when it cannot be loaded (e.g. offline) the
// result falls back to EstimateTokens.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err != nil {
			slog.Warn("tokens: encoding unavailable, using estimate", "encoding", tokenEncoding, "error", err)
			return
		}
		encoder = enc
	})
	if encoder == nil {
		return EstimateTokens(text)
	}
	return len(encoder.Encode(text, nil, nil))
}

// EstimateTokens provides a fast token count estimate without tiktoken.
//
// Heuristic: utf8 rune count / 3. English text averages ~4 chars/token and
// CJK text ~1.5, so 3 slightly over-estimates mixed content.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}
