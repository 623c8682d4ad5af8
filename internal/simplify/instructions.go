package simplify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/metcalfc/simplyread/internal/prompt"
)

func simplifyInstruction(word, sentence string, level prompt.Level) string {
	return fmt.Sprintf("Provide only one synonym for '%s' suitable for a %s readability level in this context: %s. "+
		"Do NOT return a full sentence or explanation, only a single word response.",
		word, strings.ToLower(level.String()), sentence)
}

func defineInstruction(word, sentence string) string {
	return fmt.Sprintf("Give a short, plain-language definition of '%s' as it is used in this context: %s. "+
		"Answer in one sentence without repeating the word.", word, sentence)
}

func biasInstruction(passage string) string {
	return "Analyze the following paragraph for bias, misinformation, or sensationalism. " +
		"If biased, explain why briefly. If misinformation, correct it. " +
		"Otherwise, return 'Neutral'. Provide a 1-2 sentence explanation.\n\n" +
		fmt.Sprintf("Paragraph: %q", passage)
}

// firstToken returns the leading token of s after leading whitespace,
// splitting on whitespace, '.' and ','. A response that opens with
// punctuation has an empty first token.
func firstToken(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if end := strings.IndexFunc(s, isSeparator); end >= 0 {
		return s[:end]
	}
	return s
}

func isSeparator(r rune) bool {
	return r == '.' || r == ',' || unicode.IsSpace(r)
}
