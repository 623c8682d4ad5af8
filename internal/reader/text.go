package reader

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var blankLines = regexp.MustCompile(`\n[ \t]*\n`)

// TextSections turns plain text into one section of paragraphs separated by
// blank lines.
func TextSections(text string) ([]Section, error) {
	if !utf8.ValidString(text) {
		return nil, ErrUnsupported
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var b strings.Builder
	for _, para := range blankLines.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(strings.Join(strings.Fields(para), " ")))
		b.WriteString("</p>\n")
	}
	return []Section{{HTML: b.String()}}, nil
}
