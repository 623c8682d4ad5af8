package reader

import (
	"bufio"
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/metcalfc/simplyread/internal/errors"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// Sections splits the file into chapters at level one and two headers.
func (f *MarkdownFormat) Sections(filename string) ([]Section, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read markdown")
	}
	return markdownSections(data)
}

// chapterHeader matches the headers that start a new chapter (# and ##).
var chapterHeader = regexp.MustCompile(`^(#{1,2})\s+(.+?)\s*#*\s*$`)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer))

func markdownSections(data []byte) ([]Section, error) {
	type chunk struct {
		title string
		src   bytes.Buffer
	}
	var chunks []*chunk
	cur := &chunk{}
	chunks = append(chunks, cur)

	inFence := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if match := chapterHeader.FindStringSubmatch(line); match != nil {
				if cur.src.Len() > 0 || cur.title != "" {
					cur = &chunk{}
					chunks = append(chunks, cur)
				}
				cur.title = strings.TrimSpace(match[2])
			}
		}
		cur.src.WriteString(line)
		cur.src.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan markdown")
	}

	var out []Section
	for _, c := range chunks {
		if strings.TrimSpace(c.src.String()) == "" {
			continue
		}
		var html bytes.Buffer
		if err := markdown.Convert(c.src.Bytes(), &html); err != nil {
			return nil, errors.Wrap(err, "render markdown")
		}
		out = append(out, Section{Title: c.title, HTML: html.String()})
	}
	return out, nil
}
