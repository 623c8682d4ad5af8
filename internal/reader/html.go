package reader

import (
	"bytes"
	"os"

	"golang.org/x/net/html/charset"

	"github.com/metcalfc/simplyread/internal/errors"
)

// HTMLFormat implements Format for saved web pages.
type HTMLFormat struct{}

func init() {
	Register(&HTMLFormat{})
}

func (f *HTMLFormat) Name() string         { return "HTML" }
func (f *HTMLFormat) Extensions() []string { return []string{".html", ".htm", ".xhtml"} }

// Sections returns the page as a single section, decoded from whatever
// charset the page declares.
func (f *HTMLFormat) Sections(filename string) ([]Section, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read html")
	}
	text, err := decode(data, "text/html")
	if err != nil {
		return nil, err
	}
	title := titleOf(text)
	return []Section{{Title: title, HTML: text, Book: title}}, nil
}

// decode converts data to UTF-8 using the content type and any <meta>
// charset declaration.
func decode(data []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return "", errors.Wrap(err, "detect charset")
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", errors.Wrap(err, "decode charset")
	}
	return buf.String(), nil
}
