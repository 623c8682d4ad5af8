package reader

import (
	"fmt"
	"io"

	"github.com/taylorskalyo/goreader/epub"

	"github.com/metcalfc/simplyread/internal/errors"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Sections returns one section per spine item, titled from the NCX table of
// contents where it names the item.
func (f *EPUBFormat) Sections(filename string) ([]Section, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open epub")
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, errors.New("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	toc := readTOC(filename, book)

	var out []Section
	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		title, _ := toc.lookup(ref.Item.HREF)
		if title == "" {
			title = titleOf(string(data))
		}
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}

		out = append(out, Section{
			Title: title,
			HTML:  string(data),
			Book:  book.Metadata.Title,
		})
	}
	return out, nil
}
