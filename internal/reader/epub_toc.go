package reader

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"

	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/logger"
)

const ncxMediaType = "application/x-dtbncx+xml"

// NCX structures, enough of toc.ncx to title spine items.
type ncx struct {
	NavMap struct {
		Points []navPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type navPoint struct {
	Label   string `xml:"navLabel>text"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

// tocTitles maps spine hrefs to the first TOC label that points into them.
type tocTitles map[string]string

// lookup tries the full href, then its base name.
func (t tocTitles) lookup(href string) (string, bool) {
	if href == "" {
		return "", false
	}
	if title, ok := t[href]; ok {
		return title, true
	}
	title, ok := t[path.Base(href)]
	return title, ok
}

func (t tocTitles) add(src, title string) {
	if title == "" {
		return
	}
	file := src
	if i := strings.IndexByte(file, '#'); i >= 0 {
		file = file[:i]
	}
	for _, k := range []string{file, path.Base(file)} {
		if _, exists := t[k]; !exists {
			t[k] = title
		}
	}
}

// readTOC returns the titles from the book's NCX. A missing or broken NCX
// yields an empty map; chapters then fall back to their own headings.
func readTOC(filename string, book *epub.Rootfile) tocTitles {
	titles := tocTitles{}

	log := logger.Named("reader")
	data, err := findAndReadNCX(filename, book)
	if err != nil {
		log.Debugw("no table of contents", logger.FieldSource, filename, logger.FieldError, err)
		return titles
	}
	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		log.Warnw("unreadable table of contents", logger.FieldSource, filename, logger.FieldError, err)
		return titles
	}

	var walk func([]navPoint)
	walk = func(points []navPoint) {
		for _, np := range points {
			titles.add(np.Content.Src, strings.Join(strings.Fields(np.Label), " "))
			walk(np.Children)
		}
	}
	walk(toc.NavMap.Points)
	return titles
}

// findAndReadNCX locates the NCX through the manifest, resolved against the
// rootfile's directory, or failing that any *.ncx in the archive.
func findAndReadNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open epub archive")
	}
	defer zr.Close()

	var want string
	for _, item := range book.Manifest.Items {
		if item.MediaType == ncxMediaType {
			want = path.Join(path.Dir(book.FullPath), item.HREF)
			break
		}
	}

	var exact, loose *zip.File
	for _, f := range zr.File {
		switch {
		case want != "" && f.Name == want:
			exact = f
		case loose != nil:
		case want != "" && path.Base(f.Name) == path.Base(want):
			loose = f
		case want == "" && strings.HasSuffix(strings.ToLower(f.Name), ".ncx"):
			loose = f
		}
	}
	match := exact
	if match == nil {
		match = loose
	}
	if match == nil {
		return nil, errors.New("no NCX file found in EPUB")
	}

	rc, err := match.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", match.Name)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
