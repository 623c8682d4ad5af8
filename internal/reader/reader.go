// Package reader loads readable content (HTML pages and files, Markdown,
// EPUB, plain text) into sanitised live documents, one per chapter.
package reader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/errors"
)

var (
	// ErrUnsupported is returned for content that cannot be shown as text.
	ErrUnsupported = errors.New("unsupported content")
	// ErrEmpty is returned when a source has no readable text.
	ErrEmpty = errors.New("no readable content")
)

// Chapter is one independently annotated document of a book.
type Chapter struct {
	Title string
	Doc   *document.Document
}

// Book is everything loaded from one source.
type Book struct {
	Title    string
	Source   string
	Chapters []Chapter
}

// Loader resolves sources to books.
type Loader struct {
	Client *http.Client
	// MaxBytes caps the size of a fetched page.
	MaxBytes int64
}

// DefaultLoader fetches pages with a 30 second timeout and a 10 MiB cap.
var DefaultLoader = &Loader{
	Client:   &http.Client{Timeout: 30 * time.Second},
	MaxBytes: 10 << 20,
}

// Load is DefaultLoader.Load.
func Load(ctx context.Context, source string) (*Book, error) {
	return DefaultLoader.Load(ctx, source)
}

// Load reads an http(s) URL or a local file.
func (l *Loader) Load(ctx context.Context, source string) (*Book, error) {
	var (
		sections []Section
		err      error
	)
	if IsURL(source) {
		sections, err = l.fetch(ctx, source)
	} else {
		sections, err = ReadSections(source)
	}
	if err != nil {
		return nil, err
	}

	book, err := Build(sections)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", source)
	}
	book.Source = source
	if book.Title == "" {
		book.Title = fallbackTitle(source)
	}
	return book, nil
}

// IsURL reports whether source names an http or https resource.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Build sanitises each section into a chapter, dropping sections without
// visible text.
func Build(sections []Section) (*Book, error) {
	book := &Book{}
	for i, s := range sections {
		doc, err := Sanitize(s.HTML)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(doc.Text()) == "" {
			continue
		}
		title := s.Title
		if title == "" {
			title = headingOf(doc)
		}
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}
		if book.Title == "" {
			book.Title = s.Book
		}
		book.Chapters = append(book.Chapters, Chapter{Title: title, Doc: doc})
	}
	if len(book.Chapters) == 0 {
		return nil, ErrEmpty
	}
	return book, nil
}

// Words returns the number of whitespace-separated words in a chapter.
func (c Chapter) Words() int {
	return len(strings.Fields(c.Doc.Text()))
}

func fallbackTitle(source string) string {
	if u, err := url.Parse(source); err == nil && IsURL(source) {
		if base := path.Base(u.Path); base != "/" && base != "." {
			return base
		}
		return u.Host
	}
	return strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
}
