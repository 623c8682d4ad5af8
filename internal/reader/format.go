package reader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/metcalfc/simplyread/internal/errors"
)

// Section is raw HTML for one chapter, before sanitising.
type Section struct {
	Title string
	HTML  string
	// Book is the title of the whole work, when the format knows it.
	Book string
}

// Format converts a file of one kind into sections.
type Format interface {
	Name() string
	Extensions() []string
	Sections(filename string) ([]Section, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// ReadSections reads a file through the format registered for its
// extension, falling back to plain text.
func ReadSections(filename string) ([]Section, error) {
	if f := formatFor(filename); f != nil {
		return f.Sections(filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	return TextSections(string(data))
}

func formatFor(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
