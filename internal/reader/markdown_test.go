package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarkdownSections(t *testing.T) {
	tmpDir := t.TempDir()
	mdFile := filepath.Join(tmpDir, "test.md")

	content := "Preface text before any header.\n\n" +
		"# Introduction\nThis is the *introduction*.\n\n" +
		"## Getting Started\nHere's how to get started.\n\n" +
		"### Prerequisites\nYou'll need these things installed.\n\n" +
		"```\n# not a header\n```\n\n" +
		"# Advanced Topics ##\nMore complex stuff here.\n"
	if err := os.WriteFile(mdFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	f := &MarkdownFormat{}
	sections, err := f.Sections(mdFile)
	if err != nil {
		t.Fatalf("Sections failed: %v", err)
	}

	expectedTitles := []string{"", "Introduction", "Getting Started", "Advanced Topics"}
	if len(sections) != len(expectedTitles) {
		t.Fatalf("Expected %d sections, got %d", len(expectedTitles), len(sections))
	}
	for i, s := range sections {
		if s.Title != expectedTitles[i] {
			t.Errorf("Section %d: expected title %q, got %q", i, expectedTitles[i], s.Title)
		}
	}

	if !strings.Contains(sections[1].HTML, "<em>introduction</em>") {
		t.Errorf("emphasis not rendered: %s", sections[1].HTML)
	}
	if !strings.Contains(sections[2].HTML, "<h3>Prerequisites</h3>") {
		t.Errorf("level three header should stay inside its chapter: %s", sections[2].HTML)
	}
	if !strings.Contains(sections[2].HTML, "# not a header") {
		t.Errorf("fenced code should not split chapters: %s", sections[2].HTML)
	}
}

func TestMarkdownNoHeaders(t *testing.T) {
	sections, err := markdownSections([]byte("Just a paragraph.\n\nAnd another."))
	if err != nil {
		t.Fatalf("markdownSections: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "" {
		t.Errorf("Expected untitled section, got %q", sections[0].Title)
	}
	if strings.Count(sections[0].HTML, "<p>") != 2 {
		t.Errorf("Expected two paragraphs: %s", sections[0].HTML)
	}
}

func TestMarkdownEmpty(t *testing.T) {
	sections, err := markdownSections([]byte("  \n\n"))
	if err != nil {
		t.Fatalf("markdownSections: %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("Expected no sections, got %d", len(sections))
	}
}
