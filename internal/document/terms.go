package document

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HighlightTerms wraps every word of at least minLen letters in a
// hover-definition term span and returns how many were wrapped. Words inside
// links, code, existing terms and live substitutions are left alone.
func (d *Document) HighlightTerms(minLen int) int {
	if minLen <= 0 {
		return 0
	}
	count := 0
	for _, run := range d.Runs() {
		if run.Marked != nil || run.Term != nil || skipTerms(run.Node) {
			continue
		}
		words := run.Words()
		// Right to left so earlier offsets stay valid as the node shrinks.
		for i := len(words) - 1; i >= 0; i-- {
			core, ok := termCore(words[i], minLen)
			if !ok {
				continue
			}
			word := core.Text()
			span := NewElement(atom.Span,
				html.Attribute{Key: "class", Val: ClassTerm},
				html.Attribute{Key: AttrTerm, Val: word},
			)
			span.AppendChild(NewText(word))
			ReplaceRange(core, span)
			count++
		}
	}
	return count
}

// termCore strips punctuation around a token and reports whether what is
// left is a long enough, purely alphabetic word.
func termCore(w Range, minLen int) (Range, bool) {
	w = w.Core()
	text := w.Text()
	if utf8.RuneCountInString(text) < minLen {
		return w, false
	}
	for _, c := range text {
		if !unicode.IsLetter(c) {
			return w, false
		}
	}
	return w, true
}

func skipTerms(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.DataAtom {
		case atom.A, atom.Code, atom.Pre, atom.Kbd, atom.Samp:
			return true
		}
	}
	return false
}
