// Package selection normalises raw user selections into the units the
// simplify and bias flows accept.
package selection

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
)

// MinPassageLength is the number of characters a passage must exceed before
// it is analysed for bias.
const MinPassageLength = 20

// Unit is a validated selection.
type Unit struct {
	Text    string
	Range   document.Range
	Context string
	// Marked is the live substitution element the selection lies in, if any.
	Marked *html.Node
	Rect   events.Rect
}

// Word accepts a selection of exactly one whitespace-delimited token inside
// a single visible text node. The returned range is narrowed to the word,
// without surrounding punctuation.
func Word(doc *document.Document, sel events.Selection) (Unit, bool) {
	if !doc.Live(sel.Range) {
		return Unit{}, false
	}
	r := sel.Range.Trim()
	if text := r.Text(); text == "" || len(strings.Fields(text)) != 1 {
		return Unit{}, false
	}
	r = r.Core()
	text := r.Text()

	u := Unit{
		Text:   text,
		Range:  r,
		Marked: document.MarkedAncestor(r.Node),
		Rect:   sel.Rect,
	}
	ctxNode := r.Node
	if u.Marked != nil {
		ctxNode = u.Marked
	}
	u.Context = doc.ContextOf(ctxNode)
	return u, true
}

// Passage accepts a selection long enough to be a sentence: more than
// MinPassageLength characters and containing a full stop.
func Passage(sel events.Selection) (Unit, bool) {
	text := strings.TrimSpace(sel.Text)
	if utf8.RuneCountInString(text) <= MinPassageLength || !strings.Contains(text, ".") {
		return Unit{}, false
	}
	return Unit{Text: text, Range: sel.Range, Rect: sel.Rect}, true
}

// Any accepts any selection with visible text.
func Any(sel events.Selection) (Unit, bool) {
	text := strings.TrimSpace(sel.Text)
	if text == "" {
		return Unit{}, false
	}
	return Unit{Text: text, Range: sel.Range, Rect: sel.Rect}, true
}
