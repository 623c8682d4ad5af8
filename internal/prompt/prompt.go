// Package prompt implements the difficulty prompt: a transient overlay that
// resolves to a chosen level or a cancellation.
//
// States are Idle, Open, and the two terminal outcomes. At most one prompt is
// Open per Prompt; opening another cancels the first.
package prompt

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
)

const (
	// Kind is the overlay kind of the prompt element.
	Kind = "prompt"

	attrButtonLevel = "data-level"
)

// Outcome is how an open prompt ended.
type Outcome struct {
	Level     Level
	Cancelled bool
}

// Chosen returns the selected level, or false when the prompt was cancelled.
func (o Outcome) Chosen() (Level, bool) {
	if o.Cancelled || !o.Level.Valid() {
		return 0, false
	}
	return o.Level, true
}

// Prompt is the difficulty prompt state machine for one document.
type Prompt struct {
	doc  *document.Document
	open *pending
}

type pending struct {
	id      string
	word    string
	anchor  events.Rect
	resolve func(Outcome)
}

// New returns an idle prompt that renders into doc.
func New(doc *document.Document) *Prompt {
	return &Prompt{doc: doc}
}

// Open shows the prompt for word near anchor. resolve is called exactly once,
// on the loop, after the overlay has been removed. An already open prompt is
// cancelled first.
func (p *Prompt) Open(word string, anchor events.Rect, resolve func(Outcome)) string {
	p.Cancel()

	el := document.NewOverlay(Kind)
	below := anchor.Below()
	document.SetPosition(el, below.X, below.Y)

	msg := document.NewElement(atom.P)
	msg.AppendChild(document.NewText(`Select a difficulty level for "` + word + `":`))
	el.AppendChild(msg)
	for _, l := range Levels() {
		b := document.NewElement(atom.Button, html.Attribute{Key: attrButtonLevel, Val: l.String()})
		b.AppendChild(document.NewText(l.String()))
		el.AppendChild(b)
	}

	id := p.doc.AddOverlay(el)
	p.open = &pending{id: id, word: word, anchor: anchor, resolve: resolve}
	return id
}

// IsOpen reports whether a prompt is waiting for input.
func (p *Prompt) IsOpen() bool {
	return p.open != nil
}

// Word returns the word the open prompt asks about.
func (p *Prompt) Word() (string, bool) {
	if p.open == nil {
		return "", false
	}
	return p.open.word, true
}

// ID returns the overlay id of the open prompt.
func (p *Prompt) ID() string {
	if p.open == nil {
		return ""
	}
	return p.open.id
}

// Click feeds a click to the prompt. A click on a level button resolves it,
// a click outside the prompt cancels it, and a click elsewhere inside the
// prompt is ignored. It reports whether the prompt changed state.
func (p *Prompt) Click(target *html.Node) bool {
	if p.open == nil {
		return false
	}
	el := p.doc.Overlay(p.open.id)
	if el == nil || !inside(target, el) {
		p.finish(Outcome{Cancelled: true})
		return true
	}
	for n := target; n != nil && n != el; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.Button {
			if l, err := ParseLevel(document.Attr(n, attrButtonLevel)); err == nil {
				p.finish(Outcome{Level: l})
				return true
			}
		}
	}
	return false
}

// Choose resolves the open prompt with l as if its button had been clicked.
func (p *Prompt) Choose(l Level) bool {
	if p.open == nil || !l.Valid() {
		return false
	}
	p.finish(Outcome{Level: l})
	return true
}

// Button returns the button element for l in the open prompt.
func (p *Prompt) Button(l Level) *html.Node {
	if p.open == nil {
		return nil
	}
	el := p.doc.Overlay(p.open.id)
	if el == nil {
		return nil
	}
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Button && document.Attr(c, attrButtonLevel) == l.String() {
			return c
		}
	}
	return nil
}

// Cancel resolves an open prompt as cancelled. It is a no-op when idle.
func (p *Prompt) Cancel() {
	if p.open != nil {
		p.finish(Outcome{Cancelled: true})
	}
}

// finish tears the overlay down and then hands the outcome over, so a resolve
// callback that opens a new prompt sees an idle machine.
func (p *Prompt) finish(o Outcome) {
	cur := p.open
	p.open = nil
	p.doc.RemoveOverlay(cur.id)
	if cur.resolve != nil {
		cur.resolve(o)
	}
}

func inside(n, el *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == el {
			return true
		}
	}
	return false
}
