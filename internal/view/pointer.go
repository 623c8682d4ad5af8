package view

import (
	"time"

	"golang.org/x/net/html"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
)

// DefaultDoubleClick is the longest gap between the clicks of a double-click.
const DefaultDoubleClick = 400 * time.Millisecond

// Pointer turns presses, drags and releases on tokens into the gestures a
// browser would report: mouse-up, click, double-click and hover changes.
// Token index -1 means the pointer is over no word.
type Pointer struct {
	Doc         *document.Document
	Layout      *Layout
	DoubleClick time.Duration

	down      bool
	anchor    int
	head      int
	lastClick time.Time
	lastTok   int
	hovered   *html.Node
}

// NewPointer returns a pointer over l.
func NewPointer(doc *document.Document, l *Layout, doubleClick time.Duration) *Pointer {
	if doubleClick <= 0 {
		doubleClick = DefaultDoubleClick
	}
	return &Pointer{Doc: doc, Layout: l, DoubleClick: doubleClick, anchor: -1, head: -1, lastTok: -1}
}

// Relayout swaps in a fresh layout. Gesture state refers to token indexes,
// so an in-progress gesture is dropped when the number of tokens changed.
func (p *Pointer) Relayout(l *Layout) {
	changed := p.Layout == nil || len(p.Layout.Tokens) != len(l.Tokens)
	p.Layout = l
	if changed {
		p.down = false
		p.anchor, p.head, p.lastTok = -1, -1, -1
	}
}

// Press starts a gesture on tok.
func (p *Pointer) Press(tok int) {
	p.down = true
	p.anchor, p.head = tok, tok
}

// Drag extends the gesture to tok while the button is held.
func (p *Pointer) Drag(tok int) {
	if p.down && tok >= 0 {
		if p.anchor < 0 {
			p.anchor = tok
		}
		p.head = tok
	}
}

// Dragging reports whether a multi-word selection is being drawn.
func (p *Pointer) Dragging() bool {
	return p.down && p.anchor >= 0 && p.head >= 0 && p.anchor != p.head
}

// Span returns the token range currently being selected.
func (p *Pointer) Span() (a, b int, ok bool) {
	if !p.down || p.anchor < 0 || p.head < 0 {
		return -1, -1, false
	}
	a, b = order(p.anchor, p.head)
	return a, b, true
}

// Release ends the gesture on tok at time now. A release on the press token
// is a click; a second click on the same token within DoubleClick also
// yields a double-click carrying the word selection.
func (p *Pointer) Release(tok int, now time.Time) []events.Event {
	if !p.down {
		return nil
	}
	p.down = false
	if tok >= 0 {
		p.head = tok
	}

	var out []events.Event
	if p.anchor >= 0 && p.head >= 0 && p.anchor != p.head {
		out = append(out, events.MouseUp{Selection: p.Layout.Selection(p.anchor, p.head)})
		p.lastTok = -1
		return out
	}

	double := tok >= 0 && tok == p.lastTok && now.Sub(p.lastClick) <= p.DoubleClick
	sel := events.Selection{}
	if double {
		sel = p.Layout.Selection(tok, tok)
	}
	target := p.target(tok)
	at := p.point(tok)
	out = append(out,
		events.MouseUp{Selection: sel},
		events.Click{Target: target, Point: at},
	)
	if double {
		out = append(out, events.DoubleClick{Selection: sel, Target: target})
		p.lastTok = -1
	} else {
		p.lastTok = tok
		p.lastClick = now
	}
	return out
}

// Move reports hover transitions as the pointer moves onto tok.
func (p *Pointer) Move(tok int) []events.Event {
	var term *html.Node
	if tok >= 0 && tok < len(p.Layout.Tokens) {
		term = p.Layout.Tokens[tok].Term
	}
	if term == p.hovered {
		return nil
	}
	var out []events.Event
	if p.hovered != nil {
		out = append(out, events.HoverExit{Target: p.hovered})
	}
	p.hovered = term
	if term != nil {
		out = append(out, events.HoverEnter{Target: p.Layout.Tokens[tok].Range.Node, Point: p.point(tok)})
	}
	return out
}

// Leave reports a hover exit when the pointer leaves the text entirely.
func (p *Pointer) Leave() []events.Event {
	return p.Move(-1)
}

func (p *Pointer) target(tok int) *html.Node {
	if tok >= 0 && tok < len(p.Layout.Tokens) {
		return p.Layout.Tokens[tok].Range.Node
	}
	return p.Doc.Body()
}

func (p *Pointer) point(tok int) events.Point {
	if tok < 0 || tok >= len(p.Layout.Tokens) {
		return events.Point{}
	}
	t := p.Layout.Tokens[tok]
	return events.Point{X: float64(t.Col), Y: float64(t.Line)}
}
