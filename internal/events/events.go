// Package events is the abstract input channel the annotation controllers
// subscribe to. Front ends translate terminal or window input into these
// events; tests publish them directly.
package events

import (
	"golang.org/x/net/html"

	"github.com/metcalfc/simplyread/internal/document"
)

// Point is a pointer position in front-end coordinates.
type Point struct {
	X, Y float64
}

// Rect is the bounding box of a selection in front-end coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Below returns the point just under the bottom-left corner of r, where
// popups anchored to a selection are placed.
func (r Rect) Below() Point {
	return Point{X: r.X, Y: r.Y + r.H}
}

// Selection is what the user currently has selected. Range is only set when
// the selection lies within a single text node.
type Selection struct {
	Text  string
	Range document.Range
	Rect  Rect
}

// Event is one user gesture.
type Event interface {
	event()
}

// DoubleClick is a double-click on Target with the word it selected.
type DoubleClick struct {
	Selection Selection
	Target    *html.Node
}

// MouseUp ends a selection gesture.
type MouseUp struct {
	Selection Selection
}

// Click is a single primary click on Target.
type Click struct {
	Target *html.Node
	Point  Point
}

// HoverEnter fires when the pointer enters Target.
type HoverEnter struct {
	Target *html.Node
	Point  Point
}

// HoverExit fires when the pointer leaves Target.
type HoverExit struct {
	Target *html.Node
}

func (DoubleClick) event() {}
func (MouseUp) event()     {}
func (Click) event()       {}
func (HoverEnter) event()  {}
func (HoverExit) event()   {}
