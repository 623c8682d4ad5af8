package document

import (
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewOverlay builds a detached overlay element of the given kind with a
// unique id. Overlays are only ever removed by that id.
func NewOverlay(kind string) *html.Node {
	return NewElement(atom.Div,
		html.Attribute{Key: "id", Val: kind + "-" + uuid.NewString()},
		html.Attribute{Key: "class", Val: "simplyread-" + kind},
		html.Attribute{Key: AttrOverlay, Val: kind},
	)
}

// OverlayID returns the id of an overlay element.
func OverlayID(n *html.Node) string {
	return Attr(n, "id")
}

// OverlayKind returns the kind an overlay was created with.
func OverlayKind(n *html.Node) string {
	return Attr(n, AttrOverlay)
}

// SetPosition records where a front end should draw an overlay.
func SetPosition(n *html.Node, x, y float64) {
	SetAttr(n, AttrX, strconv.FormatFloat(x, 'f', -1, 64))
	SetAttr(n, AttrY, strconv.FormatFloat(y, 'f', -1, 64))
}

// Position returns the coordinates recorded by SetPosition.
func Position(n *html.Node) (x, y float64) {
	x, _ = strconv.ParseFloat(Attr(n, AttrX), 64)
	y, _ = strconv.ParseFloat(Attr(n, AttrY), 64)
	return x, y
}

// AddOverlay attaches an overlay built by NewOverlay and returns its id.
func (d *Document) AddOverlay(n *html.Node) string {
	d.layer.AppendChild(n)
	return OverlayID(n)
}

// RemoveOverlay detaches the overlay with the given id. It reports whether
// such an overlay was attached.
func (d *Document) RemoveOverlay(id string) bool {
	if id == "" {
		return false
	}
	for c := d.layer.FirstChild; c != nil; c = c.NextSibling {
		if OverlayID(c) == id {
			d.layer.RemoveChild(c)
			return true
		}
	}
	return false
}

// Overlay returns the attached overlay with the given id.
func (d *Document) Overlay(id string) *html.Node {
	for c := d.layer.FirstChild; c != nil; c = c.NextSibling {
		if OverlayID(c) == id {
			return c
		}
	}
	return nil
}

// Overlays returns attached overlays of kind, oldest first. An empty kind
// returns all of them.
func (d *Document) Overlays(kind string) []*html.Node {
	var out []*html.Node
	for c := d.layer.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if kind == "" || OverlayKind(c) == kind {
			out = append(out, c)
		}
	}
	return out
}

// OverlayAncestor returns the attached overlay element containing n.
func (d *Document) OverlayAncestor(n *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Parent == d.layer {
			return p
		}
	}
	return nil
}
