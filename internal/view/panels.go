package view

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/engine"
)

// Button is a clickable element inside an overlay.
type Button struct {
	Label string
	Node  *html.Node
}

// Panel is a front-end neutral rendering of one overlay.
type Panel struct {
	ID      string
	Kind    string
	Tone    string
	X, Y    float64
	Text    string
	Buttons []Button
}

// Panels describes the attached overlays of doc, oldest first.
func Panels(doc *document.Document) []Panel {
	var out []Panel
	for _, el := range doc.Overlays("") {
		p := Panel{
			ID:   document.OverlayID(el),
			Kind: document.OverlayKind(el),
			Tone: document.Attr(el, engine.AttrTone),
		}
		p.X, p.Y = document.Position(el)

		var text []string
		for c := el.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Button {
				p.Buttons = append(p.Buttons, Button{
					Label: strings.TrimSpace(document.TextContent(c)),
					Node:  c,
				})
				continue
			}
			if t := strings.TrimSpace(document.TextContent(c)); t != "" {
				text = append(text, t)
			}
		}
		p.Text = strings.Join(text, " ")
		out = append(out, p)
	}
	return out
}
