// Package document wraps a parsed golang.org/x/net/html tree as the live,
// mutable document the annotation engine works on. It owns the marker
// vocabulary shared by the annotator, the controllers and the front ends.
package document

import (
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/metcalfc/simplyread/internal/errors"
)

// Marker vocabulary.
const (
	// ClassSimplified marks a live, reversible substitution.
	ClassSimplified = "simplyread-simplified"
	// ClassTerm marks a term eligible for a hover definition.
	ClassTerm = "simplyread-term"

	AttrWord     = "data-word"
	AttrOriginal = "data-original"
	AttrLevel    = "data-level"
	AttrTerm     = "data-term"
	AttrOverlay  = "data-overlay"
	AttrX        = "data-x"
	AttrY        = "data-y"

	// LayerID is the id of the element holding transient overlays.
	LayerID = "simplyread-overlays"
)

// Document is a live HTML document with an overlay layer appended to its
// body. It is not safe for concurrent use; all access happens on the loop.
type Document struct {
	root  *html.Node
	body  *html.Node
	layer *html.Node
}

// Parse reads HTML from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return FromNode(root), nil
}

// ParseString is Parse for an in-memory string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// FromNode adopts an already parsed tree.
func FromNode(root *html.Node) *Document {
	d := &Document{root: root}
	d.body = findElement(root, atom.Body)
	if d.body == nil {
		d.body = root
	}
	d.layer = d.ByID(LayerID)
	if d.layer == nil {
		d.layer = NewElement(atom.Div, html.Attribute{Key: "id", Val: LayerID})
		d.body.AppendChild(d.layer)
	}
	return d
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the body element.
func (d *Document) Body() *html.Node { return d.body }

// Layer returns the overlay container.
func (d *Document) Layer() *html.Node { return d.layer }

// Title returns the text of the first title element, if any.
func (d *Document) Title() string {
	if t := findElement(d.root, atom.Title); t != nil {
		return collapse(TextContent(t))
	}
	return ""
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document to a string.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// Text returns the readable text of the body, excluding overlays.
func (d *Document) Text() string {
	return TextContent(d.body)
}

// Find returns the nodes matching a CSS selector.
func (d *Document) Find(selector string) []*html.Node {
	return goquery.NewDocumentFromNode(d.root).Find(selector).Nodes
}

// ByID returns the element with the given id attribute.
func (d *Document) ByID(id string) *html.Node {
	nodes := d.Find(`[id="` + id + `"]`)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Marked returns every live substitution element in the content.
func (d *Document) Marked() []*html.Node {
	return d.content(d.Find("span." + ClassSimplified))
}

// Terms returns every hover-definition term in the content.
func (d *Document) Terms() []*html.Node {
	return d.content(d.Find("span." + ClassTerm))
}

func (d *Document) content(nodes []*html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if !d.InLayer(n) {
			out = append(out, n)
		}
	}
	return out
}

// Contains reports whether n is attached to this document.
func (d *Document) Contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// InLayer reports whether n is inside the overlay layer.
func (d *Document) InLayer(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.layer {
			return true
		}
	}
	return false
}

// Renderable reports whether n is attached content a reader can see: not in
// the head, a script or style element, or the overlay layer.
func (d *Document) Renderable(n *html.Node) bool {
	if n == nil || !d.Contains(n) || d.InLayer(n) {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hidden(p.DataAtom) {
			return false
		}
	}
	return true
}

// Live reports whether r still addresses renderable text in this document.
func (d *Document) Live(r Range) bool {
	return r.Valid() && d.Renderable(r.Node)
}

// ContextOf returns the collapsed text of the nearest block-level ancestor of
// n, which is the sentence or paragraph a word is read in.
func (d *Document) ContextOf(n *html.Node) string {
	for p := n; p != nil && p != d.root; p = p.Parent {
		if p.Type == html.ElementNode && isBlock(p.DataAtom) {
			return collapse(TextContent(p))
		}
	}
	if n != nil && n.Parent != nil {
		return collapse(TextContent(n.Parent))
	}
	return ""
}

// TextContent concatenates the text under n, skipping scripts, styles and the
// overlay layer. Text of adjacent blocks is separated by a newline.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	boundary := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if n.Data == "" {
				return
			}
			if boundary && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
			boundary = false
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if hidden(n.DataAtom) || Attr(n, "id") == LayerID {
				return
			}
		}
		block := n.Type == html.ElementNode && isBlock(n.DataAtom)
		if block {
			boundary = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			boundary = true
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func hidden(a atom.Atom) bool {
	switch a {
	case atom.Head, atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Body, atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.Dl, atom.Dt, atom.Dd,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Nav, atom.Aside, atom.Main, atom.Table, atom.Tr, atom.Td, atom.Th,
		atom.Figure, atom.Figcaption, atom.Br, atom.Hr:
		return true
	}
	return false
}
