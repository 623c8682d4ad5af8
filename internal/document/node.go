package document

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewElement builds a detached element.
func NewElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// NewText builds a detached text node.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attr returns the value of key on n, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets key on n, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n is an element carrying class.
func HasClass(n *html.Node, class string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Ancestor returns the closest node at or above n for which match is true.
func Ancestor(n *html.Node, match func(*html.Node) bool) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if match(p) {
			return p
		}
	}
	return nil
}

// MarkedAncestor returns the live substitution element containing n.
func MarkedAncestor(n *html.Node) *html.Node {
	return Ancestor(n, func(p *html.Node) bool { return HasClass(p, ClassSimplified) })
}

// TermAncestor returns the hover-definition term containing n.
func TermAncestor(n *html.Node) *html.Node {
	return Ancestor(n, func(p *html.Node) bool { return HasClass(p, ClassTerm) })
}

// ReplaceRange swaps the text addressed by r for repl. The text node keeps
// the part before the range and a new text node holds the part after it.
func ReplaceRange(r Range, repl *html.Node) {
	n := r.Node
	parent := n.Parent
	before, after := n.Data[:r.Start], n.Data[r.End:]
	next := n.NextSibling

	parent.InsertBefore(repl, next)
	if after != "" {
		parent.InsertBefore(NewText(after), next)
	}
	if before == "" {
		parent.RemoveChild(n)
	} else {
		n.Data = before
	}
}

// ReplaceWithText swaps el for a text node holding s and merges that node
// with neighbouring text nodes. It returns the resulting text node.
func ReplaceWithText(el *html.Node, s string) *html.Node {
	parent := el.Parent
	t := NewText(s)
	parent.InsertBefore(t, el)
	parent.RemoveChild(el)

	if prev := t.PrevSibling; prev != nil && prev.Type == html.TextNode {
		prev.Data += t.Data
		parent.RemoveChild(t)
		t = prev
	}
	if next := t.NextSibling; next != nil && next.Type == html.TextNode {
		t.Data += next.Data
		parent.RemoveChild(next)
	}
	return t
}
