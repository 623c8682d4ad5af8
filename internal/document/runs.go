package document

import (
	"strings"

	"golang.org/x/net/html"
)

// Run is one visible text node in reading order. Front ends lay runs with
// the same Block out on the same paragraph.
type Run struct {
	Node   *html.Node
	Block  int
	Marked *html.Node
	Term   *html.Node
}

// Words returns the token ranges of the run.
func (r Run) Words() []Range {
	return Words(r.Node)
}

// Runs lists the non-blank text nodes of the body in document order.
func (d *Document) Runs() []Run {
	var runs []Run
	block := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				runs = append(runs, Run{
					Node:   n,
					Block:  block,
					Marked: MarkedAncestor(n),
					Term:   TermAncestor(n),
				})
			}
			return
		case html.ElementNode:
			if n == d.layer || hidden(n.DataAtom) {
				return
			}
		}
		blockLevel := n.Type == html.ElementNode && isBlock(n.DataAtom)
		if blockLevel {
			block++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if blockLevel {
			block++
		}
	}
	walk(d.body)

	// Renumber so blocks are dense from zero.
	next, last := -1, -1
	for i := range runs {
		if runs[i].Block != last {
			last = runs[i].Block
			next++
		}
		runs[i].Block = next
	}
	return runs
}

// FindText returns the range of the first visible occurrence of s.
func (d *Document) FindText(s string) (Range, bool) {
	if s == "" {
		return Range{}, false
	}
	for _, run := range d.Runs() {
		if i := strings.Index(run.Node.Data, s); i >= 0 {
			return Range{Node: run.Node, Start: i, End: i + len(s)}, true
		}
	}
	return Range{}, false
}
