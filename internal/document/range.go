package document

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Range addresses bytes [Start, End) of a single text node.
type Range struct {
	Node       *html.Node
	Start, End int
}

// IsZero reports whether r addresses nothing.
func (r Range) IsZero() bool {
	return r.Node == nil
}

// Valid reports whether r addresses a text node within its bounds.
func (r Range) Valid() bool {
	return r.Node != nil && r.Node.Type == html.TextNode &&
		0 <= r.Start && r.Start <= r.End && r.End <= len(r.Node.Data)
}

// Text returns the addressed text, or "" for an invalid range.
func (r Range) Text() string {
	if !r.Valid() {
		return ""
	}
	return r.Node.Data[r.Start:r.End]
}

// Trim narrows r to exclude leading and trailing whitespace.
func (r Range) Trim() Range {
	if !r.Valid() {
		return r
	}
	s := r.Node.Data
	for r.Start < r.End {
		c, size := utf8.DecodeRuneInString(s[r.Start:r.End])
		if !unicode.IsSpace(c) {
			break
		}
		r.Start += size
	}
	for r.End > r.Start {
		c, size := utf8.DecodeLastRuneInString(s[r.Start:r.End])
		if !unicode.IsSpace(c) {
			break
		}
		r.End -= size
	}
	return r
}

// Core narrows r to the word it spells, dropping punctuation at either end
// the way a browser word selection does. A range with no letter or digit is
// returned unchanged.
func (r Range) Core() Range {
	if !r.Valid() {
		return r
	}
	s := r.Node.Data
	c := r
	for c.Start < c.End {
		ch, size := utf8.DecodeRuneInString(s[c.Start:c.End])
		if isWordRune(ch) {
			break
		}
		c.Start += size
	}
	for c.End > c.Start {
		ch, size := utf8.DecodeLastRuneInString(s[c.Start:c.End])
		if isWordRune(ch) {
			break
		}
		c.End -= size
	}
	if c.Start == c.End {
		return r
	}
	return c
}

func isWordRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}

// Words splits a text node into whitespace-delimited token ranges.
func Words(n *html.Node) []Range {
	if n == nil || n.Type != html.TextNode {
		return nil
	}
	var out []Range
	start := -1
	for i, c := range n.Data {
		if unicode.IsSpace(c) {
			if start >= 0 {
				out = append(out, Range{Node: n, Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, Range{Node: n, Start: start, End: len(n.Data)})
	}
	return out
}

// WordAt returns the token of n covering byte offset, the way a double-click
// selects a word.
func WordAt(n *html.Node, offset int) (Range, bool) {
	for _, w := range Words(n) {
		if offset >= w.Start && offset < w.End {
			return w, true
		}
	}
	return Range{}, false
}

// Surrounding returns the single whitespace rune directly before and after r,
// each possibly empty.
func Surrounding(r Range) (lead, trail string) {
	if !r.Valid() {
		return "", ""
	}
	s := r.Node.Data
	if r.Start > 0 {
		c, size := utf8.DecodeLastRuneInString(s[:r.Start])
		if unicode.IsSpace(c) {
			lead = s[r.Start-size : r.Start]
		}
	}
	if r.End < len(s) {
		c, size := utf8.DecodeRuneInString(s[r.End:])
		if unicode.IsSpace(c) {
			trail = s[r.End : r.End+size]
		}
	}
	return lead, trail
}

// OuterSpace reports whether whitespace sits just outside the element that
// wraps r, when r spans the element's only text node. A word inside a term
// span is the usual case.
func OuterSpace(r Range) (before, after bool) {
	if !r.Valid() || r.Start != 0 || r.End != len(r.Node.Data) {
		return false, false
	}
	n := r.Node
	if n.PrevSibling != nil || n.NextSibling != nil || n.Parent == nil {
		return false, false
	}
	p := n.Parent
	if s := p.PrevSibling; s != nil && s.Type == html.TextNode {
		c, _ := utf8.DecodeLastRuneInString(s.Data)
		before = unicode.IsSpace(c)
	}
	if s := p.NextSibling; s != nil && s.Type == html.TextNode {
		c, _ := utf8.DecodeRuneInString(s.Data)
		after = unicode.IsSpace(c)
	}
	return before, after
}
