// Package view lays a document out as wrapped lines of word tokens and turns
// raw pointer input on those tokens into engine events. It is shared by the
// terminal and desktop front ends and knows nothing about either.
package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
)

// Token is one laid-out word.
type Token struct {
	Range document.Range
	Text  string
	Block int
	Line  int
	Col   int
	Width int
	// Glued tokens follow the previous token without a space, as in a word
	// split across inline elements.
	Glued bool

	Marked *html.Node
	Term   *html.Node
}

// End returns the column just past the token.
func (t Token) End() int { return t.Col + t.Width }

// Layout is a document wrapped to a fixed width. Blocks are separated by an
// empty line.
type Layout struct {
	Width  int
	Tokens []Token
	// Lines holds token indexes per line.
	Lines [][]int
}

// Build lays out the visible text of doc in lines of at most width columns.
// A single word wider than width gets a line of its own.
func Build(doc *document.Document, width int) *Layout {
	if width < 1 {
		width = 1
	}
	l := &Layout{Width: width}
	line, col := -1, 0
	newLine := func() {
		l.Lines = append(l.Lines, nil)
		line++
		col = 0
	}

	lastBlock := -1
	flush := false
	for _, run := range doc.Runs() {
		if run.Block != lastBlock {
			if lastBlock >= 0 {
				newLine()
			}
			newLine()
			lastBlock = run.Block
			flush = false
		}
		words := run.Words()
		for i, w := range words {
			text := w.Text()
			tw := lipgloss.Width(text)
			glued := i == 0 && flush && w.Start == 0 && col > 0
			gap := 1
			if glued || col == 0 {
				gap = 0
			}
			if col > 0 && col+gap+tw > l.Width {
				newLine()
				gap = 0
				glued = false
			}
			col += gap

			idx := len(l.Tokens)
			l.Tokens = append(l.Tokens, Token{
				Range:  w,
				Text:   text,
				Block:  run.Block,
				Line:   line,
				Col:    col,
				Width:  tw,
				Glued:  glued,
				Marked: run.Marked,
				Term:   run.Term,
			})
			l.Lines[line] = append(l.Lines[line], idx)
			col += tw
		}
		flush = len(words) > 0 && words[len(words)-1].End == len(run.Node.Data)
	}
	return l
}

// At returns the index of the token covering column col of line, or -1.
func (l *Layout) At(line, col int) int {
	if line < 0 || line >= len(l.Lines) {
		return -1
	}
	for _, i := range l.Lines[line] {
		t := l.Tokens[i]
		if col >= t.Col && col < t.End() {
			return i
		}
	}
	return -1
}

// Nearest returns the token of line closest to col, or -1 for an empty line.
func (l *Layout) Nearest(line, col int) int {
	if line < 0 || line >= len(l.Lines) || len(l.Lines[line]) == 0 {
		return -1
	}
	best := l.Lines[line][0]
	for _, i := range l.Lines[line] {
		if l.Tokens[i].Col <= col {
			best = i
		}
	}
	return best
}

// Find returns the first token whose text equals word, or -1.
func (l *Layout) Find(word string) int {
	for i, t := range l.Tokens {
		if t.Text == word {
			return i
		}
	}
	return -1
}

// Rect returns the bounding box of tokens a..b inclusive.
func (l *Layout) Rect(a, b int) events.Rect {
	a, b = order(a, b)
	first, last := l.Tokens[a], l.Tokens[b]
	r := events.Rect{
		X: float64(first.Col),
		Y: float64(first.Line),
		H: float64(last.Line - first.Line + 1),
	}
	if first.Line == last.Line {
		r.W = float64(last.End() - first.Col)
	} else {
		r.X = 0
		r.W = float64(l.Width)
	}
	return r
}

// Selection describes tokens a..b inclusive the way a browser selection
// would. The range is only set when both ends lie in one text node.
func (l *Layout) Selection(a, b int) events.Selection {
	if a < 0 || b < 0 || a >= len(l.Tokens) || b >= len(l.Tokens) {
		return events.Selection{}
	}
	a, b = order(a, b)
	var sb strings.Builder
	for i := a; i <= b; i++ {
		t := l.Tokens[i]
		if i > a && !t.Glued {
			if t.Block != l.Tokens[i-1].Block {
				sb.WriteString("\n")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(t.Text)
	}
	sel := events.Selection{Text: sb.String(), Rect: l.Rect(a, b)}
	first, last := l.Tokens[a].Range, l.Tokens[b].Range
	if first.Node == last.Node {
		sel.Range = document.Range{Node: first.Node, Start: first.Start, End: last.End}
	}
	return sel
}

// LineOf returns the line holding token i.
func (l *Layout) LineOf(i int) int {
	if i < 0 || i >= len(l.Tokens) {
		return 0
	}
	return l.Tokens[i].Line
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
