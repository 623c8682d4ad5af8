package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/prompt"
)

func parse(t *testing.T, body string) *document.Document {
	t.Helper()
	doc, err := document.ParseString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)
	return doc
}

func texts(l *Layout, line int) []string {
	var out []string
	for _, i := range l.Lines[line] {
		out = append(out, l.Tokens[i].Text)
	}
	return out
}

func TestBuildBlocksAndGlue(t *testing.T) {
	doc := parse(t, "<p>The <em>quick</em>, brown fox.</p><p>Second.</p>")
	l := Build(doc, 80)

	require.Len(t, l.Lines, 3)
	assert.Equal(t, []string{"The", "quick", ",", "brown", "fox."}, texts(l, 0))
	assert.Empty(t, l.Lines[1])
	assert.Equal(t, []string{"Second."}, texts(l, 2))

	comma := l.Tokens[2]
	assert.True(t, comma.Glued)
	assert.Equal(t, l.Tokens[1].End(), comma.Col)
	assert.False(t, l.Tokens[1].Glued)
	assert.Equal(t, 4, l.Tokens[1].Col)
}

func TestBuildWraps(t *testing.T) {
	l := Build(parse(t, "<p>aaa bbb ccc</p>"), 7)

	require.Len(t, l.Lines, 2)
	assert.Equal(t, []string{"aaa", "bbb"}, texts(l, 0))
	assert.Equal(t, []string{"ccc"}, texts(l, 1))
	assert.Equal(t, 0, l.Tokens[2].Col)
}

func TestHitTesting(t *testing.T) {
	l := Build(parse(t, "<p>aaa bbb ccc</p>"), 7)

	assert.Equal(t, 1, l.At(0, 5))
	assert.Equal(t, -1, l.At(0, 3))
	assert.Equal(t, -1, l.At(5, 0))
	assert.Equal(t, 2, l.Nearest(1, 50))
	assert.Equal(t, 0, l.Nearest(0, 3))
	assert.Equal(t, 1, l.Find("bbb"))
	assert.Equal(t, -1, l.Find("zzz"))
	assert.Equal(t, 1, l.LineOf(2))
}

func TestSelection(t *testing.T) {
	doc := parse(t, "<p>The <em>quick</em>, brown fox.</p><p>Second.</p>")
	l := Build(doc, 80)

	sel := l.Selection(0, 2)
	assert.Equal(t, "The quick,", sel.Text)
	assert.True(t, sel.Range.IsZero(), "selection spans several text nodes")

	sel = l.Selection(4, 3)
	assert.Equal(t, "brown fox.", sel.Text)
	assert.Equal(t, "brown fox.", sel.Range.Text())
	assert.Equal(t, events.Rect{X: 11, Y: 0, W: 10, H: 1}, sel.Rect)

	sel = l.Selection(4, 5)
	assert.Equal(t, "fox.\nSecond.", sel.Text)
	assert.Equal(t, float64(3), sel.Rect.H)

	assert.Equal(t, events.Selection{}, l.Selection(-1, 2))
}

func TestPointerClickAndDoubleClick(t *testing.T) {
	doc := parse(t, "<p>one two three</p>")
	p := NewPointer(doc, Build(doc, 80), 0)
	t0 := time.Now()

	p.Press(1)
	first := p.Release(1, t0)
	require.Len(t, first, 2)
	assert.Equal(t, events.MouseUp{}, first[0])
	click, ok := first[1].(events.Click)
	require.True(t, ok)
	assert.Equal(t, "one two three", click.Target.Data)

	p.Press(1)
	second := p.Release(1, t0.Add(100*time.Millisecond))
	require.Len(t, second, 3)
	up := second[0].(events.MouseUp)
	assert.Equal(t, "two", up.Selection.Text)
	dbl, ok := second[2].(events.DoubleClick)
	require.True(t, ok)
	assert.Equal(t, "two", dbl.Selection.Range.Text())

	p.Press(1)
	third := p.Release(1, t0.Add(200*time.Millisecond))
	assert.Len(t, third, 2, "a third click starts a new gesture")
}

func TestPointerSlowClicks(t *testing.T) {
	doc := parse(t, "<p>one two three</p>")
	p := NewPointer(doc, Build(doc, 80), 300*time.Millisecond)
	t0 := time.Now()

	p.Press(0)
	p.Release(0, t0)
	p.Press(0)
	assert.Len(t, p.Release(0, t0.Add(time.Second)), 2)

	p.Press(0)
	p.Release(0, t0.Add(2*time.Second))
	p.Press(2)
	assert.Len(t, p.Release(2, t0.Add(2100*time.Millisecond)), 2, "clicks on different words")
}

func TestPointerDrag(t *testing.T) {
	doc := parse(t, "<p>one two three</p>")
	p := NewPointer(doc, Build(doc, 80), 0)

	p.Press(0)
	p.Drag(1)
	assert.True(t, p.Dragging())
	a, b, ok := p.Span()
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 1}, [2]int{a, b})

	out := p.Release(2, time.Now())
	require.Len(t, out, 1)
	up := out[0].(events.MouseUp)
	assert.Equal(t, "one two three", up.Selection.Text)
	assert.Equal(t, "one two three", up.Selection.Range.Text())
	assert.False(t, p.Dragging())
}

func TestPointerClickOutsideText(t *testing.T) {
	doc := parse(t, "<p>one</p>")
	p := NewPointer(doc, Build(doc, 80), 0)

	p.Press(-1)
	out := p.Release(-1, time.Now())
	require.Len(t, out, 2)
	assert.Same(t, doc.Body(), out[1].(events.Click).Target)
	assert.Nil(t, p.Release(-1, time.Now()), "release without press")
}

func TestPointerHover(t *testing.T) {
	doc := parse(t, "<p>an extraordinary day</p>")
	require.Equal(t, 1, doc.HighlightTerms(10))
	p := NewPointer(doc, Build(doc, 80), 0)

	assert.Empty(t, p.Move(0))

	out := p.Move(1)
	require.Len(t, out, 1)
	enter := out[0].(events.HoverEnter)
	assert.Equal(t, "extraordinary", enter.Target.Data)
	assert.NotNil(t, document.TermAncestor(enter.Target))
	assert.Empty(t, p.Move(1))

	out = p.Move(2)
	require.Len(t, out, 1)
	assert.IsType(t, events.HoverExit{}, out[0])
	assert.Empty(t, p.Leave())
}

func TestPanels(t *testing.T) {
	doc := parse(t, "<p>one</p>")
	pr := prompt.New(doc)
	id := pr.Open("one", events.Rect{X: 2, Y: 3, H: 1}, nil)

	panels := Panels(doc)
	require.Len(t, panels, 1)
	p := panels[0]
	assert.Equal(t, id, p.ID)
	assert.Equal(t, prompt.Kind, p.Kind)
	assert.Contains(t, p.Text, `"one"`)
	assert.Equal(t, 2.0, p.X)
	assert.Equal(t, 4.0, p.Y)
	require.Len(t, p.Buttons, 3)
	assert.Equal(t, "Easy", p.Buttons[0].Label)
	assert.Same(t, pr.Button(prompt.Hard), p.Buttons[2].Node)
}
