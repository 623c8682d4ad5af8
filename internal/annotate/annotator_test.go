package annotate

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/prompt"
)

func setup(t *testing.T, body string) (*document.Document, *Annotator) {
	t.Helper()
	doc, err := document.ParseString(body)
	require.NoError(t, err)
	return doc, NewAnnotator(doc, NewRegistry())
}

func find(t *testing.T, doc *document.Document, word string) document.Range {
	t.Helper()
	r, ok := doc.FindText(word)
	require.True(t, ok, "word %q not in document", word)
	return r
}

func TestApplyMarksElement(t *testing.T) {
	doc, a := setup(t, `<body><p>I am happy today.</p></body>`)

	el, ok := a.Apply(find(t, doc, "happy"), "happy", "glad", prompt.Easy)
	require.True(t, ok)

	assert.True(t, document.HasClass(el, document.ClassSimplified))
	assert.Equal(t, "glad", document.Attr(el, document.AttrWord))
	assert.Equal(t, "happy", document.Attr(el, document.AttrOriginal))
	assert.Equal(t, "Easy", document.Attr(el, document.AttrLevel))
	assert.Equal(t, " glad ", el.FirstChild.Data)

	gq := goquery.NewDocumentFromNode(doc.Root())
	assert.Equal(t, "I am glad today.", gq.Find("p").Text())
	assert.Equal(t, 1, gq.Find("span."+document.ClassSimplified).Length())
	assert.True(t, a.Registry().Active("happy"))
}

func TestApplyThenRevertIsByteExact(t *testing.T) {
	tests := []struct {
		name string
		body string
		word string
	}{
		{"middle", `<body><p>I am happy today.</p></body>`, "happy"},
		{"start of node", `<body><p>happy days are here</p></body>`, "happy"},
		{"before punctuation", `<body><p>They were so happy.</p></body>`, "happy"},
		{"double spaces", `<body><p>very  happy  people</p></body>`, "happy"},
		{"inside inline", `<body><p>A <em>wonderful</em> time.</p></body>`, "wonderful"},
		{"non-breaking", "<body><p>so\u00a0happy\u00a0now</p></body>", "happy"},
		{"term span", `<body><p>is <span class="simplyread-term" data-term="ubiquitous">ubiquitous</span> here</p></body>`, "ubiquitous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, a := setup(t, tt.body)
			before := doc.String()

			el, ok := a.Apply(find(t, doc, tt.word), tt.word, "X", prompt.Medium)
			require.True(t, ok)
			assert.NotEqual(t, before, doc.String())

			orig, ok := a.Revert(el)
			require.True(t, ok)
			assert.Equal(t, tt.word, orig)
			assert.Equal(t, before, doc.String())
			assert.Empty(t, doc.Marked())
			assert.Zero(t, a.Registry().Len())
		})
	}
}

func TestApplyInsideTermSpanKeepsSingleSpaces(t *testing.T) {
	doc, a := setup(t, `<body><p>is <span class="simplyread-term" data-term="ubiquitous">ubiquitous</span> here, <b>everywhere</b>!</p></body>`)

	el, ok := a.Apply(find(t, doc, "ubiquitous"), "ubiquitous", "common", prompt.Easy)
	require.True(t, ok)
	assert.Equal(t, "common", el.FirstChild.Data)

	el, ok = a.Apply(find(t, doc, "everywhere"), "everywhere", "all over", prompt.Easy)
	require.True(t, ok)
	assert.Equal(t, "all over ", el.FirstChild.Data)

	gq := goquery.NewDocumentFromNode(doc.Root())
	assert.Equal(t, "is common here, all over !", gq.Find("p").Text())
}

func TestApplyIsNoOpWhenActive(t *testing.T) {
	doc, a := setup(t, `<body><p>happy here and happy there</p></body>`)
	_, ok := a.Apply(find(t, doc, "happy"), "happy", "glad", prompt.Easy)
	require.True(t, ok)
	snapshot := doc.String()

	// The second occurrence is untouched while the first is live.
	second := find(t, doc, "happy")
	assert.True(t, strings.Contains(second.Node.Data, "happy there"))
	_, ok = a.Apply(second, "happy", "cheerful", prompt.Hard)
	assert.False(t, ok)
	assert.Equal(t, snapshot, doc.String())
	assert.Equal(t, 1, a.Registry().Len())
}

func TestApplyRejectsStaleRange(t *testing.T) {
	doc, a := setup(t, `<body><p>I am happy today.</p></body>`)
	r := find(t, doc, "happy")

	// The page rewrote the text while a request was in flight.
	r.Node.Data = "I am sad today."
	_, ok := a.Apply(r, "happy", "glad", prompt.Easy)
	assert.False(t, ok)

	_, ok = a.Apply(document.Range{Node: document.NewText("happy"), Start: 0, End: 5}, "happy", "glad", prompt.Easy)
	assert.False(t, ok, "detached node")
	assert.Zero(t, a.Registry().Len())
}

func TestApplyRejectsNoImprovement(t *testing.T) {
	doc, a := setup(t, `<body><p>I am happy today.</p></body>`)
	before := doc.String()

	_, ok := a.Apply(find(t, doc, "happy"), "happy", "happy", prompt.Easy)
	assert.False(t, ok)
	_, ok = a.Apply(find(t, doc, "happy"), "happy", "", prompt.Easy)
	assert.False(t, ok)
	assert.Equal(t, before, doc.String())
}

func TestRevertUnknownAnchorIsNoOp(t *testing.T) {
	doc, a := setup(t, `<body><p>I am <span class="simplyread-simplified" data-original="happy"> glad </span> today.</p></body>`)
	before := doc.String()

	// Marked in the tree but never registered: the registry wins.
	forged := doc.Marked()[0]
	_, ok := a.Revert(forged)
	assert.False(t, ok)
	assert.Equal(t, before, doc.String())

	_, ok = a.Revert(document.NewElement(atom.Span))
	assert.False(t, ok)
	assert.Equal(t, before, doc.String())
}

func TestRevertTwice(t *testing.T) {
	doc, a := setup(t, `<body><p>I am happy today.</p></body>`)
	el, ok := a.Apply(find(t, doc, "happy"), "happy", "glad", prompt.Easy)
	require.True(t, ok)

	_, ok = a.Revert(el)
	require.True(t, ok)
	after := doc.String()

	_, ok = a.Revert(el)
	assert.False(t, ok)
	assert.Equal(t, after, doc.String())
}

func TestSimplifyRevertSimplifyLeavesNoResidue(t *testing.T) {
	doc, a := setup(t, `<body><p>I am happy today.</p></body>`)
	before := doc.String()

	for i := 0; i < 3; i++ {
		el, ok := a.Apply(find(t, doc, "happy"), "happy", "glad", prompt.Easy)
		require.True(t, ok)
		_, ok = a.Revert(el)
		require.True(t, ok)
	}
	assert.Equal(t, before, doc.String())
	p := doc.Find("p")[0]
	assert.Nil(t, p.FirstChild.NextSibling, "single text node after repeated toggles")
}
