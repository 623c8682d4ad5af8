package annotate

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/prompt"
)

// Annotator applies and reverts substitutions. It consults the registry
// before every mutation and never infers state from the tree alone.
type Annotator struct {
	doc *document.Document
	reg *Registry
	log *zap.SugaredLogger
}

// NewAnnotator returns an annotator writing to doc and recording in reg.
func NewAnnotator(doc *document.Document, reg *Registry) *Annotator {
	return &Annotator{doc: doc, reg: reg, log: logger.Named("annotate")}
}

// Registry returns the registry the annotator records into.
func (a *Annotator) Registry() *Registry {
	return a.reg
}

// Apply replaces the word addressed by rng with a marked element showing
// substituted, padded with one space on each side unless whitespace already
// sits just outside the word's wrapping element. The range must still be
// live and still read original. It returns the new element, or false when
// nothing was changed.
func (a *Annotator) Apply(rng document.Range, original, substituted string, level prompt.Level) (*html.Node, bool) {
	if !a.doc.Live(rng) || rng.Text() != original {
		a.log.Debugw("range no longer addresses word", logger.FieldWord, original)
		return nil, false
	}
	if substituted == "" || substituted == original {
		return nil, false
	}
	if document.MarkedAncestor(rng.Node) != nil {
		return nil, false
	}

	lead, trail := document.Surrounding(rng)
	el := document.NewElement(atom.Span,
		html.Attribute{Key: "class", Val: document.ClassSimplified},
		html.Attribute{Key: document.AttrWord, Val: substituted},
		html.Attribute{Key: document.AttrOriginal, Val: original},
		html.Attribute{Key: document.AttrLevel, Val: level.String()},
	)
	left, right := " ", " "
	if before, after := document.OuterSpace(rng); before || after {
		if before && lead == "" {
			left = ""
		}
		if after && trail == "" {
			right = ""
		}
	}
	el.AppendChild(document.NewText(left + substituted + right))

	if !a.reg.TryActivate(Entry{
		Original:    original,
		Substituted: substituted,
		Level:       level,
		Anchor:      el,
		Lead:        lead,
		Trail:       trail,
	}) {
		a.log.Debugw("word already substituted", logger.FieldWord, original)
		return nil, false
	}

	document.ReplaceRange(document.Range{
		Node:  rng.Node,
		Start: rng.Start - len(lead),
		End:   rng.End + len(trail),
	}, el)

	a.log.Infow("substituted word",
		logger.FieldWord, original,
		logger.FieldSubstituted, substituted,
		logger.FieldLevel, level.String())
	return el, true
}

// Revert restores the original text of a marked element and removes the
// element from the tree. An element the registry does not know is left
// untouched. It returns the restored original word.
func (a *Annotator) Revert(el *html.Node) (string, bool) {
	entry, ok := a.reg.Revert(el)
	if !ok {
		return "", false
	}
	if el.Parent != nil && a.doc.Contains(el) {
		document.ReplaceWithText(el, entry.Lead+entry.Original+entry.Trail)
	}
	a.log.Infow("restored word",
		logger.FieldWord, entry.Original,
		logger.FieldSubstituted, entry.Substituted)
	return entry.Original, true
}
