package engine

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/logger"
)

// TooltipKind is the overlay kind of hover definitions.
const TooltipKind = "tooltip"

// TooltipController shows a definition while the pointer rests on a
// highlighted term.
type TooltipController struct {
	env *env

	hovered *html.Node
	gen     uint64
	tipID   string
}

func newTooltipController(e *env) *TooltipController {
	return &TooltipController{env: e}
}

// Attach subscribes to hover events.
func (c *TooltipController) Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(ev events.Event) {
		switch ev := ev.(type) {
		case events.HoverEnter:
			c.Enter(ev)
		case events.HoverExit:
			c.Exit()
		}
	})
}

// Enter starts fetching a definition when the target is a highlighted term.
func (c *TooltipController) Enter(ev events.HoverEnter) {
	term := document.TermAncestor(ev.Target)
	if term == nil || !c.env.doc.Contains(term) {
		return
	}
	if term == c.hovered {
		return
	}
	c.clear()
	c.gen++
	c.hovered = term
	gen := c.gen

	word := document.Attr(term, document.AttrTerm)
	if word == "" {
		word = strings.TrimSpace(document.TextContent(term))
	}
	sentence := c.env.doc.ContextOf(term)

	goAsync(c.env, func(ctx context.Context) string {
		return c.env.svc.Define(ctx, word, sentence)
	}, func(def string) {
		if c.hovered != term || c.gen != gen {
			return
		}
		if def == "" {
			c.env.logger.Debugw("no definition", logger.FieldWord, word)
			return
		}
		c.show(def, ev.Point)
	})
}

// Exit removes the tooltip.
func (c *TooltipController) Exit() {
	c.clear()
	c.hovered = nil
	c.gen++
}

func (c *TooltipController) show(def string, at events.Point) {
	el := document.NewOverlay(TooltipKind)
	document.SetPosition(el, at.X, at.Y+1)
	p := document.NewElement(atom.P)
	p.AppendChild(document.NewText(def))
	el.AppendChild(p)
	c.tipID = c.env.doc.AddOverlay(el)
}

func (c *TooltipController) clear() {
	if c.tipID != "" {
		c.env.doc.RemoveOverlay(c.tipID)
		c.tipID = ""
	}
}

// ID returns the id of the visible tooltip, if any.
func (c *TooltipController) ID() string { return c.tipID }
