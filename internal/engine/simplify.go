package engine

import (
	"context"

	"golang.org/x/net/html"

	"github.com/metcalfc/simplyread/internal/annotate"
	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/prompt"
	"github.com/metcalfc/simplyread/internal/selection"
)

// SimplifyController toggles single words between their original and a
// simpler substitute on double-click.
type SimplifyController struct {
	env       *env
	annotator *annotate.Annotator
	prompt    *prompt.Prompt

	// pending holds words whose level has been chosen and whose substitute
	// is still being fetched.
	pending map[string]struct{}
}

func newSimplifyController(e *env, a *annotate.Annotator, p *prompt.Prompt) *SimplifyController {
	return &SimplifyController{env: e, annotator: a, prompt: p, pending: map[string]struct{}{}}
}

// Attach subscribes to double-clicks and clicks.
func (c *SimplifyController) Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(ev events.Event) {
		switch ev := ev.(type) {
		case events.DoubleClick:
			c.DoubleClick(ev)
		case events.Click:
			c.prompt.Click(ev.Target)
		}
	})
}

// DoubleClick reverts a marked word, or asks for a level and simplifies an
// unmarked one.
func (c *SimplifyController) DoubleClick(ev events.DoubleClick) {
	if m := document.MarkedAncestor(ev.Target); m != nil && c.env.doc.Contains(m) {
		c.revert(m)
		return
	}

	u, ok := selection.Word(c.env.doc, ev.Selection)
	if !ok {
		return
	}
	if u.Marked != nil {
		c.revert(u.Marked)
		return
	}

	log := c.env.logger.With(logger.FieldWord, u.Text)
	if c.annotator.Registry().Active(u.Text) {
		log.Infow("word already simplified elsewhere")
		return
	}
	if _, busy := c.pending[u.Text]; busy {
		log.Debugw("substitute already being fetched")
		return
	}

	c.prompt.Open(u.Text, u.Rect, func(o prompt.Outcome) {
		level, ok := o.Chosen()
		if !ok {
			log.Debugw("difficulty prompt cancelled")
			return
		}
		c.fetch(u, level)
	})
}

func (c *SimplifyController) fetch(u selection.Unit, level prompt.Level) {
	c.pending[u.Text] = struct{}{}
	goAsync(c.env, func(ctx context.Context) string {
		return c.env.svc.Simplify(ctx, u.Text, u.Context, level)
	}, func(sub string) {
		delete(c.pending, u.Text)
		log := c.env.logger.With(logger.FieldWord, u.Text, logger.FieldLevel, level.String())
		if sub == u.Text {
			log.Infow("no simpler word found")
			return
		}
		if _, ok := c.annotator.Apply(u.Range, u.Text, sub, level); !ok {
			log.Infow("substitution skipped", logger.FieldSubstituted, sub)
			return
		}
		log.Debugw("simplify flow complete", logger.FieldSubstituted, sub)
	})
}

func (c *SimplifyController) revert(el *html.Node) {
	orig, ok := c.annotator.Revert(el)
	if !ok {
		return
	}
	c.env.logger.Debugw("revert flow complete", logger.FieldWord, orig)
}

// Pending reports whether a substitute for word is being fetched.
func (c *SimplifyController) Pending(word string) bool {
	_, ok := c.pending[word]
	return ok
}
