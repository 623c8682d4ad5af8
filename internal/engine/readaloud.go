package engine

import (
	"time"

	"golang.org/x/net/html/atom"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/selection"
	"github.com/metcalfc/simplyread/internal/speech"
)

// SpeakKind is the overlay kind of read-aloud affordances.
const SpeakKind = "speak"

// ReadAloudController offers to read any selection aloud. Each affordance is
// independent and expires on its own.
type ReadAloudController struct {
	env     *env
	speaker speech.Speaker
	ttl     time.Duration

	texts map[string]string
}

func newReadAloudController(e *env, s speech.Speaker, ttl time.Duration) *ReadAloudController {
	return &ReadAloudController{env: e, speaker: s, ttl: ttl, texts: map[string]string{}}
}

// Attach subscribes to mouse-up and clicks.
func (c *ReadAloudController) Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(ev events.Event) {
		switch ev := ev.(type) {
		case events.MouseUp:
			c.MouseUp(ev)
		case events.Click:
			c.Click(ev)
		}
	})
}

// MouseUp places an affordance under a non-empty selection.
func (c *ReadAloudController) MouseUp(ev events.MouseUp) string {
	u, ok := selection.Any(ev.Selection)
	if !ok {
		return ""
	}

	el := document.NewOverlay(SpeakKind)
	at := u.Rect.Below()
	document.SetPosition(el, at.X, at.Y)
	b := document.NewElement(atom.Button)
	b.AppendChild(document.NewText("Read Aloud"))
	el.AppendChild(b)

	id := c.env.doc.AddOverlay(el)
	c.texts[id] = u.Text
	c.env.after(c.ttl, func() { c.remove(id) })
	return id
}

// Click speaks the text behind a clicked affordance and removes that
// affordance.
func (c *ReadAloudController) Click(ev events.Click) {
	ov := c.env.doc.OverlayAncestor(ev.Target)
	if ov == nil || document.OverlayKind(ov) != SpeakKind {
		return
	}
	id := document.OverlayID(ov)
	text, ok := c.texts[id]
	if !ok {
		return
	}
	c.remove(id)
	if err := c.speaker.Speak(text); err != nil {
		c.env.logger.Warnw("read aloud failed", logger.FieldOverlayID, id, logger.FieldError, err)
	}
}

func (c *ReadAloudController) remove(id string) {
	delete(c.texts, id)
	c.env.doc.RemoveOverlay(id)
}

// Len returns the number of live affordances.
func (c *ReadAloudController) Len() int { return len(c.texts) }
