package engine

import (
	"context"
	"strings"
	"time"

	"golang.org/x/net/html/atom"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/selection"
)

const (
	// BannerKind is the overlay kind of bias advisories.
	BannerKind = "banner"

	// BannerAffirmative and BannerCautionary are the banner tones, stored in
	// the banner's data-tone attribute and class list.
	BannerAffirmative = "affirmative"
	BannerCautionary  = "cautionary"

	AttrTone = "data-tone"
)

// BiasController shows a short-lived advisory banner for a selected passage.
// At most one banner it owns is visible at a time.
type BiasController struct {
	env   *env
	dwell time.Duration

	bannerID string
	timer    events.Timer
}

func newBiasController(e *env, dwell time.Duration) *BiasController {
	return &BiasController{env: e, dwell: dwell}
}

// Attach subscribes to mouse-up.
func (c *BiasController) Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(ev events.Event) {
		if ev, ok := ev.(events.MouseUp); ok {
			c.MouseUp(ev)
		}
	})
}

// MouseUp analyses the selection when it reads as a sentence.
func (c *BiasController) MouseUp(ev events.MouseUp) {
	u, ok := selection.Passage(ev.Selection)
	if !ok {
		return
	}
	c.env.logger.Debugw("analysing passage", logger.FieldCount, len(u.Text))
	goAsync(c.env, func(ctx context.Context) string {
		return c.env.svc.AnalyzeBias(ctx, u.Text)
	}, c.show)
}

// Tone classifies an advisory.
func Tone(advisory string) string {
	if strings.Contains(strings.ToLower(advisory), "neutral") {
		return BannerAffirmative
	}
	return BannerCautionary
}

func (c *BiasController) show(advisory string) {
	c.clear()

	tone := Tone(advisory)
	el := document.NewOverlay(BannerKind)
	document.SetAttr(el, "class", document.Attr(el, "class")+" simplyread-"+tone)
	document.SetAttr(el, AttrTone, tone)
	p := document.NewElement(atom.P)
	p.AppendChild(document.NewText(advisory))
	el.AppendChild(p)

	id := c.env.doc.AddOverlay(el)
	c.bannerID = id
	c.timer = c.env.after(c.dwell, func() {
		c.env.doc.RemoveOverlay(id)
		if c.bannerID == id {
			c.bannerID = ""
			c.timer = nil
		}
	})
	c.env.logger.Infow("bias advisory", logger.FieldStatus, tone, logger.FieldOverlayID, id)
}

func (c *BiasController) clear() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.bannerID != "" {
		c.env.doc.RemoveOverlay(c.bannerID)
		c.bannerID = ""
	}
}

// ID returns the id of the visible banner, if any.
func (c *BiasController) ID() string { return c.bannerID }
