package main

import (
	"github.com/metcalfc/simplyread/internal/engine"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/prompt"
	"github.com/metcalfc/simplyread/internal/view"
)

// Keyboard stand-ins for pointer gestures, shared by both front ends. Each
// publishes the event a mouse user would have produced.

// simplifyAt double-clicks token i.
func simplifyAt(s *session, l *view.Layout, i int) bool {
	if i < 0 || i >= len(l.Tokens) {
		return false
	}
	s.publish(events.DoubleClick{
		Selection: l.Selection(i, i),
		Target:    l.Tokens[i].Range.Node,
	})
	return true
}

// chooseLevel clicks the button for level in the open prompt.
func chooseLevel(s *session, level prompt.Level) bool {
	eng := s.current()
	if eng == nil || !eng.Prompt().IsOpen() {
		return false
	}
	b := eng.Prompt().Button(level)
	if b == nil {
		return false
	}
	s.publish(events.Click{Target: b})
	return true
}

// cancelPrompt clicks outside the open prompt.
func cancelPrompt(s *session) bool {
	eng := s.current()
	if eng == nil || !eng.Prompt().IsOpen() {
		return false
	}
	s.publish(events.Click{Target: eng.Document().Body()})
	return true
}

// selectSpan ends a selection of tokens a..b.
func selectSpan(s *session, l *view.Layout, a, b int) {
	s.publish(events.MouseUp{Selection: l.Selection(a, b)})
}

// readAloudLatest clicks the newest read-aloud affordance.
func readAloudLatest(s *session) bool {
	eng := s.current()
	if eng == nil {
		return false
	}
	panels := view.Panels(eng.Document())
	for i := len(panels) - 1; i >= 0; i-- {
		if panels[i].Kind == engine.SpeakKind && len(panels[i].Buttons) > 0 {
			s.publish(events.Click{Target: panels[i].Buttons[0].Node})
			return true
		}
	}
	return false
}

// levelForKey maps the digit keys 1-3 to difficulty levels.
func levelForKey(k string) (prompt.Level, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '9' {
		return 0, false
	}
	l := prompt.Level(k[0] - '0')
	return l, l.Valid()
}
