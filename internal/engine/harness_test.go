package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/prompt"
)

// fakeService answers from fixed tables. A call whose key has a gate blocks
// until the gate is closed.
type fakeService struct {
	mu          sync.Mutex
	synonyms    map[string]string
	definitions map[string]string
	bias        []string
	gates       map[string]chan struct{}
	calls       map[string]int
}

func newFakeService() *fakeService {
	return &fakeService{
		synonyms:    map[string]string{},
		definitions: map[string]string{},
		gates:       map[string]chan struct{}{},
		calls:       map[string]int{},
	}
}

func (f *fakeService) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeService) enter(key string) {
	f.mu.Lock()
	f.calls[key]++
	ch := f.gates[key]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (f *fakeService) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeService) Simplify(_ context.Context, word, _ string, _ prompt.Level) string {
	f.enter("simplify:" + word)
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.synonyms[word]; ok {
		return s
	}
	return word
}

func (f *fakeService) Define(_ context.Context, word, _ string) string {
	f.enter("define:" + word)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.definitions[word]
}

func (f *fakeService) AnalyzeBias(_ context.Context, passage string) string {
	f.enter("bias:" + passage)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bias) == 0 {
		return "Neutral."
	}
	out := f.bias[0]
	f.bias = f.bias[1:]
	return out
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *fakeSpeaker) Speak(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

type harness struct {
	t       *testing.T
	loop    *events.Loop
	clock   *events.ManualClock
	bus     *events.Bus
	doc     *document.Document
	eng     *Engine
	svc     *fakeService
	speaker *fakeSpeaker
}

func newHarness(t *testing.T, body string) *harness {
	t.Helper()
	return newHarnessWith(t, body, nil)
}

// newHarnessWith runs the engine against svc instead of the fake service
// tables. A nil svc selects the fake.
func newHarnessWith(t *testing.T, body string, svc Service) *harness {
	t.Helper()
	doc, err := document.ParseString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)

	loop := events.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	h := &harness{
		t:       t,
		loop:    loop,
		clock:   events.NewManualClock(),
		bus:     events.NewBus(),
		doc:     doc,
		svc:     newFakeService(),
		speaker: &fakeSpeaker{},
	}
	if svc == nil {
		svc = h.svc
	}
	h.eng = New(Deps{
		Doc:           doc,
		Service:       svc,
		Speaker:       h.speaker,
		Dispatcher:    loop,
		Clock:         h.clock,
		BannerDwell:   5 * time.Second,
		AffordanceTTL: 10 * time.Second,
	})
	h.eng.Attach(h.bus)
	t.Cleanup(func() {
		h.eng.Close()
		cancel()
	})
	return h
}

// publish delivers ev on the loop.
func (h *harness) publish(ev events.Event) {
	h.loop.Do(func() { h.bus.Publish(ev) })
}

// settle waits for service calls and their continuations.
func (h *harness) settle() {
	h.eng.Wait()
	h.loop.Do(func() {})
}

// advance moves the clock and runs the timers it fired.
func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.loop.Do(func() {})
}

// html renders the body on the loop.
func (h *harness) html() string {
	var out string
	h.loop.Do(func() { out = h.doc.String() })
	return out
}

// text returns the visible text on the loop.
func (h *harness) text() string {
	var out string
	h.loop.Do(func() { out = h.doc.Text() })
	return out
}

// word builds a double-click on the first visible occurrence of w.
func (h *harness) word(w string) events.DoubleClick {
	var ev events.DoubleClick
	h.loop.Do(func() {
		r, ok := h.doc.FindText(w)
		require.True(h.t, ok, "word %q not found", w)
		ev = events.DoubleClick{
			Selection: events.Selection{Text: w, Range: r, Rect: events.Rect{X: 1, Y: 1, W: float64(len(w)), H: 1}},
			Target:    r.Node,
		}
	})
	return ev
}

// marked builds a double-click on the substitution element for original.
func (h *harness) marked(original string) events.DoubleClick {
	var ev events.DoubleClick
	h.loop.Do(func() {
		for _, el := range h.doc.Marked() {
			if document.Attr(el, document.AttrOriginal) == original {
				txt := el.FirstChild
				ev = events.DoubleClick{
					Selection: events.Selection{
						Text:  strings.TrimSpace(txt.Data),
						Range: document.Range{Node: txt, Start: 0, End: len(txt.Data)}.Trim(),
					},
					Target: txt,
				}
				return
			}
		}
		h.t.Fatalf("no marked element for %q", original)
	})
	return ev
}

// choose clicks the level button of the open prompt.
func (h *harness) choose(l prompt.Level) {
	var btn *html.Node
	h.loop.Do(func() { btn = h.eng.Prompt().Button(l) })
	require.NotNil(h.t, btn, "prompt not open")
	h.publish(events.Click{Target: btn})
}

func (h *harness) overlays(kind string) []*html.Node {
	var out []*html.Node
	h.loop.Do(func() { out = h.doc.Overlays(kind) })
	return out
}

func (h *harness) promptOpen() bool {
	var open bool
	h.loop.Do(func() { open = h.eng.Prompt().IsOpen() })
	return open
}
